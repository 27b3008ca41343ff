package models

// SearchParams captures the inputs of one sub-request.
type SearchParams struct {
	Keyword      string
	LocationName string
	WhoMayApply  string
}
