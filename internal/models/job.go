package models

import "encoding/json"

// JobRecord is one result item from the job-search API. It is passed through
// untouched so upstream fields survive without a schema.
type JobRecord = json.RawMessage
