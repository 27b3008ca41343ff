// Package httpapi exposes keyword job search over HTTP with permissive CORS.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jimezsa/usajobsfn/internal/aggregate"
	"github.com/jimezsa/usajobsfn/internal/keywords"
	"github.com/jimezsa/usajobsfn/internal/models"
	"github.com/jimezsa/usajobsfn/internal/secrets"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes = 1 << 20

	errBadPayload    = "No keywords provided or incorrect format"
	errNoCredentials = "API Key not configured"
)

type searchRequest struct {
	Keywords *string `json:"keywords"`
}

type searchResponse struct {
	Jobs []models.JobRecord `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	secrets    secrets.Source
	secretName string
	aggregator *aggregate.Aggregator
	searchOpts []aggregate.Option
	logger     zerolog.Logger
}

type Deps struct {
	Secrets     secrets.Source
	SecretName  string
	Aggregator  *aggregate.Aggregator
	Location    string
	WhoMayApply string
	Logger      zerolog.Logger
}

func New(deps Deps) *Handler {
	return &Handler{
		secrets:    deps.Secrets,
		secretName: deps.SecretName,
		aggregator: deps.Aggregator,
		searchOpts: []aggregate.Option{
			aggregate.WithLocation(deps.Location),
			aggregate.WithWhoMayApply(deps.WhoMayApply),
		},
		logger: deps.Logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("%v", rec)
			h.logger.Error().Err(err).Msg("an error occurred")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		}
	}()

	status, body := h.search(w, r)
	writeJSON(w, status, body)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) (int, any) {
	var req searchRequest
	if r.Body == nil {
		return http.StatusBadRequest, errorResponse{Error: errBadPayload}
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil || req.Keywords == nil {
		h.logger.Debug().Err(err).Msg("rejecting request payload")
		return http.StatusBadRequest, errorResponse{Error: errBadPayload}
	}
	if _, err := dec.Token(); err != io.EOF {
		h.logger.Debug().Err(err).Msg("rejecting trailing data after payload")
		return http.StatusBadRequest, errorResponse{Error: errBadPayload}
	}

	terms, err := keywords.Tokenize(*req.Keywords)
	if err != nil {
		h.logger.Error().Err(err).Str("keywords", *req.Keywords).Msg("could not parse keywords")
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	}

	ctx := r.Context()
	credential, err := h.secrets.FetchSecret(ctx, h.secretName)
	if err != nil || credential == "" {
		h.logger.Error().Err(err).Str("secret", h.secretName).Msg("api key unavailable")
		return http.StatusInternalServerError, errorResponse{Error: errNoCredentials}
	}

	outcomes := h.aggregator.Outcomes(ctx, credential, terms, h.searchOpts...)
	jobs := aggregate.Flatten(outcomes)
	h.logger.Info().
		Int("keywords", len(terms)).
		Int("failed", len(aggregate.Failures(outcomes))).
		Int("jobs", len(jobs)).
		Msg("search complete")

	return http.StatusOK, searchResponse{Jobs: jobs}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
