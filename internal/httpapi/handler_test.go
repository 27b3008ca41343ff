package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jimezsa/usajobsfn/internal/aggregate"
	"github.com/jimezsa/usajobsfn/internal/models"
	"github.com/jimezsa/usajobsfn/internal/secrets"
	"github.com/jimezsa/usajobsfn/internal/usajobs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	value string
	err   error
	names []string
}

func (f *fakeSecrets) FetchSecret(_ context.Context, name string) (string, error) {
	f.names = append(f.names, name)
	return f.value, f.err
}

type fakeSearcher struct {
	results map[string][]models.JobRecord
	fail    map[string]int
	panicOn string
	calls   []models.SearchParams
	creds   []string
	ctxErrs []error
}

func (f *fakeSearcher) Search(ctx context.Context, credential string, params models.SearchParams) ([]models.JobRecord, error) {
	if params.Keyword == f.panicOn {
		panic("upstream exploded")
	}
	f.calls = append(f.calls, params)
	f.creds = append(f.creds, credential)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if code, ok := f.fail[params.Keyword]; ok {
		return nil, &usajobs.StatusError{Code: code}
	}
	return f.results[params.Keyword], nil
}

func newTestHandler(src secrets.Source, searcher *fakeSearcher) *Handler {
	return New(Deps{
		Secrets:    src,
		SecretName: "USAJOBS_API_KEY",
		Aggregator: aggregate.New(searcher, zerolog.Nop(), 1),
		Logger:     zerolog.Nop(),
	})
}

func do(t *testing.T, h http.Handler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestOptionsPreflight(t *testing.T) {
	h := newTestHandler(&fakeSecrets{value: "key"}, &fakeSearcher{})

	rec := do(t, h, http.MethodOptions, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestPostAggregatesInKeywordOrder(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]models.JobRecord{
		"nurse":         {models.JobRecord(`{"MatchedObjectId":"n1"}`), models.JobRecord(`{"MatchedObjectId":"n2"}`)},
		"social worker": {models.JobRecord(`{"MatchedObjectId":"s1"}`)},
	}}
	src := &fakeSecrets{value: "api-key"}
	h := newTestHandler(src, searcher)

	rec := do(t, h, http.MethodPost, `{"keywords": "nurse \"social worker\""}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"jobs":[{"MatchedObjectId":"n1"},{"MatchedObjectId":"n2"},{"MatchedObjectId":"s1"}]}`, rec.Body.String())

	require.Len(t, searcher.calls, 2)
	assert.Equal(t, "nurse", searcher.calls[0].Keyword)
	assert.Equal(t, "social worker", searcher.calls[1].Keyword)
	assert.Equal(t, "United States", searcher.calls[0].LocationName)
	assert.Equal(t, "public", searcher.calls[0].WhoMayApply)
	assert.Equal(t, []string{"api-key", "api-key"}, searcher.creds)
	assert.Equal(t, []string{"USAJOBS_API_KEY"}, src.names)
}

func TestPostPartialFailureStillOK(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]models.JobRecord{"b": {models.JobRecord(`{"id":"x"}`), models.JobRecord(`{"id":"y"}`)}},
		fail:    map[string]int{"a": 503},
	}
	h := newTestHandler(&fakeSecrets{value: "key"}, searcher)

	rec := do(t, h, http.MethodPost, `{"keywords": "a b"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[{"id":"x"},{"id":"y"}]}`, rec.Body.String())
}

func TestPostAllFailReturnsEmptyJobs(t *testing.T) {
	searcher := &fakeSearcher{fail: map[string]int{"a": 500, "b": 401}}
	h := newTestHandler(&fakeSecrets{value: "key"}, searcher)

	rec := do(t, h, http.MethodPost, `{"keywords": "a b"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[]}`, rec.Body.String())
}

func TestPostEmptyKeywordsReturnsEmptyJobs(t *testing.T) {
	searcher := &fakeSearcher{}
	h := newTestHandler(&fakeSecrets{value: "key"}, searcher)

	rec := do(t, h, http.MethodPost, `{"keywords": "   "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"jobs":[]}`, rec.Body.String())
	assert.Empty(t, searcher.calls)
}

func TestPostBadPayload(t *testing.T) {
	cases := map[string]string{
		"missing keywords": `{}`,
		"no body":          "",
		"not json":         `keywords=nurse`,
		"array":            `["nurse"]`,
		"null":             `null`,
		"null keywords":    `{"keywords": null}`,
		"number keywords":  `{"keywords": 42}`,
		"truncated":        `{"keywords": "nurse"`,
		"trailing data":    `{"keywords": "nurse"} trailing`,
		"second value":     `{"keywords": "nurse"} {"keywords": "clerk"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			h := newTestHandler(&fakeSecrets{value: "key"}, searcher)

			rec := do(t, h, http.MethodPost, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.JSONEq(t, `{"error": "No keywords provided or incorrect format"}`, rec.Body.String())
			assert.Empty(t, searcher.calls)
		})
	}
}

func TestPostMalformedQuotes(t *testing.T) {
	src := &fakeSecrets{value: "key"}
	h := newTestHandler(src, &fakeSearcher{})

	rec := do(t, h, http.MethodPost, `{"keywords": "unterminated \"quote"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, decodeError(t, rec), "malformed keywords")
	assert.Empty(t, src.names, "secret must not be fetched for invalid input")
}

func TestPostCredentialUnavailable(t *testing.T) {
	cases := map[string]*fakeSecrets{
		"fetch error": {err: errors.New("permission denied")},
		"empty value": {value: ""},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			h := newTestHandler(src, searcher)

			rec := do(t, h, http.MethodPost, `{"keywords": "nurse"}`)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "API Key not configured", decodeError(t, rec))
			assert.Empty(t, searcher.calls)
		})
	}
}

func TestPostUnhandledFailure(t *testing.T) {
	h := newTestHandler(&fakeSecrets{value: "key"}, &fakeSearcher{panicOn: "nurse"})

	rec := do(t, h, http.MethodPost, `{"keywords": "nurse"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "upstream exploded", decodeError(t, rec))
}

func TestHandlerUsesConfiguredSearchOptions(t *testing.T) {
	searcher := &fakeSearcher{}
	h := New(Deps{
		Secrets:     &fakeSecrets{value: "key"},
		SecretName:  "OTHER_KEY",
		Aggregator:  aggregate.New(searcher, zerolog.Nop(), 1),
		Location:    "Washington, District of Columbia",
		WhoMayApply: "all",
		Logger:      zerolog.Nop(),
	})

	rec := do(t, h, http.MethodPost, `{"keywords": "analyst"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "Washington, District of Columbia", searcher.calls[0].LocationName)
	assert.Equal(t, "all", searcher.calls[0].WhoMayApply)
}

func TestPostTrailingWhitespaceAccepted(t *testing.T) {
	searcher := &fakeSearcher{}
	h := newTestHandler(&fakeSecrets{value: "key"}, searcher)

	rec := do(t, h, http.MethodPost, "{\"keywords\": \"nurse\"}\n  \n")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, searcher.calls, 1)
}

func TestPostBodyTooLarge(t *testing.T) {
	searcher := &fakeSearcher{}
	src := &fakeSecrets{value: "key"}
	h := newTestHandler(src, searcher)

	body := `{"keywords": "` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	rec := do(t, h, http.MethodPost, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "No keywords provided or incorrect format"}`, rec.Body.String())
	assert.Empty(t, searcher.calls)
	assert.Empty(t, src.names)
}

func TestPostCancellationReachesSearcher(t *testing.T) {
	searcher := &fakeSearcher{}
	h := newTestHandler(&fakeSecrets{value: "key"}, searcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"keywords": "nurse clerk"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, searcher.ctxErrs, 2)
	for _, err := range searcher.ctxErrs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
