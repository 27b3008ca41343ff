// Package usajobsfn is the Cloud Functions entry point for keyword job search.
//
// Deploy with --entry-point=HandleRequest. The function reads its settings
// from the environment (GCP_PROJECT, USAJOBSFN_*) and the API key from
// Secret Manager.
package usajobsfn

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/jimezsa/usajobsfn/internal/app"
	"github.com/jimezsa/usajobsfn/internal/config"
	"github.com/rs/zerolog"
)

func init() {
	functions.HTTP("HandleRequest", HandleRequest)
}

var handler = sync.OnceValue(newHandler)

// HandleRequest serves one search request.
func HandleRequest(w http.ResponseWriter, r *http.Request) {
	handler().ServeHTTP(w, r)
}

func newHandler() http.Handler {
	level := zerolog.InfoLevel
	if verbose := strings.ToLower(strings.TrimSpace(os.Getenv("USAJOBSFN_VERBOSE"))); verbose == "1" || verbose == "true" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("config file ignored")
	}
	proxies, err := config.LoadProxies("")
	if err != nil {
		logger.Warn().Err(err).Msg("proxies ignored")
		proxies = nil
	}

	application, err := app.New(context.Background(), cfg, proxies, logger)
	if err != nil {
		logger.Error().Err(err).Msg("function setup failed")
		return setupFailure{err: err}
	}
	return application.Handler()
}

// setupFailure answers every request with the setup error.
type setupFailure struct {
	err error
}

func (s setupFailure) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": s.err.Error()})
}
