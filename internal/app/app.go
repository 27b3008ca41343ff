// Package app wires configuration, credentials and the USAJOBS client into
// the pieces served by the function and the CLI.
package app

import (
	"context"
	"time"

	"github.com/jimezsa/usajobsfn/internal/aggregate"
	"github.com/jimezsa/usajobsfn/internal/config"
	"github.com/jimezsa/usajobsfn/internal/httpapi"
	"github.com/jimezsa/usajobsfn/internal/models"
	"github.com/jimezsa/usajobsfn/internal/network"
	"github.com/jimezsa/usajobsfn/internal/secrets"
	"github.com/jimezsa/usajobsfn/internal/usajobs"
	"github.com/rs/zerolog"
)

const proxyBanDuration = 10 * time.Minute

type App struct {
	Config     config.Config
	Secrets    secrets.Source
	Aggregator *aggregate.Aggregator
	Logger     zerolog.Logger
}

// New builds an App. One outbound client is shared by every sub-request.
func New(ctx context.Context, cfg config.Config, proxies []string, logger zerolog.Logger) (*App, error) {
	var rotator *network.Rotator
	if len(proxies) > 0 {
		var err error
		rotator, err = network.NewRotator(proxies, proxyBanDuration)
		if err != nil {
			return nil, err
		}
	}

	httpClient, err := network.NewClient(models.ClientConfig{
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.UserAgent,
	}, rotator)
	if err != nil {
		return nil, err
	}

	client := usajobs.NewClient(httpClient,
		usajobs.WithEndpoint(cfg.Endpoint),
		usajobs.WithUserAgent(cfg.UserAgent),
		usajobs.WithLogger(logger),
	)

	return &App{
		Config:     cfg,
		Secrets:    NewSecretSource(ctx, cfg, logger),
		Aggregator: aggregate.New(client, logger, cfg.Concurrency),
		Logger:     logger,
	}, nil
}

// NewSecretSource returns Secret Manager when a project is configured,
// followed by environment variables and the optional secrets directory.
// A Secret Manager client that cannot be created is skipped so requests
// fail with a missing-credential response instead of at startup.
func NewSecretSource(ctx context.Context, cfg config.Config, logger zerolog.Logger) secrets.Source {
	var chain secrets.Chain
	if cfg.ProjectID != "" {
		gcp, err := secrets.NewGCPSource(ctx, cfg.ProjectID)
		if err != nil {
			logger.Warn().Err(err).Str("project", cfg.ProjectID).Msg("secret manager unavailable")
		} else {
			chain = append(chain, gcp)
		}
	}
	chain = append(chain, secrets.NewEnvSource())
	if cfg.SecretsDir != "" {
		chain = append(chain, secrets.DirSource{Dir: cfg.SecretsDir})
	}
	return chain
}

func (a *App) Handler() *httpapi.Handler {
	return httpapi.New(httpapi.Deps{
		Secrets:     a.Secrets,
		SecretName:  a.Config.SecretName,
		Aggregator:  a.Aggregator,
		Location:    a.Config.Location,
		WhoMayApply: a.Config.WhoMayApply,
		Logger:      a.Logger,
	})
}
