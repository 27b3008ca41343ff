package cmd

import (
	"context"
	"net"
	"strings"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/jimezsa/usajobsfn/internal/app"
	"github.com/jimezsa/usajobsfn/internal/config"
)

type ServeCmd struct {
	Host    string `help:"Interface to bind." default:"localhost"`
	Port    string `help:"Port to listen on (default: config port or PORT env)."`
	Proxies string `help:"Comma-separated proxy URLs." env:"USAJOBSFN_PROXIES"`
}

func (s *ServeCmd) Run(ctx *Context) error {
	proxies, err := config.LoadProxies(s.Proxies)
	if err != nil {
		return err
	}

	application, err := app.New(context.Background(), ctx.Config, proxies, ctx.Logger)
	if err != nil {
		return err
	}

	handler := application.Handler()
	if err := funcframework.RegisterHTTPFunctionContext(context.Background(), "/", handler.ServeHTTP); err != nil {
		return err
	}

	port := firstNonEmpty(s.Port, ctx.Config.Port, config.DefaultPort)
	ctx.UI.Infof("Listening on http://%s", net.JoinHostPort(s.Host, port))
	return funcframework.StartHostPort(strings.TrimSpace(s.Host), port)
}
