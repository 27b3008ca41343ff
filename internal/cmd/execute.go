package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/jimezsa/usajobsfn/internal/config"
	"github.com/jimezsa/usajobsfn/internal/ui"
	"github.com/rs/zerolog"
)

// Execute parses args, runs the selected command and returns the process
// exit code.
func Execute(args []string, out io.Writer, errOut io.Writer, build BuildInfo) int {
	cli := NewCLI()
	applyEnvDefaults(cli)

	parser, err := kong.New(cli,
		kong.Name("usajobsfn"),
		kong.Description("USAJOBS keyword search function and CLI."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": build.String()},
		kong.Writers(out, errOut),
	)
	if err != nil {
		ui.New(out, errOut, ui.ColorNever, true).Errorf("%v", err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		ui.New(out, errOut, ui.NormalizeColorMode(cli.Color), false).Errorf("%v", err)
		return 1
	}

	userInterface := ui.New(out, errOut, ui.NormalizeColorMode(cli.Color), cli.JSON || cli.Plain)
	logger := newLogger(errOut, cli, userInterface.ColorEnabled)

	// A broken config file is reported but does not block commands that can
	// run on defaults and environment overrides.
	cfg, err := config.Load()
	if err != nil {
		userInterface.Warnf("config: %v", err)
	}
	configDir, err := config.ConfigDir()
	if err != nil {
		logger.Debug().Err(err).Msg("no user config dir")
	}

	runCtx := &Context{
		Out:        out,
		Err:        errOut,
		UI:         userInterface,
		Config:     cfg,
		ConfigDir:  configDir,
		Logger:     logger,
		Verbose:    cli.Verbose,
		JSONOutput: cli.JSON,
		PlainText:  cli.Plain,
		Build:      build,
	}
	if err := kctx.Run(runCtx); err != nil {
		userInterface.Errorf("%v", err)
		return 1
	}
	return 0
}

// newLogger writes JSON lines in --json mode and console output otherwise.
func newLogger(w io.Writer, cli *CLI, color bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if cli.Verbose {
		level = zerolog.DebugLevel
	}
	if !cli.JSON {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !color}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func applyEnvDefaults(cli *CLI) {
	if envBool("USAJOBSFN_JSON") {
		cli.JSON = true
	}
	if envBool("USAJOBSFN_VERBOSE") {
		cli.Verbose = true
	}
	if value := os.Getenv("USAJOBSFN_COLOR"); value != "" {
		cli.Color = value
	}
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
