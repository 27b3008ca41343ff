package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jimezsa/usajobsfn/internal/aggregate"
	"github.com/jimezsa/usajobsfn/internal/app"
	"github.com/jimezsa/usajobsfn/internal/config"
	"github.com/jimezsa/usajobsfn/internal/export"
	"github.com/jimezsa/usajobsfn/internal/keywords"
	"github.com/jimezsa/usajobsfn/internal/usajobs"
	"github.com/muesli/termenv"
)

var errNoCredentials = errors.New("API Key not configured")

type SearchCmd struct {
	Keywords    string `arg:"" help:"Keywords separated by spaces; quote multi-word phrases."`
	Location    string `help:"Location name (default: United States)."`
	WhoMayApply string `help:"Applicant eligibility filter (default: public)."`
	Concurrency int    `help:"Sub-requests in flight at once (default: sequential)."`
	Format      string `help:"Output format: csv, json, md, tsv, table." enum:",csv,json,md,tsv,table" default:""`
	Links       string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output      string `name:"output" short:"o" help:"Write output to a file."`
	Proxies     string `help:"Comma-separated proxy URLs." env:"USAJOBSFN_PROXIES"`
}

func (s *SearchCmd) Run(ctx *Context) error {
	terms, err := keywords.Tokenize(s.Keywords)
	if err != nil {
		return err
	}

	cfg := ctx.Config
	cfg.Location = firstNonEmpty(s.Location, cfg.Location)
	cfg.WhoMayApply = firstNonEmpty(s.WhoMayApply, cfg.WhoMayApply)
	if s.Concurrency > 0 {
		cfg.Concurrency = s.Concurrency
	}

	proxies, err := config.LoadProxies(s.Proxies)
	if err != nil {
		return err
	}

	runCtx := context.Background()
	application, err := app.New(runCtx, cfg, proxies, ctx.Logger)
	if err != nil {
		return err
	}

	credential, err := application.Secrets.FetchSecret(runCtx, cfg.SecretName)
	if err != nil {
		return fmt.Errorf("%w: %v", errNoCredentials, err)
	}
	if credential == "" {
		return errNoCredentials
	}

	stopIndicator := startSearchIndicator(ctx)
	outcomes := application.Aggregator.Outcomes(runCtx, credential, terms,
		aggregate.WithLocation(cfg.Location),
		aggregate.WithWhoMayApply(cfg.WhoMayApply),
	)
	if stopIndicator != nil {
		stopIndicator()
	}

	jobs := aggregate.Flatten(outcomes)
	failures := aggregate.Failures(outcomes)
	reportSearchFailures(ctx, failures)

	format, err := resolveFormat(ctx, s.Format, s.Output)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if s.Output != "" {
		file, err := os.Create(s.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	hyperlinks := colorEnabled && isTTY(writer)
	linkStyle := export.LinkStyleFull
	if strings.EqualFold(s.Links, string(export.LinkStyleShort)) {
		linkStyle = export.LinkStyleShort
	}
	if err := export.WriteJobs(writer, jobs, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   hyperlinks,
		LinkStyle:    linkStyle,
	}); err != nil {
		return err
	}

	printSearchSummary(ctx, len(terms), len(failures), len(jobs))
	return nil
}

func reportSearchFailures(ctx *Context, failures []aggregate.Outcome) {
	if ctx == nil || ctx.UI == nil || len(failures) == 0 {
		return
	}
	if !ctx.Verbose {
		ctx.UI.Warnf("%d keyword(s) failed; rerun with --verbose for details", len(failures))
		return
	}

	ctx.UI.Warnf("\nKeyword errors:")
	for _, failure := range failures {
		ctx.UI.Warnf("  %s: %s", failure.Term, describeFailure(failure.Err))
	}
}

func describeFailure(err error) string {
	var statusErr *usajobs.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("status %d", statusErr.Code)
	}
	return err.Error()
}

func printSearchSummary(ctx *Context, keywordCount, failed, jobCount int) {
	if ctx == nil || ctx.Err == nil {
		return
	}
	_, _ = fmt.Fprintln(ctx.Err, formatSearchSummary(keywordCount, failed, jobCount))
}

func formatSearchSummary(keywordCount, failed, jobCount int) string {
	return fmt.Sprintf("summary: keywords=%d failed=%d jobs=%d", keywordCount, failed, jobCount)
}

func resolveFormat(ctx *Context, format string, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if format != "" {
		return export.ParseFormat(format)
	}
	if outputPath != "" {
		return export.FormatJSON, nil
	}
	if isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatJSON, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startSearchIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2KSearching USAJOBS... %ds %s", seconds, frame)
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
