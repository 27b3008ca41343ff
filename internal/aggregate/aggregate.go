// Package aggregate fans a list of search terms out to the job-search API and
// concatenates the successful result lists in term order.
package aggregate

import (
	"context"
	"errors"

	"github.com/jimezsa/usajobsfn/internal/models"
	"github.com/jimezsa/usajobsfn/internal/usajobs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Searcher runs one sub-request. *usajobs.Client implements it.
type Searcher interface {
	Search(ctx context.Context, credential string, params models.SearchParams) ([]models.JobRecord, error)
}

// Outcome is the result of one sub-request: either Jobs or Err is meaningful.
type Outcome struct {
	Term string
	Jobs []models.JobRecord
	Err  error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

type Options struct {
	Location    string
	WhoMayApply string
}

type Option func(*Options)

func WithLocation(location string) Option {
	return func(o *Options) {
		if location != "" {
			o.Location = location
		}
	}
}

func WithWhoMayApply(whoMayApply string) Option {
	return func(o *Options) {
		if whoMayApply != "" {
			o.WhoMayApply = whoMayApply
		}
	}
}

type Aggregator struct {
	searcher    Searcher
	logger      zerolog.Logger
	concurrency int
}

// New returns an Aggregator. concurrency <= 1 issues sub-requests one at a
// time in term order.
func New(searcher Searcher, logger zerolog.Logger, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Aggregator{
		searcher:    searcher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Aggregate returns the concatenation of every successful term's results.
// Failed terms are logged and skipped; the call itself never fails.
func (a *Aggregator) Aggregate(ctx context.Context, credential string, terms []string, opts ...Option) []models.JobRecord {
	return Flatten(a.Outcomes(ctx, credential, terms, opts...))
}

// Outcomes runs one sub-request per term and returns one Outcome per term,
// indexed like terms regardless of completion order.
func (a *Aggregator) Outcomes(ctx context.Context, credential string, terms []string, opts ...Option) []Outcome {
	options := Options{
		Location:    usajobs.DefaultLocation,
		WhoMayApply: usajobs.DefaultWhoMayApply,
	}
	for _, opt := range opts {
		opt(&options)
	}

	outcomes := make([]Outcome, len(terms))
	if a.concurrency == 1 || len(terms) < 2 {
		for i, term := range terms {
			outcomes[i] = a.search(ctx, credential, term, options)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, term := range terms {
		g.Go(func() error {
			outcomes[i] = a.search(ctx, credential, term, options)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (a *Aggregator) search(ctx context.Context, credential string, term string, options Options) Outcome {
	jobs, err := a.searcher.Search(ctx, credential, models.SearchParams{
		Keyword:      term,
		LocationName: options.Location,
		WhoMayApply:  options.WhoMayApply,
	})
	if err != nil {
		event := a.logger.Error().Str("keyword", term)
		var statusErr *usajobs.StatusError
		if errors.As(err, &statusErr) {
			event = event.Int("status", statusErr.Code)
		}
		event.Err(err).Msg("failed to retrieve jobs for keyword")
		return Outcome{Term: term, Err: err}
	}
	return Outcome{Term: term, Jobs: jobs}
}

// Flatten concatenates the jobs of successful outcomes in order. The result
// is never nil.
func Flatten(outcomes []Outcome) []models.JobRecord {
	total := 0
	for _, outcome := range outcomes {
		total += len(outcome.Jobs)
	}
	all := make([]models.JobRecord, 0, total)
	for _, outcome := range outcomes {
		if outcome.Failed() {
			continue
		}
		all = append(all, outcome.Jobs...)
	}
	return all
}

// Failures returns the failed outcomes in term order.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, outcome := range outcomes {
		if outcome.Failed() {
			failed = append(failed, outcome)
		}
	}
	return failed
}
