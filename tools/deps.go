// Package tools implements the capability surface the decision-making
// agent drives: time context, match scraping, and queue submission, all
// sharing one per-run mutable Deps value.
package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/matchagent/config"
	"github.com/hazyhaar/matchagent/match"
	"github.com/hazyhaar/matchagent/scrape"
)

// Submitter is what the submit capability needs from the queue client.
type Submitter interface {
	Submit(ctx context.Context, rec match.Record) (string, error)
}

// Deps is the run context: the mutable state shared across capability
// invocations within one run. One Deps per process invocation; access is
// strictly sequential (the agent issues at most one tool call at a time),
// so no locking. Nothing in here survives the run.
type Deps struct {
	// Queue is exclusively owned by this run.
	Queue Submitter
	// Engine produces raw match rows for a descriptor.
	Engine scrape.Engine
	// Config is the immutable snapshot of run parameters.
	Config *config.Config
	// Names is the injected league-scoped team-name table.
	Names match.Normalizer
	// SeasonEnd is the floor applied to every scrape range end.
	SeasonEnd time.Time
	// DryRun makes submit report intent without touching the queue.
	DryRun bool
	// TeamFilter, when set, restricts which scraped records are retained.
	// Exact match against either normalized team name.
	TeamFilter string
	// Now overrides the clock in tests.
	Now func() time.Time

	Logger *slog.Logger

	// scraped accumulates records across scrape calls, in call order,
	// for submit to consume.
	scraped []match.Record
	report  Report
}

func (d *Deps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Names == nil {
		d.Names = match.DefaultNormalizer()
	}
	if d.SeasonEnd.IsZero() {
		d.SeasonEnd = match.DefaultSeasonEnd
	}
}

// Records returns the accumulated records. Exposed for the run report and
// tests; callers must not mutate the slice.
func (d *Deps) Records() []match.Record {
	return d.scraped
}

// append extends the accumulator with one scrape batch, preserving call
// order across batches.
func (d *Deps) append(batch []match.Record) {
	d.scraped = append(d.scraped, batch...)
}

// drain empties the accumulator after a successful non-dry submit.
func (d *Deps) drain() {
	d.scraped = nil
}

func (d *Deps) recordAction(kind ActionKind, detail string, dryRun bool) {
	d.report.Actions = append(d.report.Actions, Action{
		Kind:   kind,
		Detail: detail,
		DryRun: dryRun,
	})
}

// Report returns the run report accumulated so far.
func (d *Deps) Report() *Report {
	return &d.report
}
