// Package pipeline orchestrates the fetch → parse → merge → store flow over
// a batch of judge identifiers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tabscout/tabscout/internal/archive"
	"github.com/tabscout/tabscout/internal/events"
	"github.com/tabscout/tabscout/internal/fetcher"
	"github.com/tabscout/tabscout/internal/merger"
	"github.com/tabscout/tabscout/internal/metrics"
	"github.com/tabscout/tabscout/internal/parser"
	"github.com/tabscout/tabscout/internal/store"
	"github.com/tabscout/tabscout/pkg/models"
)

// Config holds pipeline configuration.
type Config struct {
	Workers        int
	MetricsEnabled bool
	SiteHost       string // used for archive prefixes
}

// Archive is the raw-page store the pipeline writes fetched pages to and
// replays them from. *archive.Client implements it.
type Archive interface {
	PutPage(ctx context.Context, prefix, identifier string, body []byte) error
	GetPage(ctx context.Context, prefix, identifier string) ([]byte, error)
	ListPages(ctx context.Context, prefix string) ([]string, error)
	PutMetadata(ctx context.Context, prefix string, meta archive.RunMetadata) error
	GetMetadata(ctx context.Context, prefix string) (*archive.RunMetadata, error)
}

// Pipeline wires the stages together. Fetch and parse run on a bounded
// worker pool; merge and store run on the single goroutine consuming the
// outcome channel, which keeps upserts serialized.
type Pipeline struct {
	config  Config
	fetcher *fetcher.Fetcher
	parser  *parser.Parser
	store   store.Store
	archive Archive // nil when archiving is disabled
}

// New creates a Pipeline. Pass a nil archive to skip raw-page archiving.
func New(config Config, f *fetcher.Fetcher, p *parser.Parser, s store.Store, arch Archive) *Pipeline {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Pipeline{
		config:  config,
		fetcher: f,
		parser:  p,
		store:   s,
		archive: arch,
	}
}

// Run executes one ingest over the given identifiers and returns the run
// summary. Per-identifier errors land in the summary; the returned error is
// reserved for failures that invalidate the whole run. Cancelling the
// context stops new fetches from being issued, while in-flight ones finish
// or time out on their own.
func (p *Pipeline) Run(ctx context.Context, identifiers []string) (*models.IngestRun, error) {
	start := time.Now().UTC()
	run := &models.IngestRun{
		ID:        models.NewRunID(fmt.Sprintf("%s-%d", p.config.SiteHost, start.UnixNano())),
		StartedAt: start,
	}

	prefix := ""
	if p.archive != nil {
		prefix = archive.NewPrefix(p.config.SiteHost, start, run.ID)
	}

	slog.Info("ingest run starting", "run_id", run.ID, "identifiers", len(identifiers), "workers", p.config.Workers)

	jobs := make(chan string)
	outcomes := make(chan events.Outcome)

	var wg sync.WaitGroup
	for i := 0; i < p.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				outcomes <- p.fetchAndParse(ctx, id, prefix)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range identifiers {
			if ctx.Err() != nil {
				slog.Info("run cancelled, not issuing further fetches", "run_id", run.ID)
				return
			}
			jobs <- id
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Single writer: merge decisions and store writes happen here only.
	var archived []string
	for outcome := range outcomes {
		if outcome.Archived {
			archived = append(archived, outcome.Identifier)
		}
		if outcome.Failure != nil {
			run.Failed++
			run.Failures = append(run.Failures, *outcome.Failure)
			continue
		}
		p.apply(ctx, run, *outcome.Judge)
	}

	if p.archive != nil && len(archived) > 0 {
		meta := archive.RunMetadata{
			RunID:       run.ID,
			Host:        p.config.SiteHost,
			Timestamp:   start.Format(time.RFC3339),
			PageCount:   len(archived),
			Identifiers: archived,
		}
		if err := p.archive.PutMetadata(ctx, prefix, meta); err != nil {
			slog.Error("failed to write archive metadata", "run_id", run.ID, "prefix", prefix, "error", err)
		}
	}

	run.FinishedAt = time.Now().UTC()
	slog.Info("ingest run complete", "run_id", run.ID, "summary", run.Summary(),
		"duration", run.FinishedAt.Sub(run.StartedAt))

	return run, nil
}

// fetchAndParse handles one identifier on a worker goroutine. No shared
// state is touched here.
func (p *Pipeline) fetchAndParse(ctx context.Context, id, prefix string) events.Outcome {
	if err := ctx.Err(); err != nil {
		return failure(id, "fetch", err)
	}

	result, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		return failure(id, "fetch", err)
	}

	var archived bool
	if p.archive != nil && prefix != "" {
		// Archive failures cost us replay, not the run.
		if err := p.archive.PutPage(ctx, prefix, id, result.Body); err != nil {
			slog.Error("failed to archive page", "identifier", id, "error", err)
		} else {
			archived = true
		}
	}

	judge, err := p.parser.Parse(result.Body, id, result.URL)
	if err != nil {
		out := failure(id, "parse", err)
		out.Archived = archived
		return out
	}

	return events.Outcome{Identifier: id, Judge: judge, Archived: archived}
}

// apply merges one parsed record into the store and updates the run counts.
func (p *Pipeline) apply(ctx context.Context, run *models.IngestRun, incoming models.Judge) {
	existing, err := p.store.Get(ctx, incoming.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		run.Failed++
		run.Failures = append(run.Failures, models.Failure{
			Identifier: incoming.ID, Stage: "store", Message: err.Error(),
		})
		return
	}

	decision := merger.Decide(existing, incoming, time.Now().UTC())

	switch decision.Action {
	case merger.ActionUnchanged:
		run.Unchanged++
		slog.Debug("record unchanged", "identifier", incoming.ID)
		return
	case merger.ActionAdd:
		run.Added++
	case merger.ActionUpdate:
		run.Updated++
	}

	if p.config.MetricsEnabled {
		m := metrics.Compute(decision.Judge.Ballots)
		decision.Judge.Metrics = &m
	}

	if err := p.store.Upsert(ctx, decision.Judge); err != nil {
		// Roll the count back: the write did not happen.
		switch decision.Action {
		case merger.ActionAdd:
			run.Added--
		case merger.ActionUpdate:
			run.Updated--
		}
		run.Failed++
		run.Failures = append(run.Failures, models.Failure{
			Identifier: incoming.ID, Stage: "store", Message: err.Error(),
		})
		return
	}

	slog.Debug("record stored", "identifier", incoming.ID, "action", string(decision.Action),
		"changes", len(decision.Changes))
}

func failure(id, stage string, err error) events.Outcome {
	return events.Outcome{
		Identifier: id,
		Failure:    &models.Failure{Identifier: id, Stage: stage, Message: err.Error()},
	}
}
