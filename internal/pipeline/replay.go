package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tabscout/tabscout/pkg/models"
)

// Replay re-runs parse → merge → store from an archived run prefix, without
// touching the network. This is how a parser fix gets applied to pages that
// were fetched before the fix existed.
func (p *Pipeline) Replay(ctx context.Context, prefix string) (*models.IngestRun, error) {
	if p.archive == nil {
		return nil, fmt.Errorf("archive not configured")
	}

	start := time.Now().UTC()
	run := &models.IngestRun{
		ID:        models.NewRunID(fmt.Sprintf("replay-%s-%d", prefix, start.UnixNano())),
		StartedAt: start,
	}

	slog.Info("replay starting", "run_id", run.ID, "prefix", prefix)

	meta, err := p.archive.GetMetadata(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("reading archive metadata: %w", err)
	}
	slog.Debug("archive metadata loaded", "host", meta.Host, "pages", meta.PageCount)

	ids, err := p.archive.ListPages(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing archived pages: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			run.Failed++
			run.Failures = append(run.Failures, models.Failure{
				Identifier: id, Stage: "fetch", Message: ctx.Err().Error(),
			})
			continue
		}

		body, err := p.archive.GetPage(ctx, prefix, id)
		if err != nil {
			run.Failed++
			run.Failures = append(run.Failures, models.Failure{
				Identifier: id, Stage: "fetch", Message: err.Error(),
			})
			continue
		}

		judge, err := p.parser.Parse(body, id, p.fetcher.JudgeURL(id))
		if err != nil {
			run.Failed++
			run.Failures = append(run.Failures, models.Failure{
				Identifier: id, Stage: "parse", Message: err.Error(),
			})
			continue
		}

		p.apply(ctx, run, *judge)
	}

	run.FinishedAt = time.Now().UTC()
	slog.Info("replay complete", "run_id", run.ID, "prefix", prefix, "summary", run.Summary())

	return run, nil
}
