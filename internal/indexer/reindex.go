package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultReindexWorkers = 4

// ReindexStats summarizes one full-corpus pass.
type ReindexStats struct {
	Indexed int
	Skipped int
	Failed  int
}

// Reindexer walks the whole corpus through the workflow and then rebuilds
// every derived document once, instead of once per source document.
type Reindexer struct {
	workflow *Workflow
	regen    *Regenerator
	logger   *slog.Logger
	workers  int
}

func NewReindexer(workflow *Workflow, regen *Regenerator, logger *slog.Logger) *Reindexer {
	return &Reindexer{workflow: workflow, regen: regen, logger: logger, workers: defaultReindexWorkers}
}

// Run lists every markdown document, processes each through the workflow
// with bounded concurrency, and finishes with a single regeneration sweep.
// Per-document failures are counted, not fatal.
func (r *Reindexer) Run(ctx context.Context) (ReindexStats, error) {
	objects, err := r.workflow.docs.List("")
	if err != nil {
		return ReindexStats{}, fmt.Errorf("list corpus: %w", err)
	}

	var (
		mu      sync.Mutex
		stats   ReindexStats
		touched = map[string]RegenRequest{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, obj := range objects {
		if strings.HasPrefix(obj.Path, "_") {
			continue
		}
		g.Go(func() error {
			res := r.workflow.processQuiet(gctx, obj.Path, obj.ModTime, func(req RegenRequest) {
				mu.Lock()
				touched[regenKey(req)] = req
				mu.Unlock()
			})
			mu.Lock()
			switch res.Status {
			case StatusIndexed:
				stats.Indexed++
			case StatusSkipped:
				stats.Skipped++
			case StatusFailed:
				stats.Failed++
				r.logger.Warn("reindex document failed",
					slog.String("path", res.Path), slog.String("reason", res.Reason))
			}
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	if err := r.regen.RebuildClassificationIndex(ctx); err != nil {
		r.logger.Warn("classification index rebuild failed", slog.String("error", err.Error()))
	}
	for _, req := range touched {
		if req.Kind != RegenEntityPage {
			continue
		}
		if err := r.regen.Handle(ctx, req); err != nil {
			r.logger.Warn("entity page rebuild failed",
				slog.String("entity", req.EntityName), slog.String("error", err.Error()))
		}
	}

	r.logger.Info("reindex complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

func regenKey(req RegenRequest) string {
	return string(req.Kind) + ":" + req.EntityType + ":" + strings.ToLower(req.EntityName)
}
