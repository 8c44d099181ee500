package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/artifact"
	"github.com/starford/mimir/internal/backoff"
	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/models"
)

// Regenerator rebuilds derived documents from the metadata store. It is the
// consumer side of the workflow's RegenRequest emissions and is also driven
// directly by the reindex pass.
type Regenerator struct {
	store  metastore.Store
	docs   docstore.Provider
	logger *slog.Logger
	now    func() time.Time
}

func NewRegenerator(store metastore.Store, docs docstore.Provider, logger *slog.Logger) *Regenerator {
	return &Regenerator{store: store, docs: docs, logger: logger, now: time.Now}
}

// Run consumes regeneration requests until the channel closes or the context
// ends. Failures are logged and dropped; a failed rebuild is retried the
// next time the same request is emitted.
func (r *Regenerator) Run(ctx context.Context, requests <-chan RegenRequest) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			if err := r.Handle(ctx, req); err != nil {
				r.logger.Warn("regeneration failed",
					slog.String("kind", string(req.Kind)),
					slog.String("entity", req.EntityName),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Handle rebuilds the derived document named by one request.
func (r *Regenerator) Handle(ctx context.Context, req RegenRequest) error {
	switch req.Kind {
	case RegenClassificationIndex:
		return r.RebuildClassificationIndex(ctx)
	case RegenEntityPage:
		return r.RebuildEntityPage(ctx, req.EntityType, req.EntityName)
	default:
		return fmt.Errorf("unknown regeneration kind %q", req.Kind)
	}
}

// RebuildClassificationIndex queries every label's bucket and rewrites the
// full classification index document.
func (r *Regenerator) RebuildClassificationIndex(ctx context.Context) error {
	buckets := make(map[string][]string, len(models.Classifications))
	for _, label := range models.Classifications {
		var recs []models.DocumentRecord
		err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
			var qerr error
			recs, qerr = r.store.QueryByClassification(label)
			return qerr
		})
		if err != nil {
			return fmt.Errorf("query classification %q: %w", label, err)
		}
		paths := make([]string, len(recs))
		for i, rec := range recs {
			paths[i] = rec.Path
		}
		buckets[label] = paths
	}

	body := artifact.ClassificationIndex(buckets, r.now().UTC())
	path := artifact.ClassificationIndexPath()
	if err := r.docs.Put(path, []byte(body)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	r.logger.Info("rebuilt classification index", slog.String("path", path))
	return nil
}

// RebuildEntityPage rewrites the page for one entity from its current
// mention rows.
func (r *Regenerator) RebuildEntityPage(ctx context.Context, entityType, name string) error {
	var mentions []models.Mention
	err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
		var qerr error
		mentions, qerr = r.store.Mentions(entityType, name)
		return qerr
	})
	if err != nil {
		return fmt.Errorf("query entity %s/%s: %w", entityType, name, err)
	}
	sort.Slice(mentions, func(i, j int) bool {
		return mentions[i].DocumentPath < mentions[j].DocumentPath
	})

	body := artifact.EntityPage(name, entityType, mentions, r.now().UTC())
	path := artifact.EntityPagePath(entityType, name)
	if err := r.docs.Put(path, []byte(body)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	r.logger.Info("rebuilt entity page",
		slog.String("entity", name), slog.String("type", entityType), slog.String("path", path))
	return nil
}
