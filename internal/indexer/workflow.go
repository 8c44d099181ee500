// Package indexer implements the per-document indexing workflow: parse,
// enrich through the content oracle, gate on staleness, and keep the primary
// record and its derived membership rows synchronized.
package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/backoff"
	"github.com/starford/mimir/internal/checksum"
	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/events"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/oracle"
	"github.com/starford/mimir/internal/parser"
)

// Status is the terminal state of one workflow invocation.
type Status string

const (
	StatusIndexed Status = "indexed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the explicit outcome of processing one document-changed event.
// The workflow never lets an error escape its entry point; failures are
// reported here.
type Result struct {
	Status          Status `json:"status"`
	Path            string `json:"path"`
	Reason          string `json:"reason,omitempty"`
	Title           string `json:"title,omitempty"`
	Classification  string `json:"classification,omitempty"`
	TagsWritten     int    `json:"tags_written"`
	EntitiesWritten int    `json:"entities_written"`
	Degraded        bool   `json:"degraded"`
}

// RegenKind selects which derived document to regenerate.
type RegenKind string

const (
	RegenClassificationIndex RegenKind = "classification-index"
	RegenEntityPage          RegenKind = "entity-page"
)

// RegenRequest asks the regeneration task to rebuild one derived document.
// Emitting these after a successful write keeps index regeneration decoupled
// from the per-document workflow.
type RegenRequest struct {
	Kind       RegenKind
	EntityType string
	EntityName string
}

const storeAttempts = 3

// Workflow processes document-changed events. Safe for concurrent use across
// different paths: it holds no mutable state, and same-path races are
// resolved by the staleness gate plus conditional writes.
type Workflow struct {
	store  metastore.Store
	docs   docstore.Provider
	oracle oracle.Oracle // nil disables enrichment
	emit   func(RegenRequest)
	logger *slog.Logger
	now    func() time.Time
}

// NewWorkflow creates an indexing workflow. orc may be nil (parse-only
// indexing); emit may be nil (no derived-document regeneration).
func NewWorkflow(store metastore.Store, docs docstore.Provider, orc oracle.Oracle, emit func(RegenRequest), logger *slog.Logger) *Workflow {
	return &Workflow{
		store:  store,
		docs:   docs,
		oracle: orc,
		emit:   emit,
		logger: logger,
		now:    time.Now,
	}
}

// ProcessDocument runs the indexing state machine for one event.
func (w *Workflow) ProcessDocument(ctx context.Context, ev events.DocumentChanged) Result {
	path := ev.Path

	// Skip check: non-documents and generated outputs terminate with a no-op.
	if !strings.HasSuffix(path, ".md") {
		return skipped(path, "not a markdown document")
	}
	if strings.HasPrefix(path, docstore.GeneratedPrefix) {
		return skipped(path, "generated output path")
	}
	if hiddenPath(path) {
		return skipped(path, "hidden path")
	}

	// Fetch. Empty content is a permanent failure for this event.
	data, err := w.docs.Get(path)
	if err != nil {
		return failed(path, fmt.Sprintf("read failed: %v", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return failed(path, "empty document")
	}

	md := parser.Parse(data)
	modified := w.resolveModified(md, ev, path)

	prior, err := w.getPrior(ctx, path)
	if err != nil {
		return failed(path, fmt.Sprintf("load prior record: %v", err))
	}

	sum := checksum.Sum(data)

	// Idempotency gate: never regress a record on stale or duplicate events.
	// An equal timestamp is re-processed only when it can add something
	// (changed bytes, or enrichment the stored record still lacks).
	if prior != nil {
		if prior.Modified > modified {
			return skipped(path, "stale event")
		}
		if prior.Modified == modified && prior.Checksum == sum && !w.canEnrich(prior) {
			return skipped(path, "already indexed")
		}
	}

	// Enrich. Oracle failures degrade: the specific enrichment is dropped
	// and whatever the stored record already knew is carried forward.
	classification, entities, degraded := w.enrich(ctx, data, prior)

	created := normalizeTimestamp(md.Created)
	if created == "" && prior != nil {
		created = prior.Created
	}
	if created == "" {
		created = modified
	}

	rec := models.DocumentRecord{
		Path:           path,
		Title:          md.Title,
		Tags:           md.Tags,
		Classification: classification,
		Entities:       entities,
		LinksTo:        md.LinksTo,
		Extra:          md.Extra,
		Checksum:       sum,
		HasFrontmatter: md.HasFrontmatter,
		Created:        created,
		Modified:       modified,
	}

	expected := ""
	if prior != nil {
		expected = prior.Modified
	}
	err = backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
		return w.store.PutDocumentIf(rec, expected)
	})
	if errors.Is(err, apperr.ErrConditionFailed) {
		// Not a fault: another writer advanced the record first.
		return skipped(path, "concurrent writer advanced the record")
	}
	if err != nil {
		return failed(path, fmt.Sprintf("write record: %v", err))
	}

	tagsWritten, entitiesWritten := w.reconcileMemberships(ctx, rec)

	w.emitRegeneration(rec, prior)

	w.logger.Info("indexed document",
		slog.String("path", path),
		slog.String("title", rec.Title),
		slog.String("classification", rec.Classification),
		slog.Int("tags", tagsWritten),
		slog.Int("entities", entitiesWritten),
		slog.Bool("degraded", degraded))

	return Result{
		Status:          StatusIndexed,
		Path:            path,
		Title:           rec.Title,
		Classification:  rec.Classification,
		TagsWritten:     tagsWritten,
		EntitiesWritten: entitiesWritten,
		Degraded:        degraded,
	}
}

// processQuiet runs the workflow for one path with a call-scoped emitter.
// The reindex pass uses it to batch regeneration instead of emitting each
// request through the shared channel.
func (w *Workflow) processQuiet(ctx context.Context, path string, modTime time.Time, emit func(RegenRequest)) Result {
	clone := *w
	clone.emit = emit
	return clone.ProcessDocument(ctx, events.DocumentChanged{Path: path, Modified: modTime})
}

// getPrior loads the stored record, retrying transient store failures.
// A missing record is returned as nil.
func (w *Workflow) getPrior(ctx context.Context, path string) (*models.DocumentRecord, error) {
	var prior *models.DocumentRecord
	err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
		rec, err := w.store.GetDocument(path)
		if err != nil {
			return err
		}
		prior = rec
		return nil
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return prior, err
}

// canEnrich reports whether an oracle pass could still add information the
// stored record lacks.
func (w *Workflow) canEnrich(prior *models.DocumentRecord) bool {
	if w.oracle == nil {
		return false
	}
	return prior.Classification == "" || prior.Entities == nil
}

// enrich runs oracle classification and entity extraction, carrying the
// prior record's values through any failure.
func (w *Workflow) enrich(ctx context.Context, data []byte, prior *models.DocumentRecord) (string, models.Entities, bool) {
	var classification string
	var entities models.Entities
	if prior != nil {
		classification = prior.Classification
		entities = prior.Entities
	}
	if w.oracle == nil {
		return classification, entities, false
	}

	degraded := false
	content := string(data)

	if label, err := w.oracle.Classify(ctx, content); err != nil {
		degraded = true
		w.logger.Warn("classification dropped", slog.String("error", err.Error()))
	} else {
		classification = label
	}

	if ents, err := w.oracle.ExtractEntities(ctx, content); err != nil {
		degraded = true
		w.logger.Warn("entity extraction dropped", slog.String("error", err.Error()))
	} else {
		entities = ents
	}

	return classification, entities, degraded
}

// reconcileMemberships upserts one membership row per current tag and one
// mention row per current entity. Rows for tags or entities a prior version
// carried but the current one does not are retained, not deleted; they are a
// known inconsistency window rather than an error.
func (w *Workflow) reconcileMemberships(ctx context.Context, rec models.DocumentRecord) (tags, entities int) {
	for _, tag := range rec.Tags {
		err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
			return w.store.PutTagMembership(tag, rec.Path, rec.Modified)
		})
		if err != nil {
			w.logger.Warn("tag membership write failed",
				slog.String("tag", tag), slog.String("path", rec.Path), slog.String("error", err.Error()))
			continue
		}
		tags++
	}

	for entityType, names := range rec.Entities {
		for _, name := range names {
			err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
				return w.store.PutEntityMention(entityType, name, rec.Path, rec.Modified)
			})
			if err != nil {
				w.logger.Warn("entity mention write failed",
					slog.String("entity", name), slog.String("path", rec.Path), slog.String("error", err.Error()))
				continue
			}
			entities++
		}
	}
	return tags, entities
}

// emitRegeneration requests derived-document rebuilds after a successful
// write: the classification index when the label changed, and the page of
// every entity the document currently mentions.
func (w *Workflow) emitRegeneration(rec models.DocumentRecord, prior *models.DocumentRecord) {
	if w.emit == nil {
		return
	}
	if rec.Classification != "" && (prior == nil || prior.Classification != rec.Classification) {
		w.emit(RegenRequest{Kind: RegenClassificationIndex})
	}
	for entityType, names := range rec.Entities {
		for _, name := range names {
			w.emit(RegenRequest{Kind: RegenEntityPage, EntityType: entityType, EntityName: name})
		}
	}
}

// resolveModified derives the event's modified timestamp: frontmatter first,
// then the event's observed mtime, then a fresh stat, then the wall clock.
func (w *Workflow) resolveModified(md *parser.Metadata, ev events.DocumentChanged, path string) string {
	if ts := normalizeTimestamp(md.Modified); ts != "" {
		return ts
	}
	if !ev.Modified.IsZero() {
		return ev.Modified.UTC().Format(time.RFC3339)
	}
	if info, err := w.docs.Stat(path); err == nil && !info.ModTime.IsZero() {
		return info.ModTime.UTC().Format(time.RFC3339)
	}
	return w.now().UTC().Format(time.RFC3339)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalizeTimestamp parses the common frontmatter timestamp shapes into
// RFC 3339 UTC. Unparseable input yields "".
func normalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}

// hiddenPath reports whether any path segment is dot-prefixed (editor and
// sync bookkeeping directories).
func hiddenPath(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func skipped(path, reason string) Result {
	return Result{Status: StatusSkipped, Path: path, Reason: reason}
}

func failed(path, reason string) Result {
	return Result{Status: StatusFailed, Path: path, Reason: reason}
}
