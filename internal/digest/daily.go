package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/artifact"
	"github.com/starford/mimir/internal/backoff"
	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/metastore"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/oracle"
)

const (
	maxDailyCandidates  = 20
	maxWeeklyCandidates = 30
	maxContentChars     = 2000
	windowScanLimit     = 512
	storeAttempts       = 3
)

// Engine runs window synthesis. It reads candidates from the metadata store,
// synthesizes through the oracle, and writes both the artifact document and
// its tracking row.
type Engine struct {
	store  metastore.Store
	docs   docstore.Provider
	oracle oracle.Oracle
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(store metastore.Store, docs docstore.Provider, orc oracle.Oracle, logger *slog.Logger) *Engine {
	return &Engine{store: store, docs: docs, oracle: orc, logger: logger, now: time.Now}
}

// Outcome reports what a synthesis run produced. Generated is false when the
// window held nothing to synthesize; that is a normal result, not an error.
type Outcome struct {
	Generated  bool   `json:"generated"`
	Window     string `json:"window"`
	Path       string `json:"path,omitempty"`
	SourceDocs int    `json:"source_docs"`
}

// RunDaily synthesizes the daily summary for the calendar day containing
// target. Regenerating an existing window overwrites its artifact.
func (e *Engine) RunDaily(ctx context.Context, target time.Time) (Outcome, error) {
	if e.oracle == nil {
		return Outcome{}, errors.New("digest: no oracle configured")
	}
	w := DailyWindow(target)

	recs, err := e.windowCandidates(ctx, w, maxDailyCandidates)
	if err != nil {
		return Outcome{Window: w.Label}, err
	}
	if len(recs) == 0 {
		e.logger.Info("no documents in window", slog.String("window", w.Label))
		return Outcome{Window: w.Label}, nil
	}

	var sources []oracle.SourceDoc
	var paths []string
	for _, rec := range recs {
		data, err := e.docs.Get(rec.Path)
		if err != nil {
			e.logger.Warn("source document unreadable, dropped from window",
				slog.String("path", rec.Path), slog.String("error", err.Error()))
			continue
		}
		sources = append(sources, oracle.SourceDoc{
			Path:    rec.Path,
			Title:   rec.Title,
			Content: truncate(string(data), maxContentChars),
		})
		paths = append(paths, rec.Path)
	}
	if len(sources) == 0 {
		e.logger.Info("no readable documents in window", slog.String("window", w.Label))
		return Outcome{Window: w.Label}, nil
	}

	summary, err := e.oracle.SynthesizeSummary(ctx, sources)
	if err != nil {
		return Outcome{Window: w.Label}, fmt.Errorf("digest: synthesize %s: %w", w.Label, err)
	}

	path := artifact.SummaryPath(w.Label)
	body := artifact.SummaryDocument(w.Label, summary, paths, e.now())
	if err := e.docs.Put(path, []byte(body)); err != nil {
		return Outcome{Window: w.Label}, fmt.Errorf("digest: write %s: %w", path, err)
	}

	if err := e.putArtifact(ctx, models.Artifact{
		Key:            "summary:" + w.Label,
		Kind:           "summary",
		Period:         w.Label,
		DocPath:        path,
		GeneratedAt:    e.now().UTC().Format(time.RFC3339),
		SourceDocCount: len(sources),
	}); err != nil {
		return Outcome{Window: w.Label}, err
	}

	e.logger.Info("daily summary generated",
		slog.String("window", w.Label), slog.String("path", path), slog.Int("source_docs", len(sources)))
	return Outcome{Generated: true, Window: w.Label, Path: path, SourceDocs: len(sources)}, nil
}

// windowCandidates returns the documents modified inside w, oldest first,
// capped at limit. Generated artifacts never count as sources.
//
// The scan is newest-first with only a lower bound, so when a backfilled
// window sits behind more recent activity its candidates are the tail of the
// result set. A scan that fills its limit may have truncated that tail;
// rescan with a doubled limit until the scan comes back short.
func (e *Engine) windowCandidates(ctx context.Context, w Window, limit int) ([]models.DocumentRecord, error) {
	var recs []models.DocumentRecord
	scanLimit := windowScanLimit
	for {
		err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
			var serr error
			recs, serr = e.store.ScanModifiedSince(w.StartString(), scanLimit)
			return serr
		})
		if err != nil {
			return nil, fmt.Errorf("digest: scan window %s: %w", w.Label, err)
		}
		if len(recs) < scanLimit {
			break
		}
		scanLimit *= 2
	}

	var out []models.DocumentRecord
	for _, rec := range recs {
		if strings.HasPrefix(rec.Path, docstore.GeneratedPrefix) {
			continue
		}
		if !w.Contains(rec.Modified) {
			continue
		}
		out = append(out, rec)
	}
	// Scan order is newest first; present the window chronologically.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (e *Engine) putArtifact(ctx context.Context, a models.Artifact) error {
	err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
		return e.store.PutArtifact(a)
	})
	if err != nil {
		return fmt.Errorf("digest: record artifact %s: %w", a.Key, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary so the cut never emits invalid UTF-8.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
