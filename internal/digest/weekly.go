package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/artifact"
	"github.com/starford/mimir/internal/backoff"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/oracle"
)

// RunWeekly synthesizes the weekly report for the ISO week containing
// target. It folds in the week's daily summary artifacts where they exist;
// a missing daily summary narrows the input rather than failing the run.
func (e *Engine) RunWeekly(ctx context.Context, target time.Time) (Outcome, error) {
	if e.oracle == nil {
		return Outcome{}, errors.New("digest: no oracle configured")
	}
	w := WeeklyWindow(target)

	recs, err := e.windowCandidates(ctx, w, maxWeeklyCandidates)
	if err != nil {
		return Outcome{Window: w.Label}, err
	}
	dailies := e.collectDailySummaries(ctx, w)

	if len(recs) == 0 && len(dailies) == 0 {
		e.logger.Info("no activity in window", slog.String("window", w.Label))
		return Outcome{Window: w.Label}, nil
	}

	counts := map[string]int{}
	docs := make([]oracle.DocSummary, len(recs))
	for i, rec := range recs {
		docs[i] = oracle.DocSummary{
			Path:           rec.Path,
			Title:          rec.Title,
			Classification: rec.Classification,
			Tags:           rec.Tags,
		}
		if rec.Classification != "" {
			counts[rec.Classification]++
		}
	}

	data := oracle.WindowData{
		Week:                 w.Label,
		StartDate:            w.Start.Format("2006-01-02"),
		EndDate:              w.End.AddDate(0, 0, -1).Format("2006-01-02"),
		DocumentCount:        len(recs),
		DailySummaries:       dailies,
		Documents:            docs,
		ClassificationCounts: counts,
	}

	report, err := e.oracle.SynthesizeReport(ctx, data)
	if err != nil {
		return Outcome{Window: w.Label}, fmt.Errorf("digest: synthesize %s: %w", w.Label, err)
	}

	path := artifact.ReportPath(w.Label)
	body := artifact.ReportDocument(w.Label, report, len(recs), e.now())
	if err := e.docs.Put(path, []byte(body)); err != nil {
		return Outcome{Window: w.Label}, fmt.Errorf("digest: write %s: %w", path, err)
	}

	if err := e.putArtifact(ctx, models.Artifact{
		Key:            "report:" + w.Label,
		Kind:           "report",
		Period:         w.Label,
		DocPath:        path,
		GeneratedAt:    e.now().UTC().Format(time.RFC3339),
		SourceDocCount: len(recs),
	}); err != nil {
		return Outcome{Window: w.Label}, err
	}

	e.logger.Info("weekly report generated",
		slog.String("window", w.Label), slog.String("path", path),
		slog.Int("source_docs", len(recs)), slog.Int("daily_summaries", len(dailies)))
	return Outcome{Generated: true, Window: w.Label, Path: path, SourceDocs: len(recs)}, nil
}

// collectDailySummaries loads the daily summary artifact for each day of the
// week that has one. Unreadable artifact documents are dropped with a
// warning.
func (e *Engine) collectDailySummaries(ctx context.Context, w Window) []oracle.DailySummary {
	var out []oracle.DailySummary
	for _, day := range w.Days() {
		var art *models.Artifact
		err := backoff.Retry(ctx, storeAttempts, apperr.Transient, func() error {
			var serr error
			art, serr = e.store.GetArtifact("summary:" + day)
			return serr
		})
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			e.logger.Warn("daily summary lookup failed",
				slog.String("day", day), slog.String("error", err.Error()))
			continue
		}
		data, err := e.docs.Get(art.DocPath)
		if err != nil {
			e.logger.Warn("daily summary document unreadable",
				slog.String("path", art.DocPath), slog.String("error", err.Error()))
			continue
		}
		out = append(out, oracle.DailySummary{
			Date:    day,
			Content: truncate(string(data), maxContentChars),
		})
	}
	return out
}
