// Package oracle wraps the external text-understanding service behind a
// narrow request/response contract: classification, entity extraction, and
// window synthesis.
package oracle

import (
	"context"

	"github.com/starford/mimir/internal/models"
)

// SourceDoc is one document handed to summary synthesis.
type SourceDoc struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DailySummary is a prior daily artifact fed into weekly synthesis.
type DailySummary struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// DocSummary is the per-document slice of a weekly window.
type DocSummary struct {
	Path           string   `json:"path"`
	Title          string   `json:"title"`
	Classification string   `json:"classification"`
	Tags           []string `json:"tags"`
}

// WindowData is the structured input for weekly report synthesis.
type WindowData struct {
	Week                 string         `json:"week"`
	StartDate            string         `json:"start_date"`
	EndDate              string         `json:"end_date"`
	DocumentCount        int            `json:"document_count"`
	DailySummaries       []DailySummary `json:"daily_summaries"`
	Documents            []DocSummary   `json:"documents"`
	ClassificationCounts map[string]int `json:"classification_counts"`
}

// Oracle is the content oracle contract. All operations are single
// request/response pairs with no session state; transient failures are
// retried internally with backoff, and a malformed response degrades (empty
// entity sets, default classification) rather than propagating.
type Oracle interface {
	// Classify returns one of the five classification labels for content.
	Classify(ctx context.Context, content string) (string, error)
	// ExtractEntities returns the named entities mentioned in content,
	// keyed by entity type. Every type key is present, possibly empty.
	ExtractEntities(ctx context.Context, content string) (models.Entities, error)
	// SynthesizeSummary produces free-form summary text for a day's documents.
	SynthesizeSummary(ctx context.Context, docs []SourceDoc) (string, error)
	// SynthesizeReport produces free-form weekly report text.
	SynthesizeReport(ctx context.Context, data WindowData) (string, error)
}
