package artifact

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/mimir/internal/models"
)

var testNow = time.Date(2026, 1, 6, 6, 0, 0, 0, time.UTC)

func TestSummaryDocument(t *testing.T) {
	doc := SummaryDocument("2026-01-05", "You worked on the parser.", []string{"notes/a.md", "notes/b.md"}, testNow)

	if !strings.HasPrefix(doc, "---\n") {
		t.Error("missing frontmatter open")
	}
	for _, want := range []string{
		"agent: summarization",
		"period: daily",
		"source_docs: 2",
		"# Daily Summary - 2026-01-05",
		"- [[notes/a.md]]",
		"- [[notes/b.md]]",
		"You worked on the parser.",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestReportDocument(t *testing.T) {
	doc := ReportDocument("2026-W02", "A busy week.", 7, testNow)
	for _, want := range []string{
		"agent: reporting",
		"week: 2026-W02",
		"source_docs: 7",
		"# Weekly Report - 2026-W02",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestEntityPage(t *testing.T) {
	mentions := []models.Mention{
		{EntityType: "people", EntityName: "Bob", DocumentPath: "notes/sync.md"},
	}
	doc := EntityPage("Bob", "people", mentions, testNow)
	for _, want := range []string{
		"type: people",
		"# Bob",
		"- [[notes/sync.md]] - Mentioned in notes/sync.md",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestClassificationIndex_OrderAndOmission(t *testing.T) {
	buckets := map[string][]string{
		models.ClassMeeting: {"b.md", "a.md"},
		models.ClassProject: {"p.md"},
	}
	doc := ClassificationIndex(buckets, testNow)

	meeting := strings.Index(doc, "## Meeting")
	project := strings.Index(doc, "## Project")
	if meeting < 0 || project < 0 {
		t.Fatalf("missing sections:\n%s", doc)
	}
	if meeting > project {
		t.Error("meeting section must precede project")
	}
	if strings.Contains(doc, "## Idea") {
		t.Error("empty buckets must be omitted")
	}
	// Paths sorted within a section.
	if strings.Index(doc, "[[a.md]]") > strings.Index(doc, "[[b.md]]") {
		t.Error("paths not sorted")
	}
}

func TestPaths(t *testing.T) {
	if got := SummaryPath("2026-01-05"); got != "_generated/summaries/2026-01-05.md" {
		t.Errorf("SummaryPath = %q", got)
	}
	if got := ReportPath("2026-W02"); got != "_generated/reports/weekly/2026-W02.md" {
		t.Errorf("ReportPath = %q", got)
	}
	if got := EntityPagePath("people", "Ada Lovelace"); got != "_generated/entities/people/ada-lovelace.md" {
		t.Errorf("EntityPagePath = %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":   "ada-lovelace",
		"C++ (lang)":     "c-lang",
		"--trim--":       "trim",
		"file.name_v2":   "file.name_v2",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
