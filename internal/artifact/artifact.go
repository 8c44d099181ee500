// Package artifact renders the derived markdown documents this system
// writes: daily summaries, weekly reports, entity pages, and the
// classification index. Every artifact lives under the reserved generated
// prefix and carries a small structured frontmatter header.
package artifact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/models"
)

var filenameRe = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SummaryPath returns the artifact path for a daily summary.
func SummaryPath(date string) string {
	return docstore.GeneratedPrefix + "summaries/" + date + ".md"
}

// ReportPath returns the artifact path for a weekly report.
func ReportPath(week string) string {
	return docstore.GeneratedPrefix + "reports/weekly/" + week + ".md"
}

// EntityPagePath returns the artifact path for an entity page.
func EntityPagePath(entityType, entityName string) string {
	return docstore.GeneratedPrefix + "entities/" + entityType + "/" + SanitizeFilename(entityName) + ".md"
}

// ClassificationIndexPath is the single classification index artifact.
func ClassificationIndexPath() string {
	return docstore.GeneratedPrefix + "classifications/index.md"
}

// SanitizeFilename lowercases name and strips characters unsafe in a path
// segment, replacing spaces with hyphens.
func SanitizeFilename(name string) string {
	s := strings.ReplaceAll(name, " ", "-")
	s = filenameRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	return strings.Trim(s, "-")
}

type summaryHeader struct {
	Generated  string   `yaml:"generated"`
	Agent      string   `yaml:"agent"`
	Period     string   `yaml:"period"`
	SourceDocs int      `yaml:"source_docs"`
	Tags       []string `yaml:"tags"`
}

// SummaryDocument renders a daily summary artifact with provenance header
// and source document links.
func SummaryDocument(date, summary string, sourcePaths []string, now time.Time) string {
	header := summaryHeader{
		Generated:  now.UTC().Format(time.RFC3339),
		Agent:      "summarization",
		Period:     "daily",
		SourceDocs: len(sourcePaths),
		Tags:       []string{"agent-generated", "summary"},
	}

	var links strings.Builder
	for _, p := range sourcePaths {
		fmt.Fprintf(&links, "- [[%s]]\n", p)
	}

	return fmt.Sprintf("%s\n# Daily Summary - %s\n\n%s\n\n## Source Documents\n%s",
		frontmatter(header), date, summary, links.String())
}

type reportHeader struct {
	Generated  string   `yaml:"generated"`
	Agent      string   `yaml:"agent"`
	Period     string   `yaml:"period"`
	Week       string   `yaml:"week"`
	SourceDocs int      `yaml:"source_docs"`
	Tags       []string `yaml:"tags"`
}

// ReportDocument renders a weekly report artifact.
func ReportDocument(week, report string, sourceCount int, now time.Time) string {
	header := reportHeader{
		Generated:  now.UTC().Format(time.RFC3339),
		Agent:      "reporting",
		Period:     "weekly",
		Week:       week,
		SourceDocs: sourceCount,
		Tags:       []string{"agent-generated", "weekly-report"},
	}
	return fmt.Sprintf("%s\n# Weekly Report - %s\n\n%s\n", frontmatter(header), week, report)
}

type entityHeader struct {
	Type        string   `yaml:"type"`
	MentionedIn []string `yaml:"mentioned_in"`
	LastUpdated string   `yaml:"last_updated"`
}

// EntityPage renders an entity page from its current mention set. The
// per-mention context is a placeholder string; real surrounding text is not
// stored for mentions.
func EntityPage(entityName, entityType string, mentions []models.Mention, now time.Time) string {
	paths := make([]string, len(mentions))
	for i, m := range mentions {
		paths[i] = m.DocumentPath
	}
	header := entityHeader{
		Type:        entityType,
		MentionedIn: paths,
		LastUpdated: now.UTC().Format(time.RFC3339),
	}

	var body strings.Builder
	for _, m := range mentions {
		fmt.Fprintf(&body, "- [[%s]] - Mentioned in %s\n", m.DocumentPath, m.DocumentPath)
	}

	return fmt.Sprintf("%s\n# %s\n\n## Mentions\n%s", frontmatter(header), entityName, body.String())
}

type indexHeader struct {
	Generated string   `yaml:"generated"`
	Tags      []string `yaml:"tags"`
}

// ClassificationIndex renders the classification index: one section per
// label in canonical order, each listing its document paths sorted.
func ClassificationIndex(buckets map[string][]string, now time.Time) string {
	header := indexHeader{
		Generated: now.UTC().Format(time.RFC3339),
		Tags:      []string{"index", "agent-generated"},
	}

	var sections []string
	for _, label := range models.Classifications {
		docs := buckets[label]
		if len(docs) == 0 {
			continue
		}
		sorted := append([]string(nil), docs...)
		sort.Strings(sorted)
		var links strings.Builder
		for _, p := range sorted {
			fmt.Fprintf(&links, "- [[%s]]\n", p)
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", capitalize(label), links.String()))
	}

	return fmt.Sprintf("%s\n# Document Classifications\n\n%s",
		frontmatter(header), strings.Join(sections, "\n"))
}

// frontmatter renders v as a `---`-delimited YAML block.
func frontmatter(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		// Header structs marshal unconditionally; this is unreachable.
		return "---\n---\n"
	}
	return "---\n" + string(out) + "---\n"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
