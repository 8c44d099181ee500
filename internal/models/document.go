// Package models defines the domain types for Mimir.
package models

// Classification labels form a closed set; no other value is valid for
// classification-index membership.
const (
	ClassMeeting   = "meeting"
	ClassIdea      = "idea"
	ClassReference = "reference"
	ClassJournal   = "journal"
	ClassProject   = "project"
)

// Classifications lists the valid labels in the order the classification
// index renders them.
var Classifications = []string{ClassMeeting, ClassIdea, ClassReference, ClassJournal, ClassProject}

// ValidClassification reports whether label is one of the five labels.
func ValidClassification(label string) bool {
	for _, c := range Classifications {
		if c == label {
			return true
		}
	}
	return false
}

// EntityTypes are the entity categories the oracle extracts.
var EntityTypes = []string{"people", "organizations", "concepts", "locations"}

// Entities maps an entity type to the names mentioned in a document.
// A nil map means extraction has never run for the document.
type Entities map[string][]string

// DocumentRecord is the primary record for an indexed document. The path is
// the only authoritative source of the document's current tags,
// classification, and entities; membership rows are derived from it.
type DocumentRecord struct {
	Path           string         `json:"path"`
	Title          string         `json:"title"`
	Tags           []string       `json:"tags"`
	Classification string         `json:"classification,omitempty"`
	Entities       Entities       `json:"entities,omitempty"`
	LinksTo        []string       `json:"links_to,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
	Checksum       string         `json:"checksum"`
	HasFrontmatter bool           `json:"has_frontmatter"`
	Created        string         `json:"created"`  // RFC 3339 UTC
	Modified       string         `json:"modified"` // RFC 3339 UTC, non-decreasing per path
}

// Mention is one entity back-reference row.
type Mention struct {
	EntityType   string `json:"entity_type"`
	EntityName   string `json:"entity_name"`
	DocumentPath string `json:"document_path"`
	Modified     string `json:"modified"`
}

// Artifact records a synthesized output (daily summary or weekly report).
// Keys follow the "summary:<date>" / "report:<week>" convention; regeneration
// for the same window overwrites the row rather than versioning it.
type Artifact struct {
	Key            string `json:"key"`
	Kind           string `json:"kind"`   // "summary" or "report"
	Period         string `json:"period"` // YYYY-MM-DD or YYYY-Www
	DocPath        string `json:"doc_path"`
	GeneratedAt    string `json:"generated_at"`
	SourceDocCount int    `json:"source_doc_count"`
}
