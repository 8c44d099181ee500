// Package parser extracts frontmatter, wikilinks, and tags from Markdown content.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]*)?\]\]`)
	tagRe      = regexp.MustCompile(`(?m)(?:^|\s)#([a-zA-Z0-9_-]+)`)
	h1Re       = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// UntitledTitle is used when neither frontmatter nor an H1 provides a title.
const UntitledTitle = "Untitled"

// Reserved frontmatter fields consumed into dedicated Metadata fields; all
// other fields pass through in Extra.
var reservedFields = map[string]struct{}{
	"title": {}, "tags": {}, "date": {}, "created": {}, "modified": {},
}

// Metadata holds the output of parsing a Markdown document.
type Metadata struct {
	Title          string
	Tags           []string
	LinksTo        []string
	HasFrontmatter bool
	Date           string
	Created        string
	Modified       string
	Extra          map[string]any
	Body           string
}

// Parse extracts metadata from raw Markdown bytes. It is total: malformed
// input degrades (frontmatter dropped, body kept) rather than failing.
func Parse(data []byte) *Metadata {
	fm, body := splitFrontmatter(data)

	md := &Metadata{
		Title:          deriveTitle(fm, body),
		Tags:           extractTags(body, fm),
		LinksTo:        extractLinks(body),
		HasFrontmatter: fm != nil,
		Body:           body,
	}

	if fm != nil {
		if v, ok := fm["date"]; ok {
			md.Date = timestampString(v)
		}
		if v, ok := fm["created"]; ok {
			md.Created = timestampString(v)
		}
		if v, ok := fm["modified"]; ok {
			md.Modified = timestampString(v)
		}
		for k, v := range fm {
			if _, reserved := reservedFields[k]; reserved {
				continue
			}
			if md.Extra == nil {
				md.Extra = make(map[string]any)
			}
			md.Extra[k] = v
		}
	}

	return md
}

// timestampString renders a frontmatter temporal value as a string. yaml.v3
// resolves unquoted dates and timestamps into time.Time, whose default String
// form is not lexically comparable; normalise those to RFC 3339 UTC.
func timestampString(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. A nil map means no well-formed frontmatter block was
// present; invalid YAML degrades to "no frontmatter" with the full content as
// body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"

	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, string(data)
	}

	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	if fm == nil {
		// Empty but well-formed block.
		fm = map[string]any{}
	}
	return fm, body
}

// extractLinks returns deduplicated wikilink targets, dropping display text.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects the union of frontmatter tags and inline #tags.
// Frontmatter tags may be a YAML list (flattened to strings) or a single
// comma-separated string.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if fm != nil {
		switch v := fm["tags"].(type) {
		case []any:
			for _, item := range v {
				add(fmt.Sprint(item))
			}
		case string:
			for _, part := range strings.Split(v, ",") {
				add(part)
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present and non-empty,
// otherwise the first H1 heading, otherwise UntitledTitle.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if v, ok := fm["title"]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	if m := h1Re.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return UntitledTitle
}
