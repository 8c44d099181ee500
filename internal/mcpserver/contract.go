package mcpserver

// MetadataFormat describes the metadata conventions the index understands.
// LLM consumers should read it before interpreting query results.
const MetadataFormat = `# Mimir Metadata Format

Mimir indexes Markdown documents by their metadata. Every convention below is
optional; a document with none of them still gets indexed with defaults.

## Frontmatter

` + "```" + `markdown
---
title: Human-readable title        # falls back to first H1, then "Untitled"
tags: one, two                     # comma-separated string or YAML list
created: 2026-01-15                # ISO-8601 date or datetime
modified: 2026-01-15T10:00:00Z     # used for ordering and idempotency
---
` + "```" + `

Unknown frontmatter fields are preserved verbatim in the index record.
Invalid YAML does not fail indexing; the document is indexed from its body
alone.

## Inline metadata

- Tags: ` + "`" + `#tag-name` + "`" + ` anywhere in the body (letters, digits, hyphen, underscore).
  Inline and frontmatter tags merge; duplicates collapse.
- Wikilinks: ` + "`" + `[[other-doc]]` + "`" + ` or ` + "`" + `[[other-doc|alias]]` + "`" + `; the alias is ignored.

## Derived metadata

The content oracle adds, when available:

- ` + "`" + `classification` + "`" + `: exactly one of meeting, idea, reference, journal, project.
- ` + "`" + `entities` + "`" + `: names grouped into people, organizations, concepts, locations.
  Entity names match case-insensitively in queries.

## Generated documents

Everything under ` + "`" + `_generated/` + "`" + ` is system output (daily summaries, weekly
reports, entity pages, the classification index). Generated documents are
never re-indexed as input.
`
