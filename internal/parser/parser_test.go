package parser

import (
	"sort"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - mimir\n---\n# Hello\nBody text.\n")
	md := Parse(input)
	if md.Title != "Hello" {
		t.Errorf("title = %q, want %q", md.Title, "Hello")
	}
	if !md.HasFrontmatter {
		t.Error("expected HasFrontmatter")
	}
	if len(md.Tags) != 2 || md.Tags[0] != "go" || md.Tags[1] != "mimir" {
		t.Errorf("tags = %v, want [go mimir]", md.Tags)
	}
	if md.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", md.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	md := Parse([]byte("# Just a heading\nSome text.\n"))
	if md.HasFrontmatter {
		t.Error("expected HasFrontmatter=false")
	}
	if md.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", md.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	md := Parse(input)
	if md.HasFrontmatter {
		t.Error("expected HasFrontmatter=false on invalid YAML")
	}
	if md.Body != string(input) {
		t.Errorf("body should be the full input on invalid YAML, got %q", md.Body)
	}
}

func TestParse_Totality(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("---"),
		[]byte("---\nunclosed frontmatter"),
		{0xff, 0xfe, 0x00, '#', 'x'},
		[]byte("---\n---\n"),
	}
	for _, in := range inputs {
		md := Parse(in)
		if md == nil {
			t.Fatalf("Parse(%q) returned nil", in)
		}
	}
	if Parse([]byte("")).Title != UntitledTitle {
		t.Errorf("empty input should default title to %q", UntitledTitle)
	}
	if Parse([]byte("---\nunclosed")).HasFrontmatter {
		t.Error("unclosed delimiter must not count as frontmatter")
	}
}

func TestParse_TagRoundTrip(t *testing.T) {
	input := []byte("---\ntags:\n  - a\n  - b\n---\nbody with #c here\n")
	md := Parse(input)
	got := append([]string(nil), md.Tags...)
	sort.Strings(got)
	want := []string{"a", "b", "c"}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("tags = %v, want %v as a set", md.Tags, want)
	}
}

func TestParse_CommaSeparatedTags(t *testing.T) {
	md := Parse([]byte("---\ntags: alpha, beta,gamma\n---\nbody\n"))
	if len(md.Tags) != 3 || md.Tags[0] != "alpha" || md.Tags[1] != "beta" || md.Tags[2] != "gamma" {
		t.Errorf("tags = %v, want [alpha beta gamma]", md.Tags)
	}
}

func TestParse_ExampleScenario(t *testing.T) {
	md := Parse([]byte("---\ntitle: \"Sync\"\n---\nMet #design with [[Bob]]\n"))
	if md.Title != "Sync" {
		t.Errorf("title = %q, want Sync", md.Title)
	}
	if len(md.Tags) != 1 || md.Tags[0] != "design" {
		t.Errorf("tags = %v, want [design]", md.Tags)
	}
	if len(md.LinksTo) != 1 || md.LinksTo[0] != "Bob" {
		t.Errorf("links = %v, want [Bob]", md.LinksTo)
	}
}

func TestParse_ExtraFieldsPassThrough(t *testing.T) {
	input := []byte("---\ntitle: T\ncreated: 2026-01-05\nproject: atlas\npriority: 2\n---\nbody\n")
	md := Parse(input)
	if md.Created != "2026-01-05T00:00:00Z" {
		t.Errorf("created = %q", md.Created)
	}
	if md.Extra["project"] != "atlas" {
		t.Errorf("extra project = %v", md.Extra["project"])
	}
	if _, ok := md.Extra["title"]; ok {
		t.Error("title must not appear in Extra")
	}
	if _, ok := md.Extra["created"]; ok {
		t.Error("created must not appear in Extra")
	}
}

func TestParse_UnquotedYAMLTimestamps(t *testing.T) {
	// yaml.v3 decodes bare dates and timestamps into time.Time; the string
	// form must stay RFC 3339 so downstream lexical comparisons hold.
	cases := []struct {
		in   string
		want string
	}{
		{"modified: 2026-03-01T00:00:00Z", "2026-03-01T00:00:00Z"},
		{"modified: 2026-03-01T09:30:00+02:00", "2026-03-01T07:30:00Z"},
		{"modified: 2026-03-01", "2026-03-01T00:00:00Z"},
		{"modified: \"2026-03-01T00:00:00Z\"", "2026-03-01T00:00:00Z"},
	}
	for _, tc := range cases {
		md := Parse([]byte("---\n" + tc.in + "\n---\nbody\n"))
		if md.Modified != tc.want {
			t.Errorf("%q: modified = %q, want %q", tc.in, md.Modified, tc.want)
		}
	}
}

func TestExtractLinks_AliasAndDedup(t *testing.T) {
	links := extractLinks("See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again.")
	if len(links) != 2 || links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v, want [Note A, Note B]", links)
	}
}

func TestExtractTags_InlineBoundary(t *testing.T) {
	tags := extractTags("#start mid#notatag and #ok\n#newline", nil)
	if len(tags) != 3 || tags[0] != "start" || tags[1] != "ok" || tags[2] != "newline" {
		t.Errorf("tags = %v, want [start ok newline]", tags)
	}
}

func TestDeriveTitle_Fallbacks(t *testing.T) {
	if got := deriveTitle(map[string]any{"title": "FM"}, "# H1\n"); got != "FM" {
		t.Errorf("title = %q, want FM", got)
	}
	if got := deriveTitle(nil, "text\n# My Heading\nmore"); got != "My Heading" {
		t.Errorf("title = %q, want My Heading", got)
	}
	if got := deriveTitle(nil, "no headings"); got != UntitledTitle {
		t.Errorf("title = %q, want %q", got, UntitledTitle)
	}
}
