package metastore

import (
	"errors"
	"os"
	"testing"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "mimir-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func doc(path, modified string) models.DocumentRecord {
	return models.DocumentRecord{
		Path:     path,
		Title:    "T " + path,
		Tags:     []string{"t1"},
		Created:  modified,
		Modified: modified,
	}
}

func TestPutAndGetDocument(t *testing.T) {
	db := testDB(t)
	rec := doc("a.md", "2026-01-05T10:00:00Z")
	rec.Classification = models.ClassMeeting
	rec.Entities = models.Entities{"people": {"Bob"}}
	rec.Extra = map[string]any{"project": "atlas"}

	if err := db.PutDocument(rec); err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	got, err := db.GetDocument("a.md")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Classification != models.ClassMeeting {
		t.Errorf("classification = %q", got.Classification)
	}
	if len(got.Entities["people"]) != 1 || got.Entities["people"][0] != "Bob" {
		t.Errorf("entities = %v", got.Entities)
	}
	if got.Extra["project"] != "atlas" {
		t.Errorf("extra = %v", got.Extra)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetDocument("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutDocument_Idempotent(t *testing.T) {
	db := testDB(t)
	rec := doc("i.md", "2026-01-05T10:00:00Z")
	if err := db.PutDocument(rec); err != nil {
		t.Fatal(err)
	}
	if err := db.PutDocument(rec); err != nil {
		t.Fatalf("repeat put: %v", err)
	}
	got, _ := db.GetDocument("i.md")
	if got.Modified != rec.Modified {
		t.Errorf("modified = %q", got.Modified)
	}
}

func TestPutDocumentIf_Conflict(t *testing.T) {
	db := testDB(t)
	rec := doc("c.md", "2026-01-05T10:00:00Z")

	if err := db.PutDocumentIf(rec, ""); err != nil {
		t.Fatalf("initial conditional insert: %v", err)
	}
	// Insert again with "must not exist" condition.
	if err := db.PutDocumentIf(rec, ""); !errors.Is(err, apperr.ErrConditionFailed) {
		t.Errorf("err = %v, want ErrConditionFailed", err)
	}
	// Update with a stale expected timestamp.
	next := doc("c.md", "2026-01-05T11:00:00Z")
	if err := db.PutDocumentIf(next, "2026-01-05T09:00:00Z"); !errors.Is(err, apperr.ErrConditionFailed) {
		t.Errorf("err = %v, want ErrConditionFailed", err)
	}
	// Update with the correct expectation.
	if err := db.PutDocumentIf(next, "2026-01-05T10:00:00Z"); err != nil {
		t.Fatalf("conditional update: %v", err)
	}
	got, _ := db.GetDocument("c.md")
	if got.Modified != "2026-01-05T11:00:00Z" {
		t.Errorf("modified = %q", got.Modified)
	}
}

func TestTagMembership(t *testing.T) {
	db := testDB(t)
	_ = db.PutTagMembership("design", "b.md", "2026-01-05T10:00:00Z")
	_ = db.PutTagMembership("design", "a.md", "2026-01-05T10:00:00Z")
	// Duplicate upsert must not create a second row.
	_ = db.PutTagMembership("design", "a.md", "2026-01-05T11:00:00Z")

	paths, err := db.QueryByTag("design")
	if err != nil {
		t.Fatalf("QueryByTag: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.md" || paths[1] != "b.md" {
		t.Errorf("paths = %v, want [a.md b.md]", paths)
	}
}

func TestQueryByClassification_OrderAndClosure(t *testing.T) {
	db := testDB(t)
	older := doc("old.md", "2026-01-05T10:00:00Z")
	older.Classification = models.ClassIdea
	newer := doc("new.md", "2026-01-06T10:00:00Z")
	newer.Classification = models.ClassIdea
	other := doc("other.md", "2026-01-07T10:00:00Z")
	other.Classification = models.ClassJournal
	for _, r := range []models.DocumentRecord{older, newer, other} {
		if err := db.PutDocument(r); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := db.QueryByClassification(models.ClassIdea)
	if err != nil {
		t.Fatalf("QueryByClassification: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Path != "new.md" || recs[1].Path != "old.md" {
		t.Errorf("order = [%s %s], want modified desc", recs[0].Path, recs[1].Path)
	}
	for _, r := range recs {
		if r.Classification != models.ClassIdea {
			t.Errorf("%s classification = %q", r.Path, r.Classification)
		}
	}
}

func TestEntityMentions(t *testing.T) {
	db := testDB(t)
	_ = db.PutEntityMention("people", "Bob", "x.md", "2026-01-05T10:00:00Z")
	_ = db.PutEntityMention("people", "bob", "y.md", "2026-01-05T10:00:00Z")
	_ = db.PutEntityMention("people", "Alice", "x.md", "2026-01-05T10:00:00Z")

	// Case-insensitive entity key collates Bob and bob together.
	paths, err := db.QueryByEntity("people", "Bob")
	if err != nil {
		t.Fatalf("QueryByEntity: %v", err)
	}
	if len(paths) != 2 || paths[0] != "x.md" || paths[1] != "y.md" {
		t.Errorf("paths = %v, want [x.md y.md]", paths)
	}

	mentions, err := db.Mentions("people", "bob")
	if err != nil {
		t.Fatalf("Mentions: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("mentions = %d, want 2", len(mentions))
	}
	if mentions[0].DocumentPath != "x.md" {
		t.Errorf("mention path = %q", mentions[0].DocumentPath)
	}
}

func TestScanModifiedSince(t *testing.T) {
	db := testDB(t)
	for _, r := range []models.DocumentRecord{
		doc("d1.md", "2026-01-04T23:59:59Z"),
		doc("d2.md", "2026-01-05T00:00:00Z"),
		doc("d3.md", "2026-01-05T12:00:00Z"),
	} {
		if err := db.PutDocument(r); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := db.ScanModifiedSince("2026-01-05T00:00:00Z", 100)
	if err != nil {
		t.Fatalf("ScanModifiedSince: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2 (lower bound inclusive)", len(recs))
	}
	if recs[0].Path != "d3.md" || recs[1].Path != "d2.md" {
		t.Errorf("order = [%s %s]", recs[0].Path, recs[1].Path)
	}
}

func TestArtifacts(t *testing.T) {
	db := testDB(t)
	a := models.Artifact{
		Key:            "summary:2026-01-05",
		Kind:           "summary",
		Period:         "2026-01-05",
		DocPath:        "_generated/summaries/2026-01-05.md",
		GeneratedAt:    "2026-01-06T06:00:00Z",
		SourceDocCount: 3,
	}
	if err := db.PutArtifact(a); err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}
	// Regeneration overwrites.
	a.SourceDocCount = 5
	if err := db.PutArtifact(a); err != nil {
		t.Fatalf("PutArtifact overwrite: %v", err)
	}
	got, err := db.GetArtifact("summary:2026-01-05")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if got.SourceDocCount != 5 {
		t.Errorf("source count = %d, want 5", got.SourceDocCount)
	}
	if _, err := db.GetArtifact("report:2026-W02"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
