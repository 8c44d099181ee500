// Package testutil holds small helpers shared by package tests.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/mimir/internal/docstore"
	"github.com/starford/mimir/internal/metastore"
)

// TestStore opens a throwaway SQLite metadata store in a temp directory and
// closes it when the test ends.
func TestStore(t *testing.T) *metastore.DB {
	t.Helper()
	db, err := metastore.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temp document root seeded with the given path->content
// files and returns an FS provider over it.
func TestVault(t *testing.T, files map[string]string) *docstore.FS {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	fs, err := docstore.NewFS(root)
	if err != nil {
		t.Fatalf("open test vault: %v", err)
	}
	return fs
}

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
