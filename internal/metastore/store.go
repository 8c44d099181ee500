package metastore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

// Store defines the metadata store operations. Consumers should depend on
// this interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	PutDocument(rec models.DocumentRecord) error
	PutDocumentIf(rec models.DocumentRecord, expectedModified string) error
	GetDocument(path string) (*models.DocumentRecord, error)
	PutTagMembership(tag, path, modified string) error
	PutEntityMention(entityType, entityName, path, modified string) error
	QueryByTag(tag string) ([]string, error)
	QueryByClassification(label string) ([]models.DocumentRecord, error)
	QueryByEntity(entityType, entityName string) ([]string, error)
	Mentions(entityType, entityName string) ([]models.Mention, error)
	ScanModifiedSince(since string, limit int) ([]models.DocumentRecord, error)
	PutArtifact(a models.Artifact) error
	GetArtifact(key string) (*models.Artifact, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// EntityKey builds the canonical key for an entity: "entity:<type>:<name>",
// name lowercased so mentions of the same entity collate together.
func EntityKey(entityType, entityName string) string {
	return "entity:" + entityType + ":" + strings.ToLower(entityName)
}

// storeErr wraps err with the failing operation and maps SQLite busy/locked
// conditions onto the shared transient sentinels so callers can retry.
func storeErr(op string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("metastore: %s: %w: %w", op, apperr.ErrThrottled, err)
		case sqlite3.ErrCantOpen, sqlite3.ErrIoErr:
			return fmt.Errorf("metastore: %s: %w: %w", op, apperr.ErrUnavailable, err)
		}
	}
	return fmt.Errorf("metastore: %s: %w", op, err)
}
