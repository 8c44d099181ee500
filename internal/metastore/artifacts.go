package metastore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

// PutArtifact upserts a derived artifact record. Re-running a window
// overwrites the prior row; artifacts are never versioned.
func (db *DB) PutArtifact(a models.Artifact) error {
	_, err := db.conn.Exec(`
		INSERT INTO artifacts (key, kind, period, doc_path, generated_at, source_doc_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind             = excluded.kind,
			period           = excluded.period,
			doc_path         = excluded.doc_path,
			generated_at     = excluded.generated_at,
			source_doc_count = excluded.source_doc_count
	`, a.Key, a.Kind, a.Period, a.DocPath, a.GeneratedAt, a.SourceDocCount)
	if err != nil {
		return storeErr("put artifact", err)
	}
	return nil
}

// GetArtifact returns the artifact record for key, or apperr.ErrNotFound.
func (db *DB) GetArtifact(key string) (*models.Artifact, error) {
	var a models.Artifact
	err := db.conn.QueryRow(`
		SELECT key, kind, period, doc_path, generated_at, source_doc_count
		FROM artifacts WHERE key = ?
	`, key).Scan(&a.Key, &a.Kind, &a.Period, &a.DocPath, &a.GeneratedAt, &a.SourceDocCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("metastore: get artifact %s: %w", key, apperr.ErrNotFound)
		}
		return nil, storeErr("get artifact", err)
	}
	return &a, nil
}
