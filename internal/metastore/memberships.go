package metastore

import (
	"database/sql"

	"github.com/starford/mimir/internal/models"
)

// PutTagMembership upserts one tag membership row. Idempotent.
func (db *DB) PutTagMembership(tag, path, modified string) error {
	_, err := db.conn.Exec(`
		INSERT INTO tag_memberships (tag_name, document_path, modified)
		VALUES (?, ?, ?)
		ON CONFLICT(tag_name, document_path) DO UPDATE SET modified = excluded.modified
	`, tag, path, modified)
	if err != nil {
		return storeErr("put tag membership", err)
	}
	return nil
}

// PutEntityMention upserts one entity mention row. Idempotent.
func (db *DB) PutEntityMention(entityType, entityName, path, modified string) error {
	_, err := db.conn.Exec(`
		INSERT INTO entity_mentions (entity_key, entity_type, entity_name, document_path, modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_key, document_path) DO UPDATE SET
			entity_name = excluded.entity_name,
			modified    = excluded.modified
	`, EntityKey(entityType, entityName), entityType, entityName, path, modified)
	if err != nil {
		return storeErr("put entity mention", err)
	}
	return nil
}

// QueryByTag returns the paths of all documents carrying tag, ordered by
// membership key.
func (db *DB) QueryByTag(tag string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT document_path FROM tag_memberships
		WHERE tag_name = ?
		ORDER BY document_path
	`, tag)
	if err != nil {
		return nil, storeErr("query by tag", err)
	}
	defer rows.Close()
	return collectPaths(rows)
}

// QueryByClassification returns all documents with the given label, most
// recently modified first. Only the five valid labels ever match.
func (db *DB) QueryByClassification(label string) ([]models.DocumentRecord, error) {
	rows, err := db.conn.Query(`
		SELECT `+documentColumns+` FROM documents
		WHERE classification = ?
		ORDER BY modified DESC
	`, label)
	if err != nil {
		return nil, storeErr("query by classification", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// QueryByEntity returns the paths of all documents mentioning the entity.
func (db *DB) QueryByEntity(entityType, entityName string) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT document_path FROM entity_mentions
		WHERE entity_key = ?
		ORDER BY document_path
	`, EntityKey(entityType, entityName))
	if err != nil {
		return nil, storeErr("query by entity", err)
	}
	defer rows.Close()
	return collectPaths(rows)
}

// Mentions returns the full mention rows for an entity, used when
// regenerating its page.
func (db *DB) Mentions(entityType, entityName string) ([]models.Mention, error) {
	rows, err := db.conn.Query(`
		SELECT entity_type, entity_name, document_path, modified FROM entity_mentions
		WHERE entity_key = ?
		ORDER BY document_path
	`, EntityKey(entityType, entityName))
	if err != nil {
		return nil, storeErr("mentions", err)
	}
	defer rows.Close()

	var out []models.Mention
	for rows.Next() {
		var m models.Mention
		if err := rows.Scan(&m.EntityType, &m.EntityName, &m.DocumentPath, &m.Modified); err != nil {
			return nil, storeErr("scan mention", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate mentions", err)
	}
	return out, nil
}

func collectPaths(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, storeErr("scan path", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate paths", err)
	}
	return out, nil
}
