// Package metastore provides the SQLite-backed multi-index metadata store:
// primary document records plus derived tag, entity, and classification views.
package metastore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Four logical tables replace the original single-namespace key design. The
// secondary indexes below back the tag, classification, and entity lookups so
// none of them requires a scan of the documents table.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path            TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	tags            TEXT NOT NULL DEFAULT '[]',
	classification  TEXT,
	entities        TEXT,
	links_to        TEXT NOT NULL DEFAULT '[]',
	extra           TEXT NOT NULL DEFAULT '{}',
	checksum        TEXT NOT NULL DEFAULT '',
	has_frontmatter INTEGER NOT NULL DEFAULT 0,
	created         TEXT NOT NULL DEFAULT '',
	modified        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_classification
	ON documents(classification, modified DESC);

CREATE TABLE IF NOT EXISTS tag_memberships (
	tag_name      TEXT NOT NULL,
	document_path TEXT NOT NULL,
	modified      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (tag_name, document_path)
);

CREATE TABLE IF NOT EXISTS entity_mentions (
	entity_key    TEXT NOT NULL,
	entity_type   TEXT NOT NULL,
	entity_name   TEXT NOT NULL,
	document_path TEXT NOT NULL,
	modified      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (entity_key, document_path)
);

CREATE TABLE IF NOT EXISTS artifacts (
	key              TEXT PRIMARY KEY,
	kind             TEXT NOT NULL,
	period           TEXT NOT NULL,
	doc_path         TEXT NOT NULL,
	generated_at     TEXT NOT NULL,
	source_doc_count INTEGER NOT NULL DEFAULT 0
);
`

// DB wraps a sql.DB with metadata store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("metastore: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("metastore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("metastore: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
