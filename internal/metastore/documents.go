package metastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

const documentColumns = `path, title, tags, classification, entities, links_to,
	extra, checksum, has_frontmatter, created, modified`

// PutDocument upserts a DocumentRecord by path. Repeating with identical
// content is a no-op in effect.
func (db *DB) PutDocument(rec models.DocumentRecord) error {
	tags, linksTo, entities, extra, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title           = excluded.title,
			tags            = excluded.tags,
			classification  = excluded.classification,
			entities        = excluded.entities,
			links_to        = excluded.links_to,
			extra           = excluded.extra,
			checksum        = excluded.checksum,
			has_frontmatter = excluded.has_frontmatter,
			created         = excluded.created,
			modified        = excluded.modified
	`, rec.Path, rec.Title, tags, nullable(rec.Classification), entities, linksTo,
		extra, rec.Checksum, rec.HasFrontmatter, rec.Created, rec.Modified)
	if err != nil {
		return storeErr("put document", err)
	}
	return nil
}

// PutDocumentIf is a conditional upsert: the write succeeds only when the
// stored modified timestamp still equals expectedModified (empty string means
// "the record must not exist yet"). A violated condition returns
// apperr.ErrConditionFailed, meaning another writer advanced the record first.
func (db *DB) PutDocumentIf(rec models.DocumentRecord, expectedModified string) error {
	tags, linksTo, entities, extra, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	var res sql.Result
	if expectedModified == "" {
		res, err = db.conn.Exec(`
			INSERT INTO documents (`+documentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO NOTHING
		`, rec.Path, rec.Title, tags, nullable(rec.Classification), entities, linksTo,
			extra, rec.Checksum, rec.HasFrontmatter, rec.Created, rec.Modified)
	} else {
		res, err = db.conn.Exec(`
			UPDATE documents SET
				title = ?, tags = ?, classification = ?, entities = ?, links_to = ?,
				extra = ?, checksum = ?, has_frontmatter = ?, created = ?, modified = ?
			WHERE path = ? AND modified = ?
		`, rec.Title, tags, nullable(rec.Classification), entities, linksTo,
			extra, rec.Checksum, rec.HasFrontmatter, rec.Created, rec.Modified,
			rec.Path, expectedModified)
	}
	if err != nil {
		return storeErr("put document if", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("put document if", err)
	}
	if n == 0 {
		return fmt.Errorf("metastore: put document %s: %w", rec.Path, apperr.ErrConditionFailed)
	}
	return nil
}

// GetDocument returns the record for path, or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*models.DocumentRecord, error) {
	row := db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE path = ?`, path)
	rec, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("metastore: get document %s: %w", path, apperr.ErrNotFound)
		}
		return nil, storeErr("get document", err)
	}
	return rec, nil
}

// ScanModifiedSince returns documents with modified >= since, most recent
// first, up to limit. This is a deliberate table scan: no global modified
// index is maintained, which is acceptable for corpora in the low tens of
// thousands of documents.
func (db *DB) ScanModifiedSince(since string, limit int) ([]models.DocumentRecord, error) {
	rows, err := db.conn.Query(`
		SELECT `+documentColumns+` FROM documents
		WHERE modified >= ?
		ORDER BY modified DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, storeErr("scan modified since", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.DocumentRecord, error) {
	var (
		rec            models.DocumentRecord
		tags, linksTo  string
		extra          string
		classification sql.NullString
		entities       sql.NullString
	)
	err := row.Scan(&rec.Path, &rec.Title, &tags, &classification, &entities,
		&linksTo, &extra, &rec.Checksum, &rec.HasFrontmatter, &rec.Created, &rec.Modified)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(linksTo), &rec.LinksTo); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &rec.Extra); err != nil {
			return nil, fmt.Errorf("decode extra: %w", err)
		}
	}
	if classification.Valid {
		rec.Classification = classification.String
	}
	if entities.Valid {
		if err := json.Unmarshal([]byte(entities.String), &rec.Entities); err != nil {
			return nil, fmt.Errorf("decode entities: %w", err)
		}
	}
	return &rec, nil
}

func collectDocuments(rows *sql.Rows) ([]models.DocumentRecord, error) {
	var out []models.DocumentRecord
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, storeErr("scan row", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate rows", err)
	}
	return out, nil
}

func encodeRecord(rec models.DocumentRecord) (tags, linksTo, entities any, extra string, err error) {
	t, err := json.Marshal(emptyIfNil(rec.Tags))
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("metastore: encode tags: %w", err)
	}
	l, err := json.Marshal(emptyIfNil(rec.LinksTo))
	if err != nil {
		return nil, nil, nil, "", fmt.Errorf("metastore: encode links: %w", err)
	}
	var ent any
	if rec.Entities != nil {
		b, err := json.Marshal(rec.Entities)
		if err != nil {
			return nil, nil, nil, "", fmt.Errorf("metastore: encode entities: %w", err)
		}
		ent = string(b)
	}
	x := "{}"
	if rec.Extra != nil {
		b, err := json.Marshal(rec.Extra)
		if err != nil {
			return nil, nil, nil, "", fmt.Errorf("metastore: encode extra: %w", err)
		}
		x = string(b)
	}
	return string(t), string(l), ent, x, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
