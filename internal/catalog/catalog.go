// Package catalog stores processed documents and their clause records in
// SQLite so they can be listed, fetched and exported without re-reading
// the output directories.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/clausegest/internal/chunks"
	"github.com/dgallion1/clausegest/internal/imagestore"
	"github.com/dgallion1/clausegest/internal/schema"
)

var ErrNotFound = errors.New("not found")

const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	document_id     TEXT PRIMARY KEY,
	source          TEXT NOT NULL DEFAULT '',
	content_hash    TEXT NOT NULL DEFAULT '',
	total_images    INTEGER NOT NULL DEFAULT 0,
	clause_images   INTEGER NOT NULL DEFAULT 0,
	misc_images     INTEGER NOT NULL DEFAULT 0,
	total_tables    INTEGER NOT NULL DEFAULT 0,
	total_clauses   INTEGER NOT NULL DEFAULT 0,
	total_chunks    INTEGER NOT NULL DEFAULT 0,
	updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_hash ON documents(content_hash);
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id     TEXT PRIMARY KEY,
	document_id  TEXT NOT NULL REFERENCES documents(document_id) ON DELETE CASCADE,
	clause_id    TEXT NOT NULL,
	position     INTEGER NOT NULL,
	body         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS chunks_document ON chunks(document_id, position);
`

// Document is the catalog row of a processed document.
type Document struct {
	DocumentID  string            `json:"document_id"`
	Source      string            `json:"source,omitempty"`
	ContentHash string            `json:"content_hash,omitempty"`
	Statistics  schema.Statistics `json:"statistics"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Store is a SQLite-backed catalog.
type Store struct {
	db *sql.DB
}

// ContentHash returns the hex BLAKE3-256 digest used for duplicate detection.
func ContentHash(data []byte) string {
	return imagestore.Digest(data)
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutDocument replaces a document and all of its clause records.
func (s *Store) PutDocument(ctx context.Context, doc Document, records []chunks.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.DocumentID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	st := doc.Statistics
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (document_id, source, content_hash, total_images, clause_images,
			misc_images, total_tables, total_clauses, total_chunks, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			source = excluded.source,
			content_hash = excluded.content_hash,
			total_images = excluded.total_images,
			clause_images = excluded.clause_images,
			misc_images = excluded.misc_images,
			total_tables = excluded.total_tables,
			total_clauses = excluded.total_clauses,
			total_chunks = excluded.total_chunks,
			updated_at = excluded.updated_at`,
		doc.DocumentID, doc.Source, doc.ContentHash, st.TotalImages, st.ImagesInClauses,
		st.ImagesInMisc, st.TotalTables, st.TotalClauses, st.TotalChunks,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (chunk_id, document_id, clause_id, position, body) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal chunk %s: %w", r.ChunkID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ChunkID, doc.DocumentID, r.ClauseID, i, string(body)); err != nil {
			return fmt.Errorf("insert chunk %s: %w", r.ChunkID, err)
		}
	}
	return tx.Commit()
}

const documentColumns = `document_id, source, content_hash, total_images, clause_images,
	misc_images, total_tables, total_clauses, total_chunks, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var d Document
	var updated string
	st := &d.Statistics
	err := row.Scan(&d.DocumentID, &d.Source, &d.ContentHash, &st.TotalImages, &st.ImagesInClauses,
		&st.ImagesInMisc, &st.TotalTables, &st.TotalClauses, &st.TotalChunks, &updated)
	if err != nil {
		return d, err
	}
	d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return d, nil
}

// GetDocument returns one document row.
func (s *Store) GetDocument(ctx context.Context, docID string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE document_id = ?`, docID)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// FindByHash returns the id of a document with the given content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT document_id FROM documents WHERE content_hash = ? LIMIT 1`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return id, nil
}

// ListDocuments returns every document ordered by id.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY document_id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetChunk returns one clause record by its qualified id.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (chunks.Record, error) {
	var r chunks.Record
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM chunks WHERE chunk_id = ?`, chunkID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("chunk %s: %w", chunkID, ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("get chunk: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return r, fmt.Errorf("decode chunk %s: %w", chunkID, err)
	}
	return r, nil
}

// ListChunks returns the records of a document in document order.
func (s *Store) ListChunks(ctx context.Context, docID string) ([]chunks.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM chunks WHERE document_id = ? ORDER BY position`, docID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	records := []chunks.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		var r chunks.Record
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode chunk: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteDocument removes a document and its records.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, docID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE document_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	return tx.Commit()
}
