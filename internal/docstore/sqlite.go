package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT NOT NULL,
	collection TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection, created_at);
`

// SQLiteStore implements Store with SQLite-backed persistence. Body
// fields are filtered with json_extract, so equality and ordering work
// on any top-level key without per-collection schemas.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, collection, id string, body map[string]any) (Document, error) {
	if id == "" {
		id = NewID()
	}
	now := time.Now().UTC()
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return Document{}, fmt.Errorf("marshal body: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO documents (id, collection, body, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		id, collection, string(bodyJSON), now.Format(time.RFC3339Nano))
	if err != nil {
		return Document{}, fmt.Errorf("put document: %w", err)
	}
	return Document{ID: id, Collection: collection, Body: body, CreatedAt: now}, nil
}

// Merge overlays body keys onto an existing document, creating it when
// absent.
func (s *SQLiteStore) Merge(ctx context.Context, collection, id string, body map[string]any) (Document, error) {
	existing, err := s.Get(ctx, collection, id)
	if err != nil && err != ErrNotFound {
		return Document{}, err
	}
	merged := map[string]any{}
	if err == nil {
		for k, v := range existing.Body {
			merged[k] = v
		}
	}
	for k, v := range body {
		merged[k] = v
	}
	return s.Put(ctx, collection, id, merged)
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, collection, body, created_at FROM documents WHERE collection = ? AND id = ?`, collection, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// fieldName restricts query fields to plain identifiers so they can be
// interpolated into json_extract paths.
var fieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *SQLiteStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := `SELECT id, collection, body, created_at FROM documents WHERE collection = ?`
	args := []any{collection}

	if q.Field != "" {
		if !fieldName.MatchString(q.Field) {
			return nil, fmt.Errorf("invalid query field: %q", q.Field)
		}
		query += fmt.Sprintf(" AND json_extract(body, '$.%s') = ?", q.Field)
		args = append(args, q.Equals)
	}

	orderCol := "created_at"
	if q.OrderBy != "" && q.OrderBy != "created_at" {
		if !fieldName.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("invalid order field: %q", q.OrderBy)
		}
		orderCol = fmt.Sprintf("json_extract(body, '$.%s')", q.OrderBy)
	}
	query += " ORDER BY " + orderCol
	if q.Desc {
		query += " DESC"
	}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var bodyJSON, createdAt string
	if err := row.Scan(&doc.ID, &doc.Collection, &bodyJSON, &createdAt); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal([]byte(bodyJSON), &doc.Body); err != nil {
		return Document{}, fmt.Errorf("unmarshal body: %w", err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return doc, nil
}

var _ Store = (*SQLiteStore)(nil)
