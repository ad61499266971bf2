// Package docstore is a document-oriented persistence layer on SQLite.
// Documents are schemaless JSON bodies grouped into named collections,
// with equality filtering and ordering over body fields.
package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("document not found")

// Collection names used across the service.
const (
	CollectionValidations = "startup_validations"
	CollectionUsers       = "users"
)

// Per-user subcollections, addressed as "users/<uid>/<name>".
const (
	SubIdeas            = "ideas"
	SubAISummaries      = "ai_summaries"
	SubCommentSummaries = "comment_summaries"
	SubFinalReports     = "final_reports"
)

// UserCollection builds the collection name for a per-user subcollection.
func UserCollection(uid, name string) string {
	return CollectionUsers + "/" + uid + "/" + name
}

type Document struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Body       map[string]any `json:"body"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Query filters and orders documents within a collection. Field and
// OrderBy name top-level keys of the JSON body; an empty OrderBy sorts
// by insertion time.
type Query struct {
	Field   string
	Equals  any
	OrderBy string
	Desc    bool
	Limit   int
}

type Store interface {
	Put(ctx context.Context, collection, id string, body map[string]any) (Document, error)
	Merge(ctx context.Context, collection, id string, body map[string]any) (Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Delete(ctx context.Context, collection, id string) error
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	Close() error
}

// NewID returns a fresh document identifier.
func NewID() string {
	return uuid.NewString()
}

// Latest returns the most recent document in a collection by a body
// timestamp field, or ErrNotFound when the collection is empty.
func Latest(ctx context.Context, s Store, collection, timeField string) (Document, error) {
	docs, err := s.Find(ctx, collection, Query{OrderBy: timeField, Desc: true, Limit: 1})
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, ErrNotFound
	}
	return docs[0], nil
}
