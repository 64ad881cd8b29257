package domain

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by UpdateDocument when the target document does not exist,
// and by services when an addressed entity is missing.
var ErrNotFound = errors.New("not found")

// Document is a stored record: its id within the collection and its JSON fields.
// Data always carries the full record, including the "id" field for collection
// entities.
type Document struct {
	ID   string
	Data json.RawMessage
}

// MutateFunc receives the current JSON of a document and returns its replacement.
// Returning an error aborts the update and leaves the document untouched.
type MutateFunc func(current json.RawMessage) (json.RawMessage, error)

// DocumentStore is the port for a document store addressed by collection name and
// document id. Any returned error other than ErrNotFound or an error produced by a
// MutateFunc is a store failure.
type DocumentStore interface {
	ListDocuments(ctx context.Context, collection string) ([]Document, error)
	// GetDocument returns nil, nil when the document is absent.
	GetDocument(ctx context.Context, collection, id string) (*Document, error)
	PutDocument(ctx context.Context, collection, id string, data json.RawMessage) error
	DeleteDocument(ctx context.Context, collection, id string) error
	QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]Document, error)
	// UpdateDocument applies fn to the document atomically with respect to other
	// UpdateDocument calls on the same document.
	UpdateDocument(ctx context.Context, collection, id string, fn MutateFunc) error
}

// CacheStore is the port for the durable process-local key-value cache.
type CacheStore interface {
	Read(ctx context.Context, key string) ([]byte, bool, error)
	Write(ctx context.Context, key string, value []byte) error
}
