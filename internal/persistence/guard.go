package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"luminapos/internal/domain"
)

// storeError marks an error as a failure of the store itself, as opposed to a
// not-found result or an error returned by a mutation callback.
type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }

func failed(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return &storeError{err: err}
}

// guardedStore tags every store failure of the wrapped store so that Run can
// tell them apart from the operation's own errors.
type guardedStore struct {
	docs domain.DocumentStore
}

func (g guardedStore) ListDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	docs, err := g.docs.ListDocuments(ctx, collection)
	return docs, failed(err)
}

func (g guardedStore) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	doc, err := g.docs.GetDocument(ctx, collection, id)
	return doc, failed(err)
}

func (g guardedStore) PutDocument(ctx context.Context, collection, id string, data json.RawMessage) error {
	return failed(g.docs.PutDocument(ctx, collection, id, data))
}

func (g guardedStore) DeleteDocument(ctx context.Context, collection, id string) error {
	return failed(g.docs.DeleteDocument(ctx, collection, id))
}

func (g guardedStore) QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	docs, err := g.docs.QueryByField(ctx, collection, field, value, limit)
	return docs, failed(err)
}

func (g guardedStore) UpdateDocument(ctx context.Context, collection, id string, fn domain.MutateFunc) error {
	var fnErr error
	err := g.docs.UpdateDocument(ctx, collection, id, func(current json.RawMessage) (json.RawMessage, error) {
		next, err := fn(current)
		fnErr = err
		return next, err
	})
	if fnErr != nil && errors.Is(err, fnErr) {
		return err
	}
	return failed(err)
}
