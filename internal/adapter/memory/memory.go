// Package memory implements in-memory document and cache stores for development
// and testing.
package memory

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"

	"luminapos/internal/domain"
)

// DB is an in-memory document store. Documents keep insertion order.
type DB struct {
	mu          sync.Mutex
	collections map[string]*collection
	failure     error
	calls       int
}

type collection struct {
	order []string
	docs  map[string]json.RawMessage
}

// New creates an empty in-memory document store.
func New() *DB {
	return &DB{collections: make(map[string]*collection)}
}

// Ensure interfaces are met.
var _ domain.DocumentStore = (*DB)(nil)
var _ domain.CacheStore = (*Cache)(nil)

// FailWith makes every following call return err until it is called with nil.
func (db *DB) FailWith(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failure = err
}

// Calls returns how many store calls were made, failed ones included.
func (db *DB) Calls() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls
}

// begin locks the store and counts the call. The caller must unlock.
func (db *DB) begin() error {
	db.mu.Lock()
	db.calls++
	return db.failure
}

func (db *DB) coll(name string) *collection {
	c, ok := db.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]json.RawMessage)}
		db.collections[name] = c
	}
	return c
}

// ListDocuments returns every document of a collection in insertion order.
func (db *DB) ListDocuments(ctx context.Context, name string) ([]domain.Document, error) {
	err := db.begin()
	defer db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c := db.coll(name)
	out := make([]domain.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, domain.Document{ID: id, Data: clone(c.docs[id])})
	}
	return out, nil
}

// GetDocument returns one document, or nil if absent.
func (db *DB) GetDocument(ctx context.Context, name, id string) (*domain.Document, error) {
	err := db.begin()
	defer db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	data, ok := db.coll(name).docs[id]
	if !ok {
		return nil, nil
	}
	return &domain.Document{ID: id, Data: clone(data)}, nil
}

// PutDocument creates or overwrites a document.
func (db *DB) PutDocument(ctx context.Context, name, id string, data json.RawMessage) error {
	err := db.begin()
	defer db.mu.Unlock()
	if err != nil {
		return err
	}
	db.coll(name).put(id, clone(data))
	return nil
}

// DeleteDocument removes a document. Deleting a missing document is not an error.
func (db *DB) DeleteDocument(ctx context.Context, name, id string) error {
	err := db.begin()
	defer db.mu.Unlock()
	if err != nil {
		return err
	}
	c := db.coll(name)
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// QueryByField returns up to limit documents whose top-level field equals value.
func (db *DB) QueryByField(ctx context.Context, name, field string, value any, limit int) ([]domain.Document, error) {
	err := db.begin()
	defer db.mu.Unlock()
	if err != nil {
		return nil, err
	}
	want, err := normalize(value)
	if err != nil {
		return nil, err
	}
	c := db.coll(name)
	var out []domain.Document
	for _, id := range c.order {
		var fields map[string]any
		if err := json.Unmarshal(c.docs[id], &fields); err != nil {
			continue
		}
		if got, ok := fields[field]; ok && reflect.DeepEqual(got, want) {
			out = append(out, domain.Document{ID: id, Data: clone(c.docs[id])})
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// UpdateDocument applies fn under the store lock.
func (db *DB) UpdateDocument(ctx context.Context, name, id string, fn domain.MutateFunc) error {
	err := db.begin()
	defer db.mu.Unlock()
	if err != nil {
		return err
	}
	c := db.coll(name)
	data, ok := c.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	next, err := fn(clone(data))
	if err != nil {
		return err
	}
	c.put(id, clone(next))
	return nil
}

func (c *collection) put(id string, data json.RawMessage) {
	if _, ok := c.docs[id]; !ok {
		c.order = append(c.order, id)
	}
	c.docs[id] = data
}

// Cache is an in-memory CacheStore. It does not survive restarts.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failure error
}

// NewCache creates an empty in-memory cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// FailWith makes every following call return err until it is called with nil.
func (c *Cache) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure = err
}

// Read returns the value stored under key.
func (c *Cache) Read(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return nil, false, c.failure
	}
	v, ok := c.entries[key]
	return clone(v), ok, nil
}

// Write stores value under key.
func (c *Cache) Write(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return c.failure
	}
	c.entries[key] = clone(value)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(b, &out)
	return out, err
}
