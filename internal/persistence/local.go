package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"luminapos/internal/domain"
)

// localDocuments presents the cache store as a DocumentStore. A collection is
// stored under its cache key as one JSON array of documents; a singleton is stored
// under its own cache key as one JSON object.
type localDocuments struct {
	cache  domain.CacheStore
	layout layout
	now    func() time.Time
	locks  keyedMutex
}

var _ domain.DocumentStore = (*localDocuments)(nil)

func newLocalDocuments(cache domain.CacheStore, l layout, now func() time.Time) *localDocuments {
	return &localDocuments{cache: cache, layout: l, now: now}
}

func (l *localDocuments) ListDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	items, err := l.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	return toDocuments(items), nil
}

func (l *localDocuments) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	if key, ok := l.layout.singletons[docKey{collection, id}]; ok {
		defer l.locks.lock(key)()
		raw, err := l.readSingleton(ctx, key)
		if err != nil || raw == nil {
			return nil, err
		}
		return &domain.Document{ID: id, Data: raw}, nil
	}
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	items, err := l.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	if i := indexOf(items, id); i >= 0 {
		return &domain.Document{ID: id, Data: items[i]}, nil
	}
	return nil, nil
}

func (l *localDocuments) PutDocument(ctx context.Context, collection, id string, data json.RawMessage) error {
	return l.put(ctx, collection, id, data, nil)
}

// put upserts one document. A non-nil online guard is evaluated under the key
// lock and the write is skipped once it reports false.
func (l *localDocuments) put(ctx context.Context, collection, id string, data json.RawMessage, online func() bool) error {
	if key, ok := l.layout.singletons[docKey{collection, id}]; ok {
		defer l.locks.lock(key)()
		if online != nil && !online() {
			return nil
		}
		return l.write(ctx, key, data)
	}
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	if online != nil && !online() {
		return nil
	}
	items, err := l.load(ctx, collection)
	if err != nil {
		return err
	}
	doc, err := withID(data, id)
	if err != nil {
		return err
	}
	if i := indexOf(items, id); i >= 0 {
		items[i] = doc
	} else {
		items = append(items, doc)
	}
	return l.store(ctx, key, items)
}

func (l *localDocuments) DeleteDocument(ctx context.Context, collection, id string) error {
	if key, ok := l.layout.singletons[docKey{collection, id}]; ok {
		defer l.locks.lock(key)()
		return l.write(ctx, key, json.RawMessage("null"))
	}
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	items, err := l.load(ctx, collection)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if documentID(it) != id {
			kept = append(kept, it)
		}
	}
	return l.store(ctx, key, kept)
}

func (l *localDocuments) QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	want, err := normalize(value)
	if err != nil {
		return nil, err
	}
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	items, err := l.load(ctx, collection)
	if err != nil {
		return nil, err
	}
	var out []domain.Document
	for _, it := range items {
		var fields map[string]any
		if err := json.Unmarshal(it, &fields); err != nil {
			continue
		}
		if got, ok := fields[field]; !ok || !reflect.DeepEqual(got, want) {
			continue
		}
		out = append(out, domain.Document{ID: documentID(it), Data: it})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *localDocuments) UpdateDocument(ctx context.Context, collection, id string, fn domain.MutateFunc) error {
	if key, ok := l.layout.singletons[docKey{collection, id}]; ok {
		defer l.locks.lock(key)()
		raw, err := l.readSingleton(ctx, key)
		if err != nil {
			return err
		}
		if raw == nil {
			return domain.ErrNotFound
		}
		next, err := fn(raw)
		if err != nil {
			return err
		}
		return l.write(ctx, key, next)
	}
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	items, err := l.load(ctx, collection)
	if err != nil {
		return err
	}
	i := indexOf(items, id)
	if i < 0 {
		return domain.ErrNotFound
	}
	next, err := fn(items[i])
	if err != nil {
		return err
	}
	if items[i], err = withID(next, id); err != nil {
		return err
	}
	return l.store(ctx, key, items)
}

// replace overwrites the cached sequence of a collection. It is the mirror step
// that follows a non-empty remote read, and it is skipped when online reports
// false under the key lock: a remote read that finished before the latch must
// not overwrite writes made after it.
func (l *localDocuments) replace(ctx context.Context, collection string, docs []domain.Document, online func() bool) error {
	key := l.layout.collection(collection).cacheKey
	defer l.locks.lock(key)()
	if !online() {
		return nil
	}
	items := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		doc, err := withID(d.Data, d.ID)
		if err != nil {
			return err
		}
		items = append(items, doc)
	}
	return l.store(ctx, key, items)
}

// load returns the cached sequence of a collection, or its seed when nothing is
// cached yet.
func (l *localDocuments) load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	b := l.layout.collection(collection)
	raw, ok, err := l.cache.Read(ctx, b.cacheKey)
	if err != nil {
		return nil, fmt.Errorf("read cache %q: %w", b.cacheKey, err)
	}
	if !ok {
		if b.seed == nil {
			return nil, nil
		}
		return b.seed(l.now())
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cache %q: %w", b.cacheKey, err)
	}
	return items, nil
}

func (l *localDocuments) store(ctx context.Context, key string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return l.write(ctx, key, b)
}

func (l *localDocuments) readSingleton(ctx context.Context, key string) (json.RawMessage, error) {
	raw, ok, err := l.cache.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read cache %q: %w", key, err)
	}
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	return raw, nil
}

func (l *localDocuments) write(ctx context.Context, key string, value []byte) error {
	if err := l.cache.Write(ctx, key, value); err != nil {
		return fmt.Errorf("write cache %q: %w", key, err)
	}
	return nil
}

func toDocuments(items []json.RawMessage) []domain.Document {
	docs := make([]domain.Document, 0, len(items))
	for _, it := range items {
		docs = append(docs, domain.Document{ID: documentID(it), Data: it})
	}
	return docs
}

func indexOf(items []json.RawMessage, id string) int {
	for i, it := range items {
		if documentID(it) == id {
			return i
		}
	}
	return -1
}

func documentID(raw json.RawMessage) string {
	var v struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &v)
	return v.ID
}

// withID returns data with its "id" field set to id.
func withID(data json.RawMessage, id string) (json.RawMessage, error) {
	if id == "" || documentID(data) == id {
		return data, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document %q: %w", id, err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	idJSON, _ := json.Marshal(id)
	fields["id"] = idJSON
	return json.Marshal(fields)
}

// normalize converts a query value to the shape encoding/json decodes into.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*sync.Mutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
