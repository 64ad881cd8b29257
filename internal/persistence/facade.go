// Package persistence implements the dual-mode persistence facade: remote-first
// document operations that fall back, for the rest of the process, to the local
// cache once the remote store fails.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"luminapos/internal/domain"

	"go.uber.org/zap"
)

// Facade routes entity operations to the remote store while it is reachable and
// to the local cache afterwards. The switch is one-way.
type Facade struct {
	remote   domain.DocumentStore
	local    *localDocuments
	mode     atomic.Int32
	log      *zap.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Facade.
type Option func(*Facade)

// WithClock sets the time source used for seeds.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) { f.now = now }
}

// WithObserver reports remote failures and mode changes to o.
func WithObserver(o Observer) Option {
	return func(f *Facade) {
		if o != nil {
			f.observer = o
		}
	}
}

// New returns a facade over remote and cache. A nil remote starts the facade
// offline.
func New(remote domain.DocumentStore, cache domain.CacheStore, log *zap.Logger, opts ...Option) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Facade{
		remote:   remote,
		log:      log.Named("facade"),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.local = newLocalDocuments(cache, defaultLayout(), f.now)
	if remote == nil {
		f.mode.Store(int32(Offline))
	}
	f.observer.ModeChanged(f.Mode())
	return f
}

// Mode reports whether the facade still uses the remote store.
func (f *Facade) Mode() Mode {
	return Mode(f.mode.Load())
}

func (f *Facade) online() bool { return f.Mode() == Online }

// Now returns the facade clock.
func (f *Facade) Now() time.Time {
	return f.now()
}

// Run executes a multi-step operation against exactly one store. It runs fn
// against the remote store first; if any remote call fails, the facade latches
// offline and runs fn again from the start against the local cache. Errors that
// fn produces itself are returned unchanged.
func (f *Facade) Run(ctx context.Context, op string, fn func(ctx context.Context, docs domain.DocumentStore) error) error {
	ctx = context.WithoutCancel(ctx)
	if f.Mode() == Online {
		err := fn(ctx, guardedStore{f.remote})
		var se *storeError
		if !errors.As(err, &se) {
			return err
		}
		f.latch(op, se.err)
	}
	return fn(ctx, f.local)
}

// tryRemote runs fn against the remote store while online and reports whether it
// succeeded. A failure latches the facade offline.
func (f *Facade) tryRemote(op string, fn func(remote domain.DocumentStore) error) bool {
	if f.Mode() == Offline {
		return false
	}
	if err := fn(f.remote); err != nil {
		f.latch(op, err)
		return false
	}
	return true
}

func (f *Facade) latch(op string, err error) {
	f.observer.RemoteFailure(op)
	f.log.Warn("remote store failed, using local cache",
		zap.String("op", op),
		zap.Error(fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)),
	)
	if f.mode.CompareAndSwap(int32(Online), int32(Offline)) {
		f.observer.ModeChanged(Offline)
		f.log.Info("persistence mode changed", zap.Stringer("mode", Offline))
	}
}

func (f *Facade) cacheFailed(op string, err error) {
	f.observer.CacheFailure(op)
	f.log.Error("local cache failed", zap.String("op", op), zap.Error(err))
}

// refresh overwrites the cached copy of a collection with a remote read.
func (f *Facade) refresh(ctx context.Context, collection string, docs []domain.Document) {
	if err := f.local.replace(ctx, collection, docs, f.online); err != nil {
		f.cacheFailed("refresh "+collection, err)
	}
}

// List returns every entity of c. See EmptyPolicy for the empty-remote case.
func List[T any](ctx context.Context, f *Facade, c Collection[T]) []T {
	ctx = context.WithoutCancel(ctx)
	var docs []domain.Document
	var items []T
	ok := f.tryRemote("list "+c.Name, func(remote domain.DocumentStore) error {
		var err error
		if docs, err = remote.ListDocuments(ctx, c.Name); err != nil {
			return err
		}
		items, err = decodeAll[T](docs)
		return err
	})
	if ok {
		if len(items) > 0 {
			f.refresh(ctx, c.Name, docs)
			return items
		}
		if c.OnEmpty == EmptyReturnsSeed {
			return seedOf(c, f.now())
		}
	}
	return listLocal(ctx, f, c)
}

func listLocal[T any](ctx context.Context, f *Facade, c Collection[T]) []T {
	docs, err := f.local.ListDocuments(ctx, c.Name)
	if err == nil {
		var items []T
		if items, err = decodeAll[T](docs); err == nil {
			return items
		}
	}
	f.cacheFailed("list "+c.Name, err)
	return seedOf(c, f.now())
}

// Save upserts v by id. The only error is a failure to encode v.
func Save[T any](ctx context.Context, f *Facade, c Collection[T], v T) error {
	ctx = context.WithoutCancel(ctx)
	id := c.ID(v)
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %q: %w", c.Name, id, err)
	}
	if f.tryRemote("save "+c.Name, func(remote domain.DocumentStore) error {
		return remote.PutDocument(ctx, c.Name, id, data)
	}) {
		return nil
	}
	if err := f.local.PutDocument(ctx, c.Name, id, data); err != nil {
		f.cacheFailed("save "+c.Name, err)
	}
	return nil
}

// Delete removes the entity with the given id, if present.
func Delete[T any](ctx context.Context, f *Facade, c Collection[T], id string) {
	ctx = context.WithoutCancel(ctx)
	if f.tryRemote("delete "+c.Name, func(remote domain.DocumentStore) error {
		return remote.DeleteDocument(ctx, c.Name, id)
	}) {
		return
	}
	if err := f.local.DeleteDocument(ctx, c.Name, id); err != nil {
		f.cacheFailed("delete "+c.Name, err)
	}
}

// Update atomically applies fn to one entity. It returns domain.ErrNotFound when
// the entity does not exist and any error fn returns.
func Update[T any](ctx context.Context, f *Facade, c Collection[T], id string, fn func(*T) error) error {
	return f.Run(ctx, "update "+c.Name, func(ctx context.Context, docs domain.DocumentStore) error {
		return Modify(ctx, docs, c, id, fn)
	})
}

// Query returns the entities of c whose field equals value. It is meant for use
// inside Run.
func Query[T any](ctx context.Context, docs domain.DocumentStore, c Collection[T], field string, value any, limit int) ([]T, error) {
	found, err := docs.QueryByField(ctx, c.Name, field, value, limit)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](found)
}

// Modify applies fn to one entity through docs. It is meant for use inside Run.
func Modify[T any](ctx context.Context, docs domain.DocumentStore, c Collection[T], id string, fn func(*T) error) error {
	return docs.UpdateDocument(ctx, c.Name, id, func(current json.RawMessage) (json.RawMessage, error) {
		var v T
		if err := json.Unmarshal(current, &v); err != nil {
			return nil, fmt.Errorf("decode %s %q: %w", c.Name, id, err)
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
}

// LoadSingleton returns the stored singleton, the configured default, or nil.
func LoadSingleton[T any](ctx context.Context, f *Facade, s Singleton[T]) *T {
	ctx = context.WithoutCancel(ctx)
	var doc *domain.Document
	var v T
	if f.tryRemote("load "+s.DocID, func(remote domain.DocumentStore) error {
		var err error
		if doc, err = remote.GetDocument(ctx, s.Collection, s.DocID); err != nil || doc == nil {
			return err
		}
		return json.Unmarshal(doc.Data, &v)
	}) {
		if doc != nil {
			f.mirror(ctx, s.Collection, s.DocID, doc.Data)
			return &v
		}
		if s.Default == nil {
			return nil
		}
		def := s.Default()
		if !s.InstallDefault {
			return &def
		}
		data, err := json.Marshal(def)
		if err != nil {
			f.log.Error("encode default", zap.String("doc", s.DocID), zap.Error(err))
			return &def
		}
		if f.tryRemote("install "+s.DocID, func(remote domain.DocumentStore) error {
			return remote.PutDocument(ctx, s.Collection, s.DocID, data)
		}) {
			f.mirror(ctx, s.Collection, s.DocID, data)
			return &def
		}
	}
	return loadLocal(ctx, f, s)
}

func loadLocal[T any](ctx context.Context, f *Facade, s Singleton[T]) *T {
	doc, err := f.local.GetDocument(ctx, s.Collection, s.DocID)
	if err == nil && doc != nil {
		var v T
		if err = json.Unmarshal(doc.Data, &v); err == nil {
			return &v
		}
	}
	if err != nil {
		f.cacheFailed("load "+s.DocID, err)
	}
	if s.Default == nil {
		return nil
	}
	def := s.Default()
	return &def
}

// StoreSingleton overwrites the singleton. The only error is a failure to encode v.
func StoreSingleton[T any](ctx context.Context, f *Facade, s Singleton[T], v T) error {
	ctx = context.WithoutCancel(ctx)
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.DocID, err)
	}
	if f.tryRemote("store "+s.DocID, func(remote domain.DocumentStore) error {
		return remote.PutDocument(ctx, s.Collection, s.DocID, data)
	}) {
		return nil
	}
	if err := f.local.PutDocument(ctx, s.Collection, s.DocID, data); err != nil {
		f.cacheFailed("store "+s.DocID, err)
	}
	return nil
}

func (f *Facade) mirror(ctx context.Context, collection, id string, data json.RawMessage) {
	if err := f.local.put(ctx, collection, id, data, f.online); err != nil {
		f.cacheFailed("refresh "+id, err)
	}
}

func decodeAll[T any](docs []domain.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Data, &v); err != nil {
			return nil, fmt.Errorf("decode document %q: %w", d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func seedOf[T any](c Collection[T], now time.Time) []T {
	if c.Seed == nil {
		return []T{}
	}
	return c.Seed(now)
}
