// Package redis implements the remote document store on Redis. Each collection
// is a hash of id to JSON plus a sorted set that keeps insertion order.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"luminapos/internal/domain"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds optimistic retries of UpdateDocument.
const maxUpdateAttempts = 10

// Store implements domain.DocumentStore on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

var _ domain.DocumentStore = (*Store)(nil)

// Open connects to the server at url (redis://...) and pings it.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "luminapos"
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) docsKey(collection string) string  { return s.prefix + ":" + collection }
func (s *Store) orderKey(collection string) string { return s.prefix + ":" + collection + ":order" }
func (s *Store) seqKey() string                    { return s.prefix + ":seq" }

func (s *Store) ListDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}
	vals, err := s.client.HMGet(ctx, s.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(ids))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, domain.Document{ID: ids[i], Data: json.RawMessage(str)})
	}
	return out, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	v, err := s.client.HGet(ctx, s.docsKey(collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Document{ID: id, Data: v}, nil
}

func (s *Store) PutDocument(ctx context.Context, collection, id string, data json.RawMessage) error {
	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.docsKey(collection), id, []byte(data))
		p.ZAddNX(ctx, s.orderKey(collection), redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	return err
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, s.docsKey(collection), id)
		p.ZRem(ctx, s.orderKey(collection), id)
		return nil
	})
	return err
}

// QueryByField scans the collection; Redis keeps no secondary index here.
func (s *Store) QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	want, err := normalize(value)
	if err != nil {
		return nil, err
	}
	docs, err := s.ListDocuments(ctx, collection)
	if err != nil {
		return nil, err
	}
	var out []domain.Document
	for _, d := range docs {
		var fields map[string]any
		if err := json.Unmarshal(d.Data, &fields); err != nil {
			continue
		}
		if got, ok := fields[field]; ok && reflect.DeepEqual(got, want) {
			out = append(out, d)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// UpdateDocument applies fn under WATCH on the collection hash and retries when
// a concurrent write invalidates the transaction.
func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fn domain.MutateFunc) error {
	key := s.docsKey(collection)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, id).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, id, []byte(next))
			return nil
		})
		return err
	}
	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s/%s: %w", collection, id, redis.TxFailedErr)
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
