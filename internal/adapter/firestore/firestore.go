// Package firestore implements the remote document store on Cloud Firestore.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"luminapos/internal/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store implements domain.DocumentStore on a Firestore client.
type Store struct {
	client *firestore.Client
}

var _ domain.DocumentStore = (*Store)(nil)

// Open connects to the project. credentialsFile may be empty to use application
// default credentials or the emulator named by FIRESTORE_EMULATOR_HOST.
func Open(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) ListDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return toDocuments(snaps)
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*domain.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := toDocument(snap)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) PutDocument(ctx context.Context, collection, id string, data json.RawMessage) error {
	fields, err := toFields(data)
	if err != nil {
		return err
	}
	_, err = s.client.Collection(collection).Doc(id).Set(ctx, fields)
	return err
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

func (s *Store) QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	q := s.client.Collection(collection).Where(field, "==", value)
	if limit > 0 {
		q = q.Limit(limit)
	}
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return toDocuments(snaps)
}

// UpdateDocument applies fn inside a Firestore transaction. Firestore may call fn
// more than once when the transaction is retried.
func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fn domain.MutateFunc) error {
	ref := s.client.Collection(collection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		doc, err := toDocument(snap)
		if err != nil {
			return err
		}
		next, err := fn(doc.Data)
		if err != nil {
			return err
		}
		fields, err := toFields(next)
		if err != nil {
			return err
		}
		return tx.Set(ref, fields)
	})
}

func toDocuments(snaps []*firestore.DocumentSnapshot) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := toDocument(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// toDocument encodes a snapshot as JSON, filling the id field from the document
// name when it is missing.
func toDocument(snap *firestore.DocumentSnapshot) (domain.Document, error) {
	fields := snap.Data()
	id := snap.Ref.ID
	if _, ok := fields["id"]; !ok {
		fields["id"] = id
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return domain.Document{}, fmt.Errorf("encode %s: %w", snap.Ref.Path, err)
	}
	return domain.Document{ID: id, Data: data}, nil
}

func toFields(data json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}
