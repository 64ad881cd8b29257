package firestore

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"luminapos/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEmulator(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	s, err := Open(context.Background(), "luminapos-test", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := openEmulator(t)
	ctx := context.Background()
	coll := "test_" + uuid.NewString()

	require.NoError(t, s.PutDocument(ctx, coll, "k1", json.RawMessage(`{"key":"KSR-1","usage_count":0}`)))

	doc, err := s.GetDocument(ctx, coll, "k1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.JSONEq(t, `{"id":"k1","key":"KSR-1","usage_count":0}`, string(doc.Data))

	found, err := s.QueryByField(ctx, coll, "key", "KSR-1", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)

	require.NoError(t, s.UpdateDocument(ctx, coll, "k1", func(cur json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{"id":"k1","key":"KSR-1","usage_count":1}`), nil
	}))
	err = s.UpdateDocument(ctx, coll, "nope", func(cur json.RawMessage) (json.RawMessage, error) { return cur, nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	docs, err := s.ListDocuments(ctx, coll)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, string(docs[0].Data), `"usage_count":1`)

	require.NoError(t, s.DeleteDocument(ctx, coll, "k1"))
	doc, err = s.GetDocument(ctx, coll, "k1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
