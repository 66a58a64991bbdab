package kv

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "product:1", &doc{ID: "1", Name: "Apple"}))

	var got doc
	require.NoError(t, store.Get(ctx, "product:1", &got))
	assert.Equal(t, "Apple", got.Name)
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()

	var got doc
	err := store.Get(context.Background(), "product:missing", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "product:1", &doc{ID: "1"}))
	require.NoError(t, store.Del(ctx, "product:1"))

	var got doc
	assert.ErrorIs(t, store.Get(ctx, "product:1", &got), ErrNotFound)

	// Absent keys delete cleanly.
	assert.NoError(t, store.Del(ctx, "product:1"))
}

func TestMemoryStorePrefixScan(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "product:1", &doc{ID: "1", Name: "Apple"}))
	require.NoError(t, store.Set(ctx, "product:2", &doc{ID: "2", Name: "Carrot"}))
	require.NoError(t, store.Set(ctx, "category:1", &doc{ID: "c1", Name: "Fruit"}))

	blobs, err := store.GetByPrefix(ctx, "product:")
	require.NoError(t, err)
	assert.Len(t, blobs, 2)

	blobs, err = store.GetByPrefix(ctx, "order:")
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestDecodeAllSkipsMalformed(t *testing.T) {
	blobs := []json.RawMessage{
		json.RawMessage(`{"id":"1","name":"Apple"}`),
		json.RawMessage(`{broken`),
		json.RawMessage(`{"id":"2","name":"Carrot"}`),
	}

	docs := DecodeAll[doc](blobs)
	require.Len(t, docs, 2)
	assert.Equal(t, "Apple", docs[0].Name)
	assert.Equal(t, "Carrot", docs[1].Name)
}
