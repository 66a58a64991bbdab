// Package kv is the thin contract over the key to JSON-blob store backing the
// storefront API. Keys are namespaced with prefixes ("product:", "category:",
// "order:", "site:") and values are opaque JSON documents.
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	// Get unmarshals the blob stored under key into dest.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set marshals value and stores it under key, replacing any prior blob.
	Set(ctx context.Context, key string, value interface{}) error
	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
	// GetByPrefix returns the raw blobs of every key with the given prefix,
	// in no particular order.
	GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
	// Ping checks the backing connection.
	Ping(ctx context.Context) error
	// Close releases the backing connection.
	Close() error
}

// DecodeAll unmarshals a prefix scan result into a slice of T, skipping
// blobs that fail to decode.
func DecodeAll[T any](blobs []json.RawMessage) []T {
	out := make([]T, 0, len(blobs))
	for _, blob := range blobs {
		var v T
		if err := json.Unmarshal(blob, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
