// Package localcache mirrors small pieces of state to on-device storage: the
// site settings and pages blobs (read eagerly at startup as a fallback before
// the network answers), the session token, and the unsynced-order journal.
// Each well-known key is one JSON file in the cache directory; a malformed or
// absent file degrades to "no cached value", never to an error the caller
// must handle.
package localcache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Well-known keys, kept stable across releases.
const (
	KeySiteSettings  = "siteSettings"
	KeyPagesContent  = "pagesContent"
	KeyAccessToken   = "access_token"
	KeyPendingOrders = "pendingOrders"
)

type Cache struct {
	dir    string
	logger *zap.Logger
}

// Open prepares the cache directory. The directory is created on first use.
func Open(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, logger: logger}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get reads the blob stored under key into dest. It returns false when no
// usable value exists; a corrupt blob is removed so it cannot keep failing.
func (c *Cache) Get(key string, dest interface{}) bool {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("Failed to read cached value", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("Discarding malformed cached value", zap.String("key", key), zap.Error(err))
		_ = os.Remove(c.path(key))
		return false
	}
	return true
}

// Set overwrites the blob under key. Writes go through a temp file so a crash
// mid-write cannot leave a truncated blob behind.
func (c *Cache) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(key))
}

// Del removes the blob under key. Removing an absent key is not an error.
func (c *Cache) Del(key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Token returns the persisted session token, or "" when logged out.
func (c *Cache) Token() string {
	var token string
	if !c.Get(KeyAccessToken, &token) {
		return ""
	}
	return token
}

// SaveToken persists the opaque session token.
func (c *Cache) SaveToken(token string) error {
	return c.Set(KeyAccessToken, token)
}

// ClearToken drops the persisted session token.
func (c *Cache) ClearToken() error {
	return c.Del(KeyAccessToken)
}
