package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/worldpeas/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// entry is the single-table representation of the blob store.
type entry struct {
	K string `gorm:"primaryKey;type:varchar(191)"`
	V string `gorm:"type:longtext"`
}

func (entry) TableName() string {
	return "kv_entries"
}

// MySQLStore implements the blob store on a key/value table, for deployments
// that already run MySQL and do not want a separate Redis.
type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(cfg *config.MySQLConfig) (*MySQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Get(ctx context.Context, key string, dest interface{}) error {
	var e entry
	if err := s.db.WithContext(ctx).Where("k = ?", key).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("mysql get %q: %w", key, err)
	}
	return json.Unmarshal([]byte(e.V), dest)
}

func (s *MySQLStore) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := entry{K: key, V: string(data)}
	return s.db.WithContext(ctx).Save(&e).Error
}

func (s *MySQLStore) Del(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("k = ?", key).Delete(&entry{}).Error
}

func (s *MySQLStore) GetByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	var entries []entry
	pattern := strings.ReplaceAll(strings.ReplaceAll(prefix, "%", "\\%"), "_", "\\_") + "%"
	if err := s.db.WithContext(ctx).Where("k LIKE ?", pattern).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("mysql prefix scan %q: %w", prefix, err)
	}
	blobs := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		blobs = append(blobs, json.RawMessage(e.V))
	}
	return blobs, nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
