// Package sqlite implements the durable local cache on an SQLite file via gorm.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"luminapos/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// CacheEntry is one cached JSON value.
type CacheEntry struct {
	Key       string `gorm:"column:cache_key;primaryKey"`
	Value     []byte `gorm:"column:value;not null"`
	UpdatedAt time.Time
}

// TableName pins the table name.
func (CacheEntry) TableName() string { return "cache_entries" }

// Cache implements domain.CacheStore on a gorm database.
type Cache struct {
	db *gorm.DB
}

var _ domain.CacheStore = (*Cache)(nil)

// Open opens or creates the cache database at path and migrates it.
func Open(path string) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	return New(db)
}

// New wraps an open gorm database and migrates the cache table.
func New(db *gorm.DB) (*Cache, error) {
	if err := db.AutoMigrate(&CacheEntry{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying connection.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Cache) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var e CacheEntry
	err := c.db.WithContext(ctx).Where("cache_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e.Value, true, nil
}

func (c *Cache) Write(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	e := CacheEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}
