package storage

import (
	"context"       // Context for database calls
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel comparison
	"fmt"           // Error wrapping

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Upsert clause
)

// Entry Model, one row per persisted key
type Entry struct {
	Key       string `gorm:"column:entry_key;primaryKey;size:191"` // Storage key
	Value     string `gorm:"type:text;not null"`                   // JSON payload
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"`                 // Last write in milliseconds
}

// TableName pins the table name used by migrations and queries
func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore keeps values in a SQL table through GORM
type GormStore struct {
	db *gorm.DB // Database handle
}

// NewGormStore returns a Store backed by db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load reads the row for key and unmarshals its payload into dest
func (s *GormStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	var entry Entry // Row holder
	// Query entry by key
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(entry.Value), dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err) // Corrupt payload
	}
	return true, nil
}

// Save upserts the row for key
func (s *GormStore) Save(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	entry := Entry{Key: key, Value: string(b)}
	// Insert or replace the payload in one statement
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
