// Package storage is the durable client-side state store. It mirrors the
// key/value semantics of browser local storage on top of a local SQLite
// database, so session and cart snapshots survive process restarts.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Keys shared by the session store and the HTTP adapter. Credentials are kept
// under their own keys, separate from the profile snapshot, so a bug reading
// one cannot leak or clobber the other.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyAuthSnapshot = "auth-snapshot"
	KeyCartSnapshot = "cart-snapshot"
)

type entry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (entry) TableName() string { return "kv_entries" }

// Store is a durable string key/value store.
type Store struct {
	db *gorm.DB
}

// Open initializes the state database at path, creating parent directories as
// needed. Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate state database: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the value stored under key, and whether the key exists.
func (s *Store) Get(key string) (string, bool) {
	var e entry
	err := s.db.First(&e, "key = ?", key).Error
	if err != nil {
		return "", false
	}
	return e.Value, true
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

// SetMany stores all pairs in a single transaction: either every key is
// written or none is. The session store relies on this for atomic
// user+access+refresh persistence.
func (s *Store) SetMany(pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range pairs {
			e := entry{Key: key, Value: value, UpdatedAt: time.Now()}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&e).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Delete(&entry{}, "key = ?", key).Error
}

// DeleteMany removes all given keys in a single transaction.
func (s *Store) DeleteMany(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&entry{}, "key IN ?", keys).Error
	})
}

// GetJSON unmarshals the value stored under key into out. It returns false
// when the key is absent and an error when the stored value does not parse.
func (s *Store) GetJSON(key string, out any) (bool, error) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, fmt.Errorf("parse stored %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under key.
func (s *Store) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(raw))
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
