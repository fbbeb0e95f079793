// Package storage is the persistence adapter: named JSON blobs behind a key/value backend.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Key names a persisted blob.
type Key string

const (
	KeySettings         Key = "settings"
	KeyRecipeCategories Key = "recipeCategories"
	KeyRecipes          Key = "recipes"
	KeyMealPlan         Key = "mealPlan"
	KeyEatenLog         Key = "eatenLog"
	KeyShoppingList     Key = "shoppingList"
)

// Backend stores raw values by key.
type Backend interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
}

// Store reads and writes JSON values through a Backend.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore creates a new Store.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Load decodes the value stored under key into a T. A missing key, a backend
// failure or malformed JSON yields def; the failure is logged, never returned.
func Load[T any](ctx context.Context, s *Store, key Key, def T) T {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read stored value, using default", zap.String("key", string(key)), zap.Error(err))
		return def
	}
	if !ok {
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.Warn("stored value is not valid JSON, using default", zap.String("key", string(key)), zap.Error(err))
		return def
	}
	return v
}

// Save serializes v and writes it under key.
func (s *Store) Save(ctx context.Context, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *Store) Delete(ctx context.Context, key Key) error {
	return s.backend.Delete(ctx, key)
}

// SQLBackend keeps values in the kv_store table.
type SQLBackend struct {
	db *sql.DB
}

// NewSQLBackend creates a new SQLBackend.
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

func (b *SQLBackend) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, string(key)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (b *SQLBackend) Put(ctx context.Context, key Key, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(key), string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (b *SQLBackend) Delete(ctx context.Context, key Key) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, string(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// MemoryBackend keeps values in memory. Used by tests and ephemeral runs.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[Key][]byte
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[Key][]byte)}
}

func (b *MemoryBackend) Get(_ context.Context, key Key) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (b *MemoryBackend) Put(_ context.Context, key Key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key Key) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}
