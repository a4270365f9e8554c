package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/homescreen/internal/infrastructure/sqlitedb"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Schema creates the settings table
const Schema = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

const upsertSQL = `INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

// Store is the persisted key/value settings store. Values are JSON; a
// missing or undecodable value reads as its default.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]string

	subsMu sync.RWMutex
	subs   []func(key string, value interface{})
}

// NewStore creates the schema and warms the cache
func NewStore(ctx context.Context, db *sql.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return nil, fmt.Errorf("settings schema: %w", err)
	}

	s := &Store{db: db, logger: logger, cache: make(map[string]string)}
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		s.cache[k] = v
	}
	return s, rows.Err()
}

// OnChange registers fn to be called after every successful Set/Reset of a
// user facing setting
func (s *Store) OnChange(fn func(key string, value interface{})) {
	s.subsMu.Lock()
	s.subs = append(s.subs, fn)
	s.subsMu.Unlock()
}

// Get returns the value of a user facing setting, falling back to its default
func (s *Store) Get(key string) (interface{}, error) {
	def, ok := Default(key)
	if !ok {
		return nil, failure.Newf(failure.KindNotFound, "settings.get", "unknown setting %q", key)
	}
	var v interface{}
	found, err := s.GetJSON(key, &v)
	if err != nil || !found || !sameKind(v, def) {
		return def, nil
	}
	return v, nil
}

// Bool reads a boolean setting
func (s *Store) Bool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// String reads a string setting
func (s *Store) String(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Set validates and persists a user facing setting
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	def, ok := Default(key)
	if !ok {
		return failure.Newf(failure.KindNotFound, "settings.set", "unknown setting %q", key)
	}
	value = normalize(value)
	if !sameKind(value, def) {
		return failure.Newf(failure.KindInvalidInput, "settings.set", "%s expects %T, got %T", key, def, value)
	}
	if err := s.SetJSON(ctx, key, value); err != nil {
		return err
	}
	s.notify(key, value)
	return nil
}

// GetJSON decodes the raw value of any key into out. found is false when the
// key was never written. A corrupt value is logged and reported as not found.
func (s *Store) GetJSON(key string, out interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := sonic.UnmarshalString(raw, out); err != nil {
		s.logger.Warn("corrupt setting, using default", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// SetJSON encodes value and persists it under any key
func (s *Store) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := sonic.MarshalString(value)
	if err != nil {
		return failure.New(failure.KindInvalidInput, "settings.set", err)
	}
	return s.put(ctx, key, raw)
}

// SetJSONs persists several keys in one transaction: either every value is
// written or none is
func (s *Store) SetJSONs(ctx context.Context, values map[string]interface{}) error {
	raws := make(map[string]string, len(values))
	for k, v := range values {
		raw, err := sonic.MarshalString(v)
		if err != nil {
			return failure.New(failure.KindInvalidInput, "settings.set", err)
		}
		raws[k] = raw
	}
	err := sqlitedb.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		for k, raw := range raws {
			if _, err := tx.ExecContext(ctx, upsertSQL, k, raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("settings.set", err)
	}
	s.mu.Lock()
	for k, raw := range raws {
		s.cache[k] = raw
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a key entirely
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return storageErr("settings.delete", err)
	}
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
	return nil
}

// Reset restores a user facing setting to its default
func (s *Store) Reset(ctx context.Context, key string) error {
	def, ok := Default(key)
	if !ok {
		return failure.Newf(failure.KindNotFound, "settings.reset", "unknown setting %q", key)
	}
	if err := s.Delete(ctx, key); err != nil {
		return err
	}
	s.notify(key, def)
	return nil
}

// All returns every user facing setting with its effective value, sorted by key
func (s *Store) All() []Setting {
	out := make([]Setting, 0, len(defaults))
	for key, d := range defaults {
		v, _ := s.Get(key)
		out = append(out, Setting{
			Key:         key,
			Value:       v,
			Default:     d.Default,
			Category:    d.Category,
			Description: d.Description,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *Store) put(ctx context.Context, key, raw string) error {
	_, err := s.db.ExecContext(ctx, upsertSQL, key, raw)
	if err != nil {
		return storageErr("settings.set", err)
	}
	s.mu.Lock()
	s.cache[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) notify(key string, value interface{}) {
	s.subsMu.RLock()
	subs := append([]func(string, interface{}){}, s.subs...)
	s.subsMu.RUnlock()
	for _, fn := range subs {
		fn(key, value)
	}
}

func storageErr(op string, err error) error {
	switch {
	case sqlitedb.IsFull(err):
		err = fmt.Errorf("quota exceeded: %w", err)
	case sqlitedb.IsBusy(err):
		err = fmt.Errorf("database blocked: %w", err)
	case errors.Is(err, sql.ErrConnDone):
		err = fmt.Errorf("database closed: %w", err)
	}
	return failure.New(failure.KindStorage, op, err)
}

// normalize widens numbers so JSON-decoded and Go-typed values compare alike
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

func sameKind(v, def interface{}) bool {
	switch def.(type) {
	case bool:
		_, ok := v.(bool)
		return ok
	case string:
		_, ok := v.(string)
		return ok
	case float64:
		_, ok := normalize(v).(float64)
		return ok
	}
	return false
}
