package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/infrastructure/sqlitedb"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"go.uber.org/zap"
)

// Schema creates the media table
const Schema = `CREATE TABLE IF NOT EXISTS media (
	key    TEXT PRIMARY KEY,
	kind   TEXT NOT NULL CHECK (kind IN ('blob', 'dataurl')),
	mime   TEXT NOT NULL,
	ts     INTEGER NOT NULL,
	digest TEXT NOT NULL,
	body   BLOB NOT NULL
)`

const (
	kindBlob    = "blob"
	kindDataURL = "dataurl"
)

// SQLiteStore is the durable media store
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates the schema if needed
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("media schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Put writes p under key, replacing any previous value
func (s *SQLiteStore) Put(ctx context.Context, key string, p *Payload) error {
	key = cleanKey(key)
	if key == "" {
		return failure.Newf(failure.KindInvalidInput, "media.put", "empty key")
	}
	if err := p.Validate(); err != nil {
		return failure.New(failure.KindInvalidInput, "media.put", err)
	}

	kind, body := kindBlob, p.Blob
	if p.IsDataURL() {
		compressed, err := compress([]byte(p.DataURL))
		if err != nil {
			return failure.New(failure.KindStorage, "media.put", err)
		}
		kind, body = kindDataURL, compressed
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	p.Digest = digestOf(p)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media (key, kind, mime, ts, digest, body) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, mime = excluded.mime,
		 ts = excluded.ts, digest = excluded.digest, body = excluded.body`,
		key, kind, p.Type, p.Timestamp.UnixMilli(), p.Digest, body)
	if err != nil {
		return s.classify("media.put", key, err)
	}
	return nil
}

// Get reads the payload under key, (nil, nil) when absent
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Payload, error) {
	var (
		kind, mime, dig string
		ts              int64
		body            []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, mime, ts, digest, body FROM media WHERE key = ?`, cleanKey(key),
	).Scan(&kind, &mime, &ts, &dig, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.classify("media.get", key, err)
	}

	p := &Payload{Type: mime, Timestamp: time.UnixMilli(ts), Digest: dig}
	if kind == kindDataURL {
		raw, err := decompress(body)
		if err != nil {
			return nil, failure.New(failure.KindStorage, "media.get", fmt.Errorf("corrupt body for %s: %w", key, err))
		}
		p.DataURL = string(raw)
	} else {
		p.Blob = body
	}
	return p, nil
}

// Delete removes key; deleting a missing key is not an error
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE key = ?`, cleanKey(key)); err != nil {
		return s.classify("media.delete", key, err)
	}
	return nil
}

// Keys lists every stored key, oldest first
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM media ORDER BY ts, key`)
	if err != nil {
		return nil, s.classify("media.keys", "", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, s.classify("media.keys", "", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("media.keys", "", err)
	}
	return keys, nil
}

func (s *SQLiteStore) classify(op, key string, err error) error {
	switch {
	case sqlitedb.IsFull(err):
		s.logger.Warn("media store quota exceeded", zap.String("op", op), zap.String("key", key))
		return failure.New(failure.KindStorage, op, fmt.Errorf("quota exceeded: %w", err))
	case sqlitedb.IsBusy(err):
		s.logger.Warn("media store blocked", zap.String("op", op), zap.String("key", key))
		return failure.New(failure.KindStorage, op, fmt.Errorf("database blocked: %w", err))
	default:
		return failure.New(failure.KindStorage, op, err)
	}
}
