// Package recordstore is a durable, transactional object store partitioned into
// named collections of JSON documents keyed by id, with non-unique secondary
// indexes over document key paths and a small scalar key-value area.
//
// It is backed by SQLite through modernc.org/sqlite. The physical layout is
// fixed and versioned independently from the collections it hosts.
package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Options controls Store construction.
type Options struct {
	Path        string
	Schema      Schema
	Logger      *slog.Logger
	BusyTimeout time.Duration
}

// Store owns the database handle. It is safe for concurrent use.
type Store struct {
	path        string
	schema      Schema
	logger      *slog.Logger
	busyTimeout time.Duration

	mu sync.Mutex
	db *sql.DB
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New validates the options and returns a Store that opens lazily.
func New(opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if path != memoryPath {
		path = filepath.Clean(path)
	}
	if err := opts.Schema.validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	return &Store{
		path:        path,
		schema:      opts.Schema,
		logger:      logger,
		busyTimeout: busy,
	}, nil
}

// Open constructs a Store and opens it immediately.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Open establishes the database handle, the physical layout and the declared
// collections. It is idempotent and concurrent callers share one handle.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.handle(ctx)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Schema returns the declared collections.
func (s *Store) Schema() Schema {
	return s.schema
}

// Close releases the database handle. A later operation reopens it.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := s.open(ctx)
	if err != nil {
		s.logger.Error("record store open failed", "path", s.path, "err", err)
		return nil, err
	}
	s.db = db
	return db, nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	if s.path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %w", ErrStoreUnavailable, err)
		}
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %w", ErrStoreUnavailable, err)
	}
	// SQLite performs best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	fail := func(stage string, err error) (*sql.DB, error) {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, stage, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return fail("ping", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds())); err != nil {
		s.logger.Warn("pragma busy_timeout failed", "err", err)
	}
	if err := applyPhysicalSchema(db); err != nil {
		return fail("physical schema", err)
	}
	if err := registerCatalog(ctx, db, s.schema); err != nil {
		return fail("register collections", err)
	}
	s.logger.Debug("record store opened", "path", s.path, "collections", len(s.schema.Collections))
	return db, nil
}

// Tx is a multi-collection transaction. Bind collections to it with WithTx.
type Tx struct {
	store *Store
	tx    *sql.Tx
}

// Store returns the store the transaction belongs to.
func (t *Tx) Store() *Store {
	return t.store
}

// Update runs fn inside one transaction spanning every collection and the
// scalar area. fn must only use collections bound with WithTx(tx) and the
// methods on tx; the store holds a single connection, so operations issued
// outside tx block until it finishes.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				s.logger.Error("transaction rollback failed on panic", "err", rbErr, "panic_value", p)
			}
			panic(p)
		}
	}()

	if err := fn(&Tx{store: s, tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error("transaction rollback failed", "err", rbErr, "original_error", err)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Collections lists the catalog with per-collection record counts.
func (s *Store) Collections(ctx context.Context) ([]CollectionInfo, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT c.name, c.key_path,
			(SELECT COUNT(*) FROM records r WHERE r.collection = c.name)
		FROM collections c
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	var infos []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.KeyPath, &info.Records); err != nil {
			rows.Close()
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range infos {
		ixRows, err := db.QueryContext(ctx,
			"SELECT name, key_path FROM collection_indexes WHERE collection = ? ORDER BY name",
			infos[i].Name,
		)
		if err != nil {
			return nil, err
		}
		for ixRows.Next() {
			var ix IndexSpec
			if err := ixRows.Scan(&ix.Name, &ix.KeyPath); err != nil {
				ixRows.Close()
				return nil, err
			}
			infos[i].Indexes = append(infos[i].Indexes, ix)
		}
		if err := ixRows.Close(); err != nil {
			return nil, err
		}
	}
	return infos, nil
}

// write runs fn in tx when bound, otherwise in a transaction of its own.
func (s *Store) write(ctx context.Context, tx *Tx, fn func(querier) error) error {
	if tx != nil {
		return fn(tx.tx)
	}
	return s.Update(ctx, func(t *Tx) error {
		return fn(t.tx)
	})
}

// read runs fn against tx when bound, otherwise against the shared handle.
func (s *Store) read(ctx context.Context, tx *Tx, fn func(querier) error) error {
	if tx != nil {
		return fn(tx.tx)
	}
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	return fn(db)
}
