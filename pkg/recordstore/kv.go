package recordstore

import (
	"context"
	"database/sql"
)

// The scalar area holds loose string values outside every collection: the
// schema generation marker, migration leases and legacy flat-list blobs.

// GetValue returns the scalar stored under key.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	return getValue(ctx, s, nil, key)
}

// HasValue reports whether key holds a value.
func (s *Store) HasValue(ctx context.Context, key string) (bool, error) {
	_, ok, err := getValue(ctx, s, nil, key)
	return ok, err
}

// SetValue stores value under key, replacing any previous value.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	return s.write(ctx, nil, func(q querier) error {
		return setValue(ctx, q, key, value)
	})
}

// DeleteValue removes key. Removing an absent key is a no-op.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	return s.write(ctx, nil, func(q querier) error {
		return deleteValue(ctx, q, key)
	})
}

// GetValue reads key inside the transaction.
func (t *Tx) GetValue(ctx context.Context, key string) (string, bool, error) {
	return getValue(ctx, t.store, t, key)
}

// HasValue reports whether key holds a value inside the transaction.
func (t *Tx) HasValue(ctx context.Context, key string) (bool, error) {
	_, ok, err := getValue(ctx, t.store, t, key)
	return ok, err
}

// SetValue writes key inside the transaction.
func (t *Tx) SetValue(ctx context.Context, key, value string) error {
	return setValue(ctx, t.tx, key, value)
}

// DeleteValue removes key inside the transaction.
func (t *Tx) DeleteValue(ctx context.Context, key string) error {
	return deleteValue(ctx, t.tx, key)
}

func getValue(ctx context.Context, s *Store, tx *Tx, key string) (string, bool, error) {
	var value string
	err := s.read(ctx, tx, func(q querier) error {
		return q.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	})
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func setValue(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

func deleteValue(ctx context.Context, q querier, key string) error {
	_, err := q.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}
