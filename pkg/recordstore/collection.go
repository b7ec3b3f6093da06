package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Record is implemented by every value stored in a Collection.
type Record interface {
	RecordID() string
}

// Collection is a typed view over one named collection.
type Collection[T Record] struct {
	store *Store
	name  string
	tx    *Tx
}

// NewCollection returns a typed view over the named collection of s.
func NewCollection[T Record](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// WithTx returns a copy of c whose operations run inside tx.
func (c *Collection[T]) WithTx(tx *Tx) *Collection[T] {
	bound := *c
	bound.tx = tx
	return &bound
}

func (c *Collection[T]) spec() (CollectionSpec, error) {
	spec, ok := c.store.schema.collection(c.name)
	if !ok {
		return CollectionSpec{}, fmt.Errorf("%w: %s", ErrUnknownCollection, c.name)
	}
	return spec, nil
}

func (c *Collection[T]) encode(rec T) (string, []byte, error) {
	id := rec.RecordID()
	if id == "" {
		return "", nil, fmt.Errorf("%w: %s: empty id", ErrInvalidRecord, c.name)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	return id, doc, nil
}

func (c *Collection[T]) decode(doc string) (T, error) {
	var rec T
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, fmt.Errorf("decode %s record: %w", c.name, err)
	}
	return rec, nil
}

// Add inserts rec. It fails with ErrDuplicateKey when the id already exists.
func (c *Collection[T]) Add(ctx context.Context, rec T) (T, error) {
	spec, err := c.spec()
	if err != nil {
		return rec, err
	}
	id, doc, err := c.encode(rec)
	if err != nil {
		return rec, err
	}
	err = c.store.write(ctx, c.tx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			INSERT INTO records (collection, id, doc) VALUES (?, ?, ?)
			ON CONFLICT(collection, id) DO NOTHING
		`, c.name, id, string(doc))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, c.name, id)
		}
		return writeIndexEntries(ctx, q, spec, id, doc)
	})
	return rec, err
}

// Put stores rec at its id, inserting or replacing.
func (c *Collection[T]) Put(ctx context.Context, rec T) (T, error) {
	spec, err := c.spec()
	if err != nil {
		return rec, err
	}
	id, doc, err := c.encode(rec)
	if err != nil {
		return rec, err
	}
	err = c.store.write(ctx, c.tx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO records (collection, id, doc) VALUES (?, ?, ?)
			ON CONFLICT(collection, id) DO UPDATE SET
				doc = excluded.doc,
				updated_at = CURRENT_TIMESTAMP
		`, c.name, id, string(doc)); err != nil {
			return err
		}
		return writeIndexEntries(ctx, q, spec, id, doc)
	})
	return rec, err
}

// Replace overwrites an existing record. It fails with ErrNotFound when absent.
func (c *Collection[T]) Replace(ctx context.Context, rec T) (T, error) {
	spec, err := c.spec()
	if err != nil {
		return rec, err
	}
	id, doc, err := c.encode(rec)
	if err != nil {
		return rec, err
	}
	err = c.store.write(ctx, c.tx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			UPDATE records SET doc = ?, updated_at = CURRENT_TIMESTAMP
			WHERE collection = ? AND id = ?
		`, string(doc), c.name, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, c.name, id)
		}
		return writeIndexEntries(ctx, q, spec, id, doc)
	})
	return rec, err
}

// Get returns the record with id. A missing id yields found == false.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	var doc string
	err := c.store.read(ctx, c.tx, func(q querier) error {
		return q.QueryRowContext(ctx,
			"SELECT doc FROM records WHERE collection = ? AND id = ?",
			c.name, id,
		).Scan(&doc)
	})
	if err == sql.ErrNoRows {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	rec, err := c.decode(doc)
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

// All returns every record in the collection. An empty or undeclared
// collection yields an empty slice.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	return c.query(ctx, "SELECT doc FROM records WHERE collection = ? ORDER BY id", c.name)
}

// FindByIndex returns the records whose indexed field equals value.
func (c *Collection[T]) FindByIndex(ctx context.Context, index, value string) ([]T, error) {
	spec, err := c.spec()
	if err != nil {
		return []T{}, nil
	}
	if _, ok := spec.index(index); !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.name, index)
	}
	return c.query(ctx, `
		SELECT r.doc
		FROM record_index_entries e
		JOIN records r ON r.collection = e.collection AND r.id = e.record_id
		WHERE e.collection = ? AND e.index_name = ? AND e.value = ?
		ORDER BY r.id
	`, c.name, index, value)
}

// Count returns the number of records in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := c.store.read(ctx, c.tx, func(q querier) error {
		return q.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE collection = ?", c.name).Scan(&n)
	})
	return n, err
}

// Delete removes the record with id. Deleting an absent id is a no-op.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.spec(); err != nil {
		return err
	}
	return c.store.write(ctx, c.tx, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			"DELETE FROM record_index_entries WHERE collection = ? AND record_id = ?",
			c.name, id,
		); err != nil {
			return err
		}
		_, err := q.ExecContext(ctx, "DELETE FROM records WHERE collection = ? AND id = ?", c.name, id)
		return err
	})
}

// DeleteByIndex removes every record whose indexed field equals value in a
// single transaction and returns how many were removed.
func (c *Collection[T]) DeleteByIndex(ctx context.Context, index, value string) (int64, error) {
	spec, err := c.spec()
	if err != nil {
		return 0, err
	}
	if _, ok := spec.index(index); !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownIndex, c.name, index)
	}
	var removed int64
	err = c.store.write(ctx, c.tx, func(q querier) error {
		res, err := q.ExecContext(ctx, `
			DELETE FROM records
			WHERE collection = ? AND id IN (
				SELECT record_id FROM record_index_entries
				WHERE collection = ? AND index_name = ? AND value = ?
			)
		`, c.name, c.name, index, value)
		if err != nil {
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `
			DELETE FROM record_index_entries
			WHERE collection = ? AND record_id NOT IN (
				SELECT id FROM records WHERE collection = ?
			)
		`, c.name, c.name)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *Collection[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	out := []T{}
	err := c.store.read(ctx, c.tx, func(q querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var doc string
			if err := rows.Scan(&doc); err != nil {
				return err
			}
			rec, err := c.decode(doc)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
