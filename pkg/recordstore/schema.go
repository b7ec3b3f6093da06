package recordstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/tidwall/gjson"
)

//go:embed migrations/*.sql
var physicalMigrations embed.FS

// PhysicalVersion is the version of the on-disk table layout applied by Open.
const PhysicalVersion = 1

const primaryKeyPath = "id"

// IndexSpec declares a non-unique secondary index over a JSON key path.
type IndexSpec struct {
	Name    string
	KeyPath string
}

// CollectionSpec declares a named collection and its secondary indexes.
type CollectionSpec struct {
	Name    string
	Indexes []IndexSpec
}

// Schema lists the collections a Store exposes.
type Schema struct {
	Collections []CollectionSpec
}

// CollectionInfo describes a collection registered in the catalog.
type CollectionInfo struct {
	Name    string      `json:"name"`
	KeyPath string      `json:"key_path"`
	Indexes []IndexSpec `json:"indexes"`
	Records int         `json:"records"`
}

func (s Schema) validate() error {
	seen := make(map[string]struct{}, len(s.Collections))
	for _, c := range s.Collections {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return errors.New("collection name is required")
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("collection %q declared twice", name)
		}
		seen[name] = struct{}{}
		indexes := make(map[string]struct{}, len(c.Indexes))
		for _, ix := range c.Indexes {
			if strings.TrimSpace(ix.Name) == "" || strings.TrimSpace(ix.KeyPath) == "" {
				return fmt.Errorf("collection %q: index name and key path are required", name)
			}
			if _, ok := indexes[ix.Name]; ok {
				return fmt.Errorf("collection %q: index %q declared twice", name, ix.Name)
			}
			indexes[ix.Name] = struct{}{}
		}
	}
	return nil
}

func (s Schema) collection(name string) (CollectionSpec, bool) {
	for _, c := range s.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return CollectionSpec{}, false
}

func (c CollectionSpec) index(name string) (IndexSpec, bool) {
	for _, ix := range c.Indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return IndexSpec{}, false
}

// applyPhysicalSchema brings the fixed table layout up to PhysicalVersion.
func applyPhysicalSchema(db *sql.DB) error {
	src, err := iofs.New(physicalMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("load physical migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: "record_store_migrations"})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// m.Close would close the shared *sql.DB through the driver.
	if err := m.Migrate(PhysicalVersion); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply physical schema: %w", err)
	}
	return nil
}

// registerCatalog records the declared collections and indexes, backfilling
// index entries for indexes that are new or whose key path changed.
func registerCatalog(ctx context.Context, db *sql.DB, schema Schema) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range schema.Collections {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO collections (name, key_path) VALUES (?, ?)",
			c.Name, primaryKeyPath,
		); err != nil {
			return err
		}
		for _, ix := range c.Indexes {
			var current sql.NullString
			err := tx.QueryRowContext(ctx,
				"SELECT key_path FROM collection_indexes WHERE collection = ? AND name = ?",
				c.Name, ix.Name,
			).Scan(&current)
			if err != nil && err != sql.ErrNoRows {
				return err
			}
			if current.Valid && current.String == ix.KeyPath {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO collection_indexes (collection, name, key_path)
				VALUES (?, ?, ?)
				ON CONFLICT(collection, name) DO UPDATE SET key_path = excluded.key_path
			`, c.Name, ix.Name, ix.KeyPath); err != nil {
				return err
			}
			if err := rebuildIndex(ctx, tx, c.Name, ix); err != nil {
				return fmt.Errorf("rebuild index %s.%s: %w", c.Name, ix.Name, err)
			}
		}
	}

	return tx.Commit()
}

func rebuildIndex(ctx context.Context, q querier, collection string, ix IndexSpec) error {
	if _, err := q.ExecContext(ctx,
		"DELETE FROM record_index_entries WHERE collection = ? AND index_name = ?",
		collection, ix.Name,
	); err != nil {
		return err
	}
	rows, err := q.QueryContext(ctx, "SELECT id, doc FROM records WHERE collection = ?", collection)
	if err != nil {
		return err
	}
	type entry struct{ id, value string }
	var entries []entry
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			rows.Close()
			return err
		}
		if v := gjson.Get(doc, ix.KeyPath); v.Exists() {
			entries = append(entries, entry{id: id, value: v.String()})
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO record_index_entries (collection, index_name, value, record_id) VALUES (?, ?, ?, ?)",
			collection, ix.Name, e.value, e.id,
		); err != nil {
			return err
		}
	}
	return nil
}

// writeIndexEntries replaces the index entries of one record.
func writeIndexEntries(ctx context.Context, q querier, spec CollectionSpec, id string, doc []byte) error {
	if len(spec.Indexes) == 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx,
		"DELETE FROM record_index_entries WHERE collection = ? AND record_id = ?",
		spec.Name, id,
	); err != nil {
		return err
	}
	for _, ix := range spec.Indexes {
		v := gjson.GetBytes(doc, ix.KeyPath)
		if !v.Exists() {
			continue
		}
		if _, err := q.ExecContext(ctx,
			"INSERT INTO record_index_entries (collection, index_name, value, record_id) VALUES (?, ?, ?, ?)",
			spec.Name, ix.Name, v.String(), id,
		); err != nil {
			return err
		}
	}
	return nil
}
