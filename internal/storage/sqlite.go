// SQLite backend: bins live in a single table ordered by position.
package storage

import (
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// SQLiteBackend stores bins in a single SQLite table. Save replaces every
// row inside one transaction, so a failed save leaves the previous set intact.
type SQLiteBackend struct {
	mu   sync.Mutex
	path string
	opts Options
	db   *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at path and applies the
// schema.
func NewSQLiteBackend(path string, opts Options) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema to %s: %w", path, err)
		}
	}
	return &SQLiteBackend{path: path, opts: opts, db: db}, nil
}

// Path returns the database file location.
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Load reads every bin ordered by position.
func (b *SQLiteBackend) Load() (types.LoadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res types.LoadResult
	if b.db == nil {
		return res, types.ErrBackendClosed
	}

	rows, err := b.db.Query(`SELECT position, bin_id, location, material_type, fill_level,
    needs_collection, mode, created_at, updated_at FROM bins ORDER BY position`)
	if err != nil {
		return res, fmt.Errorf("querying bins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position int
			rec      binJSON
			needs    int
		)
		if err := rows.Scan(&position, &rec.ID, &rec.Location, &rec.MaterialType, &rec.FillLevel,
			&needs, &rec.Mode, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return types.LoadResult{}, fmt.Errorf("scanning bin: %w", err)
		}
		rec.NeedsCollection = needs != 0

		// Rows are reported 1-based, like file lines.
		bin, err := rec.toBin()
		if err != nil {
			if err := rejectRecord(b.opts, &res, b.path, position+1, err); err != nil {
				return types.LoadResult{}, err
			}
			continue
		}
		res.Bins = append(res.Bins, bin)
	}
	if err := rows.Err(); err != nil {
		return types.LoadResult{}, fmt.Errorf("iterating bins: %w", err)
	}

	b.opts.logger().Debug("loaded bins",
		zap.String("path", b.path),
		zap.Int("count", len(res.Bins)),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// Save replaces every row with bins in one transaction.
func (b *SQLiteBackend) Save(bins []types.Bin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return types.ErrBackendClosed
	}

	if err := b.replaceAll(bins); err != nil {
		b.opts.logger().Error("failed to save bins", zap.String("path", b.path), zap.Error(err))
		return fmt.Errorf("saving %s: %w", b.path, err)
	}
	return nil
}

func (b *SQLiteBackend) replaceAll(bins []types.Bin) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM bins"); err != nil {
		return fmt.Errorf("clearing bins: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO bins (position, bin_id, location, material_type,
    fill_level, needs_collection, mode, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, bin := range bins {
		rec := binToJSON(bin)
		needs := 0
		if rec.NeedsCollection {
			needs = 1
		}
		if _, err := stmt.Exec(i, rec.ID, rec.Location, rec.MaterialType, rec.FillLevel,
			needs, rec.Mode, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return fmt.Errorf("inserting bin %d: %w", bin.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database. Idempotent.
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
