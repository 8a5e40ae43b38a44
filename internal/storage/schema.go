package storage

// Schema DDL for the SQLite backend. The position column keeps the store's
// insertion order, since bin ids are operator-assigned and carry no order.
const (
	createBins = `CREATE TABLE IF NOT EXISTS bins (
    position INTEGER NOT NULL,
    bin_id INTEGER NOT NULL,
    location TEXT NOT NULL,
    material_type TEXT NOT NULL,
    fill_level INTEGER NOT NULL,
    needs_collection INTEGER NOT NULL,
    mode TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT ''
);`

	idxBinsPosition = `CREATE INDEX IF NOT EXISTS idx_bins_position ON bins(position);`
)

// schemaDDL lists the statements run when the database is opened.
var schemaDDL = []string{
	createBins,
	idxBinsPosition,
}
