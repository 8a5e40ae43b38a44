package types

// Backend persists the full set of bins. Every Save replaces what was stored
// before; there is no incremental update.
type Backend interface {
	// Load reads every stored bin in stored order. A missing data file
	// yields an empty result, not an error.
	Load() (LoadResult, error)

	// Save replaces the stored set with bins, preserving their order.
	Save(bins []Bin) error

	// Close releases backend resources. Idempotent.
	Close() error

	// Path returns the location of the data file.
	Path() string
}

// LoadResult is the outcome of Backend.Load.
type LoadResult struct {
	Bins []Bin

	// Skipped counts malformed records that were dropped.
	Skipped int
}
