// Backend selection and shared load helpers.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// Data file names inside the data directory.
const (
	JSONLFileName   = "bins.jsonl"
	CSVFileName     = "waste_bins.txt"
	SQLiteFileName  = "wastebin.db"
	HistoryFileName = "history.jsonl"
)

// Options configures a backend.
type Options struct {
	// Strict makes Load fail with types.ErrCorruptRecord on the first
	// malformed record instead of skipping it.
	Strict bool

	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// NewBackend creates the backend selected by cfg.Backend inside cfg.DataDir,
// creating the directory if it does not exist.
func NewBackend(cfg types.Config, opts Options) (types.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := DataDir(cfg)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dataDir, err)
	}

	switch cfg.Backend {
	case types.BackendJSONL:
		return NewJSONLBackend(filepath.Join(dataDir, JSONLFileName), opts), nil
	case types.BackendCSV:
		return NewCSVBackend(filepath.Join(dataDir, CSVFileName), opts), nil
	case types.BackendSQLite:
		return NewSQLiteBackend(filepath.Join(dataDir, SQLiteFileName), opts)
	default:
		return nil, types.ErrBackendUnknown
	}
}

// DataDir returns cfg.DataDir, or the current directory when it is empty.
func DataDir(cfg types.Config) string {
	if cfg.DataDir == "" {
		return "."
	}
	return cfg.DataDir
}

// rejectRecord handles a malformed record found at path:line. In strict mode
// it returns an error wrapping types.ErrCorruptRecord; otherwise it logs the
// record, counts it in res, and returns nil so loading continues.
func rejectRecord(opts Options, res *types.LoadResult, path string, line int, cause error) error {
	if opts.Strict {
		return fmt.Errorf("%s line %d: %w: %v", path, line, types.ErrCorruptRecord, cause)
	}
	opts.logger().Warn("skipping malformed record",
		zap.String("path", path),
		zap.Int("line", line),
		zap.Error(cause),
	)
	res.Skipped++
	return nil
}
