package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// JSONLBackend stores bins as one JSON object per line. It is the default
// backend: every text field round-trips regardless of its content.
type JSONLBackend struct {
	mu     sync.Mutex
	path   string
	opts   Options
	closed bool
}

// NewJSONLBackend returns a backend that reads and writes path.
func NewJSONLBackend(path string, opts Options) *JSONLBackend {
	return &JSONLBackend{path: path, opts: opts}
}

// Path returns the data file location.
func (b *JSONLBackend) Path() string {
	return b.path
}

// Load reads every bin from the data file.
func (b *JSONLBackend) Load() (types.LoadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res types.LoadResult
	if b.closed {
		return res, types.ErrBackendClosed
	}

	lines, err := readJSONL(b.path)
	if err != nil {
		return res, err
	}

	for _, line := range lines {
		bin, err := decodeBinLine(line.data)
		if err != nil {
			if err := rejectRecord(b.opts, &res, b.path, line.num, err); err != nil {
				return types.LoadResult{}, err
			}
			continue
		}
		res.Bins = append(res.Bins, bin)
	}

	b.opts.logger().Debug("loaded bins",
		zap.String("path", b.path),
		zap.Int("count", len(res.Bins)),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// Save atomically replaces the data file with bins.
func (b *JSONLBackend) Save(bins []types.Bin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return types.ErrBackendClosed
	}

	records := make([]json.RawMessage, 0, len(bins))
	for _, bin := range bins {
		data, err := json.Marshal(binToJSON(bin))
		if err != nil {
			return fmt.Errorf("marshaling bin %d: %w", bin.ID, err)
		}
		records = append(records, data)
	}

	if err := writeJSONL(b.path, records); err != nil {
		b.opts.logger().Error("failed to save bins", zap.String("path", b.path), zap.Error(err))
		return fmt.Errorf("saving %s: %w", b.path, err)
	}
	return nil
}

// Close marks the backend closed. Idempotent.
func (b *JSONLBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
