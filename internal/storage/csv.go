// CSV backend for the legacy waste_bins.txt line format:
//
//	<id>,<location>,<materialType>,<fillLevel>,<needsCollection>
//
// with needsCollection written as 0 or 1. Fields that contain a comma, quote,
// or newline are quoted, so free text round-trips.
package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// csvFieldCount is the number of fields in every CSV record.
const csvFieldCount = 5

// CSVBackend stores bins in the legacy comma-separated format. The format
// carries no collection mode or timestamps; loaded bins have an empty Mode
// and zero times.
type CSVBackend struct {
	mu     sync.Mutex
	path   string
	opts   Options
	closed bool
}

// NewCSVBackend returns a backend that reads and writes path.
func NewCSVBackend(path string, opts Options) *CSVBackend {
	return &CSVBackend{path: path, opts: opts}
}

// Path returns the data file location.
func (b *CSVBackend) Path() string {
	return b.path
}

// Load reads every bin from the data file.
func (b *CSVBackend) Load() (types.LoadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res types.LoadResult
	if b.closed {
		return res, types.ErrBackendClosed
	}

	f, err := os.Open(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return res, fmt.Errorf("opening %s: %w", b.path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return types.LoadResult{}, fmt.Errorf("reading %s: %w", b.path, err)
			}
			if err := rejectRecord(b.opts, &res, b.path, perr.StartLine, perr.Err); err != nil {
				return types.LoadResult{}, err
			}
			continue
		}

		line, _ := r.FieldPos(0)
		bin, err := parseCSVRecord(fields)
		if err != nil {
			if err := rejectRecord(b.opts, &res, b.path, line, err); err != nil {
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

// parseCSVRecord converts one record. Every field must be present and the
// numeric and boolean fields must parse completely.
func parseCSVRecord(fields []string) (types.Bin, error) {
	if len(fields) != csvFieldCount {
		return types.Bin{}, fmt.Errorf("expected %d fields, got %d", csvFieldCount, len(fields))
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return types.Bin{}, fmt.Errorf("parsing id: %w", err)
	}
	level, err := strconv.Atoi(fields[3])
	if err != nil {
		return types.Bin{}, fmt.Errorf("parsing fill level: %w", err)
	}
	needs, err := strconv.ParseBool(fields[4])
	if err != nil {
		return types.Bin{}, fmt.Errorf("parsing needs collection: %w", err)
	}
	return types.Bin{
		ID:              id,
		Location:        fields[1],
		MaterialType:    fields[2],
		FillLevel:       level,
		NeedsCollection: needs,
	}, nil
}

// Save atomically replaces the data file with bins.
func (b *CSVBackend) Save(bins []types.Bin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return types.ErrBackendClosed
	}

	err := writeAtomic(b.path, ".csv-*.tmp", func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		for _, bin := range bins {
			if err := cw.Write(formatCSVRecord(bin)); err != nil {
				return fmt.Errorf("writing bin %d: %w", bin.ID, err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		b.opts.logger().Error("failed to save bins", zap.String("path", b.path), zap.Error(err))
		return fmt.Errorf("saving %s: %w", b.path, err)
	}
	return nil
}

func formatCSVRecord(bin types.Bin) []string {
	needs := "0"
	if bin.NeedsCollection {
		needs = "1"
	}
	return []string{
		strconv.Itoa(bin.ID),
		bin.Location,
		bin.MaterialType,
		strconv.Itoa(bin.FillLevel),
		needs,
	}
}

// Close marks the backend closed. Idempotent.
func (b *CSVBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
