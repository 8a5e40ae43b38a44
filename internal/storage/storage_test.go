// Behaviour shared by every backend, run against each one.
package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// sampleBins returns bins with text that would break naive delimited output.
func sampleBins() []types.Bin {
	now := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	return []types.Bin{
		{ID: 3, Location: "Main St", MaterialType: "Organic", FillLevel: 50, Mode: types.ModeAuto, CreatedAt: now, UpdatedAt: now},
		{ID: 1, Location: "Dock 4, Pier \"B\"", MaterialType: "Plastic", FillLevel: 85, NeedsCollection: true, Mode: types.ModeAuto, CreatedAt: now, UpdatedAt: now},
		{ID: 2, Location: "Park\nNorth gate", MaterialType: "Metal", FillLevel: 10, NeedsCollection: true, Mode: types.ModeManual, CreatedAt: now, UpdatedAt: now.Add(time.Minute)},
	}
}

type backendCase struct {
	name string
	open func(t *testing.T, dir string) types.Backend
	// full is true when the format keeps mode and timestamps.
	full bool
}

func backendCases() []backendCase {
	return []backendCase{
		{
			name: types.BackendJSONL,
			open: func(t *testing.T, dir string) types.Backend {
				return NewJSONLBackend(filepath.Join(dir, JSONLFileName), Options{})
			},
			full: true,
		},
		{
			name: types.BackendCSV,
			open: func(t *testing.T, dir string) types.Backend {
				return NewCSVBackend(filepath.Join(dir, CSVFileName), Options{})
			},
		},
		{
			name: types.BackendSQLite,
			open: func(t *testing.T, dir string) types.Backend {
				b, err := NewSQLiteBackend(filepath.Join(dir, SQLiteFileName), Options{})
				require.NoError(t, err)
				return b
			},
			full: true,
		},
	}
}

func assertSameBins(t *testing.T, want, got []types.Bin, full bool) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID, "bin %d id", i)
		assert.Equal(t, want[i].Location, got[i].Location, "bin %d location", i)
		assert.Equal(t, want[i].MaterialType, got[i].MaterialType, "bin %d type", i)
		assert.Equal(t, want[i].FillLevel, got[i].FillLevel, "bin %d fill level", i)
		assert.Equal(t, want[i].NeedsCollection, got[i].NeedsCollection, "bin %d needs collection", i)
		if full {
			assert.Equal(t, want[i].Mode, got[i].Mode, "bin %d mode", i)
			assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt), "bin %d created_at", i)
			assert.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt), "bin %d updated_at", i)
		}
	}
}

func TestBackendRoundTrip(t *testing.T) {
	for _, tc := range backendCases() {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			b := tc.open(t, dir)
			defer b.Close()

			want := sampleBins()
			require.NoError(t, b.Save(want))

			res, err := b.Load()
			require.NoError(t, err)
			assert.Zero(t, res.Skipped)
			assertSameBins(t, want, res.Bins, tc.full)
		})
	}
}

func TestBackendRoundTripAcrossReopen(t *testing.T) {
	for _, tc := range backendCases() {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			want := sampleBins()

			b := tc.open(t, dir)
			require.NoError(t, b.Save(want))
			require.NoError(t, b.Close())

			reopened := tc.open(t, dir)
			defer reopened.Close()
			res, err := reopened.Load()
			require.NoError(t, err)
			assertSameBins(t, want, res.Bins, tc.full)
		})
	}
}

func TestBackendLoadMissingFileIsEmpty(t *testing.T) {
	for _, tc := range backendCases() {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.open(t, t.TempDir())
			defer b.Close()

			res, err := b.Load()
			require.NoError(t, err)
			assert.Empty(t, res.Bins)
			assert.Zero(t, res.Skipped)
		})
	}
}

func TestBackendSaveReplacesPreviousSet(t *testing.T) {
	for _, tc := range backendCases() {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.open(t, t.TempDir())
			defer b.Close()

			bins := sampleBins()
			require.NoError(t, b.Save(bins))
			require.NoError(t, b.Save(bins[1:2]))

			res, err := b.Load()
			require.NoError(t, err)
			assertSameBins(t, bins[1:2], res.Bins, tc.full)

			require.NoError(t, b.Save(nil))
			res, err = b.Load()
			require.NoError(t, err)
			assert.Empty(t, res.Bins)
		})
	}
}

func TestBackendClosed(t *testing.T) {
	for _, tc := range backendCases() {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.open(t, t.TempDir())
			require.NoError(t, b.Close())
			require.NoError(t, b.Close(), "Close must be idempotent")

			_, err := b.Load()
			assert.ErrorIs(t, err, types.ErrBackendClosed)
			assert.ErrorIs(t, b.Save(sampleBins()), types.ErrBackendClosed)
		})
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		backend  string
		wantPath string
	}{
		{types.BackendJSONL, JSONLFileName},
		{types.BackendCSV, CSVFileName},
		{types.BackendSQLite, SQLiteFileName},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "data")
			b, err := NewBackend(types.Config{Backend: tt.backend, DataDir: dir}, Options{})
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, filepath.Join(dir, tt.wantPath), b.Path())
			assert.DirExists(t, dir)
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewBackend(types.Config{Backend: "mongo", DataDir: t.TempDir()}, Options{})
		assert.ErrorIs(t, err, types.ErrBackendUnknown)
	})

	t.Run("empty backend", func(t *testing.T) {
		_, err := NewBackend(types.Config{DataDir: t.TempDir()}, Options{})
		assert.ErrorIs(t, err, types.ErrBackendEmpty)
	})
}
