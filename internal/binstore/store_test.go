// Tests for the record store lifecycle and collection policy.
package binstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wastebin/internal/storage"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// memBackend is an in-memory types.Backend that records saves.
type memBackend struct {
	loaded  types.LoadResult
	loadErr error
	saveErr error
	saved   [][]types.Bin
	closed  bool
}

func (m *memBackend) Load() (types.LoadResult, error) { return m.loaded, m.loadErr }

func (m *memBackend) Save(bins []types.Bin) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := make([]types.Bin, len(bins))
	copy(cp, bins)
	m.saved = append(m.saved, cp)
	return nil
}

func (m *memBackend) Close() error { m.closed = true; return nil }

func (m *memBackend) Path() string { return "mem" }

func (m *memBackend) lastSaved() []types.Bin {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

func openEmpty(t *testing.T, opts Options) (*Store, *memBackend) {
	t.Helper()
	backend := &memBackend{}
	s, err := Open(backend, opts)
	require.NoError(t, err)
	return s, backend
}

func ids(bins []types.Bin) []int {
	out := make([]int, len(bins))
	for i, b := range bins {
		out[i] = b.ID
	}
	return out
}

func TestRegisterThenList(t *testing.T) {
	s, _ := openEmpty(t, Options{})

	require.NoError(t, s.Register(types.Bin{ID: 1, Location: "Main St", MaterialType: "Organic", FillLevel: 50}))

	bins := s.List()
	require.Len(t, bins, 1)
	b := bins[0]
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, "Main St", b.Location)
	assert.Equal(t, "Organic", b.MaterialType)
	assert.Equal(t, 50, b.FillLevel)
	assert.False(t, b.NeedsCollection)
	assert.Equal(t, types.ModeAuto, b.Mode)
	assert.False(t, b.CreatedAt.IsZero())
	assert.Equal(t, b.CreatedAt, b.UpdatedAt)
}

func TestRegisterDerivesFlagFromLevel(t *testing.T) {
	s, _ := openEmpty(t, Options{})

	require.NoError(t, s.Register(types.Bin{ID: 1, FillLevel: 90}))
	b, ok := s.FindByID(1)
	require.True(t, ok)
	assert.True(t, b.NeedsCollection)
}

func TestRegisterDuplicateRejected(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	require.NoError(t, s.Register(types.Bin{ID: 1, Location: "Main St", FillLevel: 50}))

	before := s.Len()
	err := s.Register(types.Bin{ID: 1, Location: "Elsewhere", FillLevel: 10})
	require.ErrorIs(t, err, types.ErrDuplicateID)
	assert.Equal(t, before, s.Len())

	b, _ := s.FindByID(1)
	assert.Equal(t, "Main St", b.Location, "existing bin must be untouched")
}

func TestIsIDUniqueAndFindByID(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	assert.True(t, s.IsIDUnique(5))

	s.Insert(types.Bin{ID: 5, Location: "A"})
	assert.False(t, s.IsIDUnique(5))
	assert.True(t, s.IsIDUnique(6))

	b, ok := s.FindByID(5)
	require.True(t, ok)
	b.Location = "B"
	got, _ := s.FindByID(5)
	assert.Equal(t, "B", got.Location, "FindByID must return a mutable handle")

	_, ok = s.FindByID(6)
	assert.False(t, ok)
}

func TestInsertDoesNotCheckUniqueness(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	s.Insert(types.Bin{ID: 1, Location: "first"})
	s.Insert(types.Bin{ID: 1, Location: "second"})
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Remove(1))
	b, ok := s.FindByID(1)
	require.True(t, ok)
	assert.Equal(t, "second", b.Location, "Remove deletes only the first match")
}

func TestUpdateFillLevelFromEveryPriorState(t *testing.T) {
	priors := []types.Bin{
		{ID: 1, FillLevel: 10, Mode: types.ModeAuto},
		{ID: 1, FillLevel: 95, NeedsCollection: true, Mode: types.ModeAuto},
		{ID: 1, FillLevel: 10, NeedsCollection: true, Mode: types.ModeManual},
		{ID: 1, FillLevel: 95, NeedsCollection: true, Mode: types.ModeManual},
	}
	levels := []struct {
		level int
		want  bool
	}{
		{0, false}, {79, false}, {80, true}, {100, true},
	}

	for _, prior := range priors {
		for _, lv := range levels {
			s, _ := openEmpty(t, Options{})
			s.Insert(prior)

			require.NoError(t, s.UpdateFillLevel(1, lv.level))
			b, _ := s.FindByID(1)
			assert.Equal(t, lv.level, b.FillLevel)
			assert.Equal(t, lv.want, b.NeedsCollection, "prior %+v level %d", prior, lv.level)
			assert.Equal(t, types.ModeAuto, b.Mode)
		}
	}
}

func TestUpdateFillLevelNotFound(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	s.Insert(types.Bin{ID: 1, FillLevel: 10})

	err := s.UpdateFillLevel(2, 90)
	require.ErrorIs(t, err, types.ErrNotFound)
	b, _ := s.FindByID(1)
	assert.Equal(t, 10, b.FillLevel)
}

func TestFillLevelPolicy(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		s, _ := openEmpty(t, Options{})
		require.NoError(t, s.Register(types.Bin{ID: 1, FillLevel: 40}))

		assert.ErrorIs(t, s.Register(types.Bin{ID: 2, FillLevel: 101}), types.ErrInvalidFillLevel)
		assert.ErrorIs(t, s.UpdateFillLevel(1, -1), types.ErrInvalidFillLevel)
		assert.Equal(t, 1, s.Len())
		b, _ := s.FindByID(1)
		assert.Equal(t, 40, b.FillLevel)
	})

	t.Run("clamp", func(t *testing.T) {
		s, _ := openEmpty(t, Options{FillLevelPolicy: types.FillPolicyClamp})
		require.NoError(t, s.Register(types.Bin{ID: 1, FillLevel: 150}))
		b, _ := s.FindByID(1)
		assert.Equal(t, 100, b.FillLevel)
		assert.True(t, b.NeedsCollection)

		require.NoError(t, s.UpdateFillLevel(1, -20))
		b, _ = s.FindByID(1)
		assert.Equal(t, 0, b.FillLevel)
		assert.False(t, b.NeedsCollection)
	})
}

func TestCustomThreshold(t *testing.T) {
	s, _ := openEmpty(t, Options{Threshold: 60})
	assert.Equal(t, 60, s.Threshold())

	require.NoError(t, s.Register(types.Bin{ID: 1, FillLevel: 65}))
	b, _ := s.FindByID(1)
	assert.True(t, b.NeedsCollection)
}

func TestMarkForCollectionKeepsLevel(t *testing.T) {
	for _, level := range []int{0, 10, 79, 80, 100} {
		s, _ := openEmpty(t, Options{})
		s.Insert(types.Bin{ID: 2, FillLevel: level, Mode: types.ModeAuto, NeedsCollection: level >= 80})

		require.NoError(t, s.MarkForCollection(2))
		b, _ := s.FindByID(2)
		assert.True(t, b.NeedsCollection)
		assert.Equal(t, level, b.FillLevel)
		assert.Equal(t, types.ModeManual, b.Mode)
	}

	s, _ := openEmpty(t, Options{})
	assert.ErrorIs(t, s.MarkForCollection(9), types.ErrNotFound)
}

func TestManualMarkClearedByLowLevelUpdate(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	require.NoError(t, s.Register(types.Bin{ID: 2, FillLevel: 10}))
	require.NoError(t, s.MarkForCollection(2))

	require.NoError(t, s.UpdateFillLevel(2, 30))
	b, _ := s.FindByID(2)
	assert.False(t, b.NeedsCollection)
	assert.Equal(t, types.ModeAuto, b.Mode)
}

func TestDeletePreservesOrder(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	for _, id := range []int{4, 2, 7, 1} {
		require.NoError(t, s.Register(types.Bin{ID: id, FillLevel: 10}))
	}

	require.NoError(t, s.Delete(2))
	assert.Equal(t, []int{4, 7, 1}, ids(s.List()))

	before := s.List()
	err := s.Delete(99)
	require.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, before, s.List())

	assert.False(t, s.Remove(99))
}

func TestListReturnsCopy(t *testing.T) {
	s, _ := openEmpty(t, Options{})
	require.NoError(t, s.Register(types.Bin{ID: 1, Location: "A"}))

	bins := s.List()
	bins[0].Location = "changed"
	b, _ := s.FindByID(1)
	assert.Equal(t, "A", b.Location)
}

func TestExampleScenario(t *testing.T) {
	s, _ := openEmpty(t, Options{})

	require.NoError(t, s.Register(types.Bin{ID: 1, Location: "Main St", MaterialType: "Organic", FillLevel: 50}))
	b1, _ := s.FindByID(1)
	assert.False(t, b1.NeedsCollection)

	require.NoError(t, s.UpdateFillLevel(1, 85))
	b1, _ = s.FindByID(1)
	assert.True(t, b1.NeedsCollection)

	require.NoError(t, s.Register(types.Bin{ID: 2, Location: "Harbor Rd", MaterialType: "Plastic", FillLevel: 10}))
	require.NoError(t, s.MarkForCollection(2))
	b2, _ := s.FindByID(2)
	assert.True(t, b2.NeedsCollection)
	assert.Equal(t, 10, b2.FillLevel)
}

func TestOpenNormalizesLegacyRecords(t *testing.T) {
	backend := &memBackend{loaded: types.LoadResult{Bins: []types.Bin{
		{ID: 1, FillLevel: 10, NeedsCollection: true},
		{ID: 2, FillLevel: 90, NeedsCollection: false},
		{ID: 3, FillLevel: 20, NeedsCollection: false},
		{ID: 4, FillLevel: 10, NeedsCollection: true, Mode: types.ModeManual},
	}}}

	s, err := Open(backend, Options{})
	require.NoError(t, err)

	bins := s.List()
	assert.Equal(t, types.ModeManual, bins[0].Mode)
	assert.True(t, bins[0].NeedsCollection)
	assert.Equal(t, types.ModeAuto, bins[1].Mode)
	assert.True(t, bins[1].NeedsCollection)
	assert.Equal(t, types.ModeAuto, bins[2].Mode)
	assert.False(t, bins[2].NeedsCollection)
	assert.Equal(t, types.ModeManual, bins[3].Mode)
}

func TestOpenReportsSkipped(t *testing.T) {
	backend := &memBackend{loaded: types.LoadResult{
		Bins:    []types.Bin{{ID: 1, FillLevel: 10}},
		Skipped: 2,
	}}

	s, err := Open(backend, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Skipped())
	assert.Equal(t, 1, s.Len())
}

func TestOpenLoadError(t *testing.T) {
	loadErr := errors.New("disk on fire")
	_, err := Open(&memBackend{loadErr: loadErr}, Options{})
	require.ErrorIs(t, err, loadErr)
}

func TestFlushWritesWholeSetInOrder(t *testing.T) {
	s, backend := openEmpty(t, Options{})
	require.NoError(t, s.Register(types.Bin{ID: 3}))
	require.NoError(t, s.Register(types.Bin{ID: 1}))
	assert.Empty(t, backend.saved, "mutations must not save until Flush")

	require.NoError(t, s.Flush())
	assert.Equal(t, []int{3, 1}, ids(backend.lastSaved()))
}

func TestFlushFailureKeepsState(t *testing.T) {
	dir := t.TempDir()
	history := storage.NewHistory(filepath.Join(dir, storage.HistoryFileName), nil)
	backend := &memBackend{}
	s, err := Open(backend, Options{History: history})
	require.NoError(t, err)

	require.NoError(t, s.Register(types.Bin{ID: 1, FillLevel: 20}))
	backend.saveErr = errors.New("read-only filesystem")
	require.Error(t, s.Flush())
	assert.Equal(t, 1, s.Len())

	events, err := history.Read()
	require.NoError(t, err)
	assert.Empty(t, events, "history must not be written when the save fails")

	backend.saveErr = nil
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{1}, ids(backend.lastSaved()))

	events, err = history.Read()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.OpRegister, events[0].Operation)
}

func TestFlushAppendsHistory(t *testing.T) {
	dir := t.TempDir()
	history := storage.NewHistory(filepath.Join(dir, storage.HistoryFileName), nil)
	s, _ := Open(&memBackend{}, Options{History: history})

	require.NoError(t, s.Register(types.Bin{ID: 1, FillLevel: 50}))
	require.NoError(t, s.Flush())
	require.NoError(t, s.UpdateFillLevel(1, 85))
	require.NoError(t, s.MarkForCollection(1))
	require.NoError(t, s.Delete(1))
	require.NoError(t, s.Flush())

	events, err := history.Read()
	require.NoError(t, err)
	require.Len(t, events, 4)

	ops := []string{events[0].Operation, events[1].Operation, events[2].Operation, events[3].Operation}
	assert.Equal(t, []string{types.OpRegister, types.OpLevel, types.OpMark, types.OpDelete}, ops)
	assert.Equal(t, 85, events[1].FillLevel)
	assert.True(t, events[1].NeedsCollection)
	for _, e := range events {
		assert.NotEmpty(t, e.EventID)
		assert.Equal(t, 1, e.BinID)
	}
}

func TestRoundTripThroughFileBackends(t *testing.T) {
	for _, name := range []string{types.BackendJSONL, types.BackendCSV, types.BackendSQLite} {
		t.Run(name, func(t *testing.T) {
			cfg := types.Config{Backend: name, DataDir: t.TempDir()}
			backend, err := storage.NewBackend(cfg, storage.Options{})
			require.NoError(t, err)

			s, err := Open(backend, Options{})
			require.NoError(t, err)
			require.NoError(t, s.Register(types.Bin{ID: 1, Location: "Main St, north side", MaterialType: "Organic", FillLevel: 50}))
			require.NoError(t, s.Register(types.Bin{ID: 2, Location: "Harbor Rd", MaterialType: "Plastic", FillLevel: 10}))
			require.NoError(t, s.Register(types.Bin{ID: 3, Location: "Elm St", MaterialType: "Metal", FillLevel: 85}))
			require.NoError(t, s.MarkForCollection(2))
			require.NoError(t, s.Flush())
			want := s.List()
			require.NoError(t, s.Close())

			backend, err = storage.NewBackend(cfg, storage.Options{})
			require.NoError(t, err)
			reopened, err := Open(backend, Options{})
			require.NoError(t, err)
			defer reopened.Close()

			got := reopened.List()
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].ID, got[i].ID)
				assert.Equal(t, want[i].Location, got[i].Location)
				assert.Equal(t, want[i].MaterialType, got[i].MaterialType)
				assert.Equal(t, want[i].FillLevel, got[i].FillLevel)
				assert.Equal(t, want[i].NeedsCollection, got[i].NeedsCollection)
				assert.Equal(t, want[i].Mode, got[i].Mode)
			}
		})
	}
}

func TestClosedStore(t *testing.T) {
	s, backend := openEmpty(t, Options{})
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, backend.closed)

	assert.ErrorIs(t, s.Register(types.Bin{ID: 1}), types.ErrStoreClosed)
	assert.ErrorIs(t, s.UpdateFillLevel(1, 1), types.ErrStoreClosed)
	assert.ErrorIs(t, s.MarkForCollection(1), types.ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(1), types.ErrStoreClosed)
	assert.ErrorIs(t, s.Flush(), types.ErrStoreClosed)
}
