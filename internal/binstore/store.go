// Package binstore holds the in-memory record store: the ordered collection
// of bins that is the single source of truth during a session. The store is
// loaded from a backend when opened and written back in full on Flush.
package binstore

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/internal/storage"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// Options configures a Store.
type Options struct {
	// Threshold is the fill level at or above which an auto-mode bin needs
	// collection. Zero selects types.DefaultCollectionThreshold.
	Threshold int

	// FillLevelPolicy is types.FillPolicyReject or types.FillPolicyClamp.
	// Empty selects reject.
	FillLevelPolicy string

	// History receives one event per mutation on Flush. Nil disables it.
	History *storage.History

	Logger *zap.Logger
}

// Store is the ordered bin collection. It is not safe for concurrent use;
// the console drives it from a single goroutine.
type Store struct {
	bins    []types.Bin
	backend types.Backend
	history *storage.History
	logger  *zap.Logger

	threshold int
	policy    string

	// pending holds events queued by mutations until the next Flush.
	pending []types.Event
	skipped int
	closed  bool
}

// Open loads every bin from backend and returns a ready store. Bins loaded
// without a collection mode (legacy CSV data) are normalized: a flag set
// below the threshold is kept as a manual mark, anything else is recomputed
// from the fill level.
func Open(backend types.Backend, opts Options) (*Store, error) {
	s := &Store{
		backend:   backend,
		history:   opts.History,
		logger:    opts.Logger,
		threshold: opts.Threshold,
		policy:    opts.FillLevelPolicy,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.threshold == 0 {
		s.threshold = types.DefaultCollectionThreshold
	}
	if s.policy == "" {
		s.policy = types.FillPolicyReject
	}

	res, err := backend.Load()
	if err != nil {
		s.logger.Error("failed to load bins", zap.String("path", backend.Path()), zap.Error(err))
		return nil, fmt.Errorf("loading bins: %w", err)
	}
	for _, b := range res.Bins {
		s.bins = append(s.bins, s.normalize(b))
	}

	s.skipped = res.Skipped
	if res.Skipped > 0 {
		s.logger.Warn("dropped malformed records on load",
			zap.String("path", backend.Path()), zap.Int("skipped", res.Skipped))
	}
	s.logger.Info("store opened",
		zap.String("path", backend.Path()),
		zap.Int("bins", len(s.bins)),
		zap.Int("threshold", s.threshold),
	)
	return s, nil
}

func (s *Store) normalize(b types.Bin) types.Bin {
	if b.Mode != "" {
		return b
	}
	if b.NeedsCollection && b.FillLevel < s.threshold {
		b.Mode = types.ModeManual
		return b
	}
	b.Mode = types.ModeAuto
	b.NeedsCollection = b.FillLevel >= s.threshold
	return b
}

// Threshold returns the collection threshold in effect.
func (s *Store) Threshold() int {
	return s.threshold
}

// Skipped returns the number of malformed records dropped when the store
// was opened.
func (s *Store) Skipped() int {
	return s.skipped
}

// Len returns the number of bins.
func (s *Store) Len() int {
	return len(s.bins)
}

// List returns a copy of every bin in insertion order.
func (s *Store) List() []types.Bin {
	out := make([]types.Bin, len(s.bins))
	copy(out, s.bins)
	return out
}

// IsIDUnique reports whether no bin has id.
func (s *Store) IsIDUnique(id int) bool {
	_, ok := s.FindByID(id)
	return !ok
}

// FindByID returns a handle to the bin with id. The handle stays valid until
// the next Insert or Remove.
func (s *Store) FindByID(id int) (*types.Bin, bool) {
	for i := range s.bins {
		if s.bins[i].ID == id {
			return &s.bins[i], true
		}
	}
	return nil, false
}

// Insert appends b. It does not check for duplicate ids; callers use
// IsIDUnique first, or Register.
func (s *Store) Insert(b types.Bin) {
	s.bins = append(s.bins, b)
}

// Remove deletes the first bin with id, preserving the order of the others.
// It reports whether a bin was removed.
func (s *Store) Remove(id int) bool {
	for i := range s.bins {
		if s.bins[i].ID == id {
			s.bins = append(s.bins[:i], s.bins[i+1:]...)
			return true
		}
	}
	return false
}

// CheckFillLevel applies the fill level policy to level. Under reject it
// returns types.ErrInvalidFillLevel for values outside 0..100; under clamp
// it returns the nearest bound.
func (s *Store) CheckFillLevel(level int) (int, error) {
	if level >= types.MinFillLevel && level <= types.MaxFillLevel {
		return level, nil
	}
	if s.policy == types.FillPolicyClamp {
		return min(max(level, types.MinFillLevel), types.MaxFillLevel), nil
	}
	return 0, fmt.Errorf("%w: got %d", types.ErrInvalidFillLevel, level)
}

// Register validates b, rejects a duplicate id, stamps timestamps, derives
// the collection flag from the fill level, and appends it.
func (s *Store) Register(b types.Bin) error {
	if s.closed {
		return types.ErrStoreClosed
	}
	if !s.IsIDUnique(b.ID) {
		return fmt.Errorf("%w: %d", types.ErrDuplicateID, b.ID)
	}
	level, err := s.CheckFillLevel(b.FillLevel)
	if err != nil {
		return err
	}

	now := time.Now()
	b.CreatedAt = now
	b.SetFillLevel(level, s.threshold)
	b.UpdatedAt = now

	s.Insert(b)
	s.queue(types.OpRegister, b)
	return nil
}

// UpdateFillLevel sets the fill level of bin id and recomputes its
// collection flag. A level below the threshold clears a manual mark.
// Returns types.ErrNotFound if id is absent.
func (s *Store) UpdateFillLevel(id, level int) error {
	if s.closed {
		return types.ErrStoreClosed
	}
	b, ok := s.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %d", types.ErrNotFound, id)
	}
	level, err := s.CheckFillLevel(level)
	if err != nil {
		return err
	}
	b.SetFillLevel(level, s.threshold)
	s.queue(types.OpLevel, *b)
	return nil
}

// MarkForCollection forces the collection flag of bin id to true, leaving
// its fill level untouched. Returns types.ErrNotFound if id is absent.
func (s *Store) MarkForCollection(id int) error {
	if s.closed {
		return types.ErrStoreClosed
	}
	b, ok := s.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %d", types.ErrNotFound, id)
	}
	b.MarkForCollection()
	s.queue(types.OpMark, *b)
	return nil
}

// Delete removes bin id. Returns types.ErrNotFound if id is absent.
func (s *Store) Delete(id int) error {
	if s.closed {
		return types.ErrStoreClosed
	}
	b, ok := s.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %d", types.ErrNotFound, id)
	}
	removed := *b
	s.Remove(id)
	s.queue(types.OpDelete, removed)
	return nil
}

func (s *Store) queue(op string, b types.Bin) {
	s.pending = append(s.pending, types.Event{
		EventID:         storage.NewEventID(),
		Operation:       op,
		BinID:           b.ID,
		FillLevel:       b.FillLevel,
		NeedsCollection: b.NeedsCollection,
		CreatedAt:       time.Now(),
	})
	s.logger.Debug("bin mutated", zap.String("operation", op), zap.Int("bin_id", b.ID))
}

// Flush rewrites the backend with every bin in order, then appends queued
// history events. On a save failure the in-memory state is kept and the
// events stay queued, so the next Flush retries the full write.
func (s *Store) Flush() error {
	if s.closed {
		return types.ErrStoreClosed
	}
	if err := s.backend.Save(s.bins); err != nil {
		return fmt.Errorf("flushing bins: %w", err)
	}

	if s.history != nil && len(s.pending) > 0 {
		if err := s.history.Append(s.pending); err != nil {
			// History is best effort once the bins are saved.
			s.logger.Warn("history not recorded", zap.Int("events", len(s.pending)), zap.Error(err))
		}
	}
	s.pending = nil
	return nil
}

// Close releases the backend. Queued history events that were never flushed
// are discarded. Idempotent.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if len(s.pending) > 0 {
		s.logger.Warn("closing store with unflushed changes", zap.Int("events", len(s.pending)))
	}
	return s.backend.Close()
}
