// Session wiring shared by every command that opens the store.
package cli

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/internal/binstore"
	"github.com/mesh-intelligence/wastebin/internal/logging"
	"github.com/mesh-intelligence/wastebin/internal/storage"
)

// session bundles what a command needs: the opened store, its history log,
// and the logger. Close releases all of them.
type session struct {
	settings settings
	store    *binstore.Store
	history  *storage.History
	logger   *zap.Logger
	dataPath string
	skipped  int
}

// openSession loads settings, builds the logger, and opens the store on the
// configured backend.
func openSession() (*session, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{Level: s.logLevel, Path: s.logFile})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	backend, err := storage.NewBackend(s.store, storage.Options{
		Strict: s.store.StrictLoad,
		Logger: logger,
	})
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("open backend: %w", err)
	}

	history := storage.NewHistory(filepath.Join(storage.DataDir(s.store), storage.HistoryFileName), logger)

	store, err := binstore.Open(backend, binstore.Options{
		Threshold:       s.store.GetCollectionThreshold(),
		FillLevelPolicy: s.store.GetFillLevelPolicy(),
		History:         history,
		Logger:          logger,
	})
	if err != nil {
		backend.Close()
		logger.Sync()
		return nil, err
	}

	return &session{
		settings: s,
		store:    store,
		history:  history,
		logger:   logger,
		dataPath: backend.Path(),
		skipped:  store.Skipped(),
	}, nil
}

// Close closes the store and flushes the logger.
func (s *session) Close() error {
	err := s.store.Close()
	_ = s.logger.Sync()
	return err
}

// withSession opens a session, runs fn, and closes the session. A close
// error is returned only when fn succeeded.
func withSession(fn func(s *session) error) (err error) {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()
	return fn(s)
}
