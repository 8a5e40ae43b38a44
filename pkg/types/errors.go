// Sentinel errors shared by the store, backends, and CLI.
package types

import "errors"

// Store operation errors.
var (
	ErrNotFound         = errors.New("waste bin not found")
	ErrDuplicateID      = errors.New("waste bin ID already exists")
	ErrInvalidFillLevel = errors.New("fill level must be between 0 and 100")
	ErrStoreClosed      = errors.New("store is closed")
)

// Persistence errors.
var (
	ErrCorruptRecord = errors.New("corrupt record")
	ErrBackendClosed = errors.New("backend is closed")
)
