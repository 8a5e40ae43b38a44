// History event recorded for every mutation of the store.
package types

import "time"

// Event operations.
const (
	OpRegister = "register"
	OpLevel    = "update_level"
	OpMark     = "mark"
	OpDelete   = "delete"
)

// Event describes one mutation. Events are appended to the history file when
// the store flushes.
type Event struct {
	EventID         string    `json:"event_id"`         // UUID v7, generated when the event is queued.
	Operation       string    `json:"operation"`        // One of the Op constants.
	BinID           int       `json:"bin_id"`           // Bin the operation applied to.
	FillLevel       int       `json:"fill_level"`       // Fill level after the operation.
	NeedsCollection bool      `json:"needs_collection"` // Collection flag after the operation.
	CreatedAt       time.Time `json:"created_at"`       // When the mutation happened.
}
