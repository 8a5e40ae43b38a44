// Append-only history log of store mutations.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// History is the append-only mutation log. Unlike the data file it is never
// rewritten; malformed lines are always skipped with a warning.
type History struct {
	path   string
	logger *zap.Logger
}

// NewHistory returns a history log at path.
func NewHistory(path string, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{path: path, logger: logger}
}

// Path returns the history file location.
func (h *History) Path() string {
	return h.path
}

// NewEventID generates a UUID v7 for an event.
func NewEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to a v4 id if v7 generation fails.
		return uuid.New().String()
	}
	return id.String()
}

// Append writes events to the end of the log.
func (h *History) Append(events []types.Event) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]json.RawMessage, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(eventToJSON(e))
		if err != nil {
			return fmt.Errorf("marshaling event %s: %w", e.EventID, err)
		}
		records = append(records, data)
	}

	if err := appendJSONL(h.path, records); err != nil {
		h.logger.Error("failed to append history", zap.String("path", h.path), zap.Error(err))
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// Read returns every event in the log, oldest first. A missing log yields no
// events.
func (h *History) Read() ([]types.Event, error) {
	lines, err := readJSONL(h.path)
	if err != nil {
		return nil, err
	}

	events := make([]types.Event, 0, len(lines))
	for _, line := range lines {
		var rec eventJSON
		if err := json.Unmarshal(line.data, &rec); err != nil {
			h.logger.Warn("skipping malformed history line",
				zap.String("path", h.path), zap.Int("line", line.num), zap.Error(err))
			continue
		}
		e, err := rec.toEvent()
		if err != nil {
			h.logger.Warn("skipping malformed history line",
				zap.String("path", h.path), zap.Int("line", line.num), zap.Error(err))
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
