// JSON record structures for the JSONL data and history files.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// binJSON represents a bin in bins.jsonl.
type binJSON struct {
	ID              int    `json:"id"`
	Location        string `json:"location"`
	MaterialType    string `json:"material_type"`
	FillLevel       int    `json:"fill_level"`
	NeedsCollection bool   `json:"needs_collection"`
	Mode            string `json:"mode,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// binLine is the decoding shape of a bins.jsonl line. Required fields are
// pointers so an absent key is distinguishable from a zero value.
type binLine struct {
	ID              *int    `json:"id"`
	Location        *string `json:"location"`
	MaterialType    *string `json:"material_type"`
	FillLevel       *int    `json:"fill_level"`
	NeedsCollection *bool   `json:"needs_collection"`
	Mode            string  `json:"mode"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

var errNullRecord = errors.New("record is null")

// decodeBinLine parses one bins.jsonl line. A line that is JSON null or
// lacks any required field is rejected.
func decodeBinLine(data []byte) (types.Bin, error) {
	var line *binLine
	if err := json.Unmarshal(data, &line); err != nil {
		return types.Bin{}, err
	}
	if line == nil {
		return types.Bin{}, errNullRecord
	}

	var missing []string
	if line.ID == nil {
		missing = append(missing, "id")
	}
	if line.Location == nil {
		missing = append(missing, "location")
	}
	if line.MaterialType == nil {
		missing = append(missing, "material_type")
	}
	if line.FillLevel == nil {
		missing = append(missing, "fill_level")
	}
	if line.NeedsCollection == nil {
		missing = append(missing, "needs_collection")
	}
	if len(missing) > 0 {
		return types.Bin{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	return binJSON{
		ID:              *line.ID,
		Location:        *line.Location,
		MaterialType:    *line.MaterialType,
		FillLevel:       *line.FillLevel,
		NeedsCollection: *line.NeedsCollection,
		Mode:            line.Mode,
		CreatedAt:       line.CreatedAt,
		UpdatedAt:       line.UpdatedAt,
	}.toBin()
}

// eventJSON represents an event in history.jsonl.
type eventJSON struct {
	EventID         string `json:"event_id"`
	Operation       string `json:"operation"`
	BinID           int    `json:"bin_id"`
	FillLevel       int    `json:"fill_level"`
	NeedsCollection bool   `json:"needs_collection"`
	CreatedAt       string `json:"created_at"`
}

func binToJSON(b types.Bin) binJSON {
	return binJSON{
		ID:              b.ID,
		Location:        b.Location,
		MaterialType:    b.MaterialType,
		FillLevel:       b.FillLevel,
		NeedsCollection: b.NeedsCollection,
		Mode:            string(b.Mode),
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	}
}

// toBin converts the record and rejects values that cannot be represented.
func (j binJSON) toBin() (types.Bin, error) {
	mode := types.CollectionMode(j.Mode)
	if !mode.Valid() {
		return types.Bin{}, fmt.Errorf("unknown collection mode %q", j.Mode)
	}
	createdAt, err := parseTime(j.CreatedAt)
	if err != nil {
		return types.Bin{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := parseTime(j.UpdatedAt)
	if err != nil {
		return types.Bin{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return types.Bin{
		ID:              j.ID,
		Location:        j.Location,
		MaterialType:    j.MaterialType,
		FillLevel:       j.FillLevel,
		NeedsCollection: j.NeedsCollection,
		Mode:            mode,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func eventToJSON(e types.Event) eventJSON {
	return eventJSON{
		EventID:         e.EventID,
		Operation:       e.Operation,
		BinID:           e.BinID,
		FillLevel:       e.FillLevel,
		NeedsCollection: e.NeedsCollection,
		CreatedAt:       formatTime(e.CreatedAt),
	}
}

func (j eventJSON) toEvent() (types.Event, error) {
	createdAt, err := parseTime(j.CreatedAt)
	if err != nil {
		return types.Event{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return types.Event{
		EventID:         j.EventID,
		Operation:       j.Operation,
		BinID:           j.BinID,
		FillLevel:       j.FillLevel,
		NeedsCollection: j.NeedsCollection,
		CreatedAt:       createdAt,
	}, nil
}

// formatTime renders t as RFC 3339 with nanoseconds in UTC. The zero time is
// rendered as the empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
