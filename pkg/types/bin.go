// Bin entity and the collection policy that ties NeedsCollection to FillLevel.
package types

import "time"

// DefaultCollectionThreshold is the fill level at or above which a bin in
// auto mode needs collection.
const DefaultCollectionThreshold = 80

// Fill level bounds.
const (
	MinFillLevel = 0
	MaxFillLevel = 100
)

// CollectionMode records how NeedsCollection was decided.
type CollectionMode string

// Collection modes.
const (
	// ModeAuto derives NeedsCollection from FillLevel and the threshold.
	ModeAuto CollectionMode = "auto"

	// ModeManual means an operator forced NeedsCollection to true. The next
	// fill level update returns the bin to ModeAuto.
	ModeManual CollectionMode = "manual"
)

// Valid reports whether m is a known mode. The empty mode is treated as auto.
func (m CollectionMode) Valid() bool {
	return m == "" || m == ModeAuto || m == ModeManual
}

// Bin is a tracked waste-collection container.
type Bin struct {
	ID              int            `json:"id"`               // Operator-assigned identifier, unique in the store.
	Location        string         `json:"location"`         // Free text.
	MaterialType    string         `json:"material_type"`    // Free text, e.g. Organic, Plastic, Metal.
	FillLevel       int            `json:"fill_level"`       // Percentage full.
	NeedsCollection bool           `json:"needs_collection"` // Whether the bin should be emptied.
	Mode            CollectionMode `json:"mode"`             // How NeedsCollection was decided.
	CreatedAt       time.Time      `json:"created_at"`       // Registration time.
	UpdatedAt       time.Time      `json:"updated_at"`       // Last mutation time.
}

// SetFillLevel sets the fill level and recomputes NeedsCollection against
// threshold. Any manual mark is cleared.
func (b *Bin) SetFillLevel(level, threshold int) {
	b.FillLevel = level
	b.Mode = ModeAuto
	b.NeedsCollection = level >= threshold
	b.UpdatedAt = time.Now()
}

// MarkForCollection forces NeedsCollection to true without touching FillLevel.
// Idempotent.
func (b *Bin) MarkForCollection() {
	b.NeedsCollection = true
	b.Mode = ModeManual
	b.UpdatedAt = time.Now()
}

// Manual reports whether the collection flag was forced by an operator.
func (b Bin) Manual() bool {
	return b.Mode == ModeManual
}
