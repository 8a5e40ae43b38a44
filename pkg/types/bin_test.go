package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBinSetFillLevel(t *testing.T) {
	tests := []struct {
		name      string
		initial   Bin
		level     int
		wantFlag  bool
		wantLevel int
	}{
		{
			name:      "below threshold from auto",
			initial:   Bin{FillLevel: 50, Mode: ModeAuto},
			level:     40,
			wantFlag:  false,
			wantLevel: 40,
		},
		{
			name:      "at threshold sets flag",
			initial:   Bin{FillLevel: 50, Mode: ModeAuto},
			level:     80,
			wantFlag:  true,
			wantLevel: 80,
		},
		{
			name:      "above threshold sets flag",
			initial:   Bin{FillLevel: 10},
			level:     95,
			wantFlag:  true,
			wantLevel: 95,
		},
		{
			name:      "drop below threshold clears auto flag",
			initial:   Bin{FillLevel: 90, NeedsCollection: true, Mode: ModeAuto},
			level:     79,
			wantFlag:  false,
			wantLevel: 79,
		},
		{
			name:      "drop below threshold clears manual mark",
			initial:   Bin{FillLevel: 10, NeedsCollection: true, Mode: ModeManual},
			level:     20,
			wantFlag:  false,
			wantLevel: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.initial
			b.UpdatedAt = time.Now().Add(-time.Hour)
			before := b.UpdatedAt

			b.SetFillLevel(tt.level, DefaultCollectionThreshold)

			assert.Equal(t, tt.wantLevel, b.FillLevel)
			assert.Equal(t, tt.wantFlag, b.NeedsCollection)
			assert.Equal(t, ModeAuto, b.Mode)
			assert.True(t, b.UpdatedAt.After(before))
		})
	}
}

func TestBinMarkForCollection(t *testing.T) {
	for _, level := range []int{0, 10, 79, 80, 100} {
		b := Bin{ID: 2, FillLevel: level, Mode: ModeAuto}
		b.MarkForCollection()

		assert.True(t, b.NeedsCollection, "level %d", level)
		assert.Equal(t, level, b.FillLevel, "fill level must not change")
		assert.True(t, b.Manual())
	}

	b := Bin{FillLevel: 10}
	b.MarkForCollection()
	b.MarkForCollection()
	assert.True(t, b.NeedsCollection)
	assert.Equal(t, ModeManual, b.Mode)
}

func TestCollectionModeValid(t *testing.T) {
	assert.True(t, CollectionMode("").Valid())
	assert.True(t, ModeAuto.Valid())
	assert.True(t, ModeManual.Valid())
	assert.False(t, CollectionMode("forced").Valid())
}
