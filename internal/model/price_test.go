package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSavings(t *testing.T) {
	tests := []struct {
		name   string
		market int
		best   int
		want   int
	}{
		{"catalog beats market", 30, 22, 27},
		{"no cheaper source", 30, 30, 0},
		{"best above market clamps to zero", 30, 33, 0},
		{"zero market price", 0, 10, 0},
		{"rounds to nearest", 90, 60, 33},
		{"rounds up", 80, 30, 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Savings(tt.market, tt.best))
		})
	}
}

func TestTrackedByName(t *testing.T) {
	got, ok := TrackedByName("Onion (Pyaz)")
	assert.True(t, ok)
	assert.Equal(t, "onion", got.MatchKey)

	got, ok = TrackedByName("paneer")
	assert.True(t, ok)
	assert.Equal(t, "Paneer", got.Name)

	_, ok = TrackedByName("saffron")
	assert.False(t, ok)
}
