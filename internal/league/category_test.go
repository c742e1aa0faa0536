package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryOf(t *testing.T) {
	testCases := []struct {
		name     string
		rating   int
		expected Category
	}{
		{"Below the floor", 850, Onyx},
		{"Entry rating", 1000, Onyx},
		{"Top of Onyx", 1399, Onyx},
		{"Amethyste floor", 1400, Amethyste},
		{"Mid Amethyste", 1550, Amethyste},
		{"Topaze floor", 1700, Topaze},
		{"Top of Topaze", 1899, Topaze},
		{"Diamant floor", 1900, Diamant},
		{"Far above Diamant floor", 2400, Diamant},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CategoryOf(tc.rating))
		})
	}
}

func TestCategoryOrdering(t *testing.T) {
	cats := Categories()
	assert.Equal(t, []Category{Onyx, Amethyste, Topaze, Diamant}, cats)
	for i, c := range cats {
		assert.Equal(t, i, c.Index())
		assert.True(t, c.Valid())
	}
	assert.False(t, Category("PLATINE").Valid())
}

func TestEventStatusTransitions(t *testing.T) {
	assert.True(t, EventDraft.CanTransitionTo(EventOpen))
	assert.True(t, EventOpen.CanTransitionTo(EventPaused))
	assert.True(t, EventPaused.CanTransitionTo(EventOpen))
	assert.True(t, EventOpen.CanTransitionTo(EventClosed))
	assert.True(t, EventPaused.CanTransitionTo(EventCancelled))

	// One-way except pause/resume.
	assert.False(t, EventClosed.CanTransitionTo(EventOpen))
	assert.False(t, EventCancelled.CanTransitionTo(EventDraft))
	assert.False(t, EventOpen.CanTransitionTo(EventDraft))
	assert.False(t, EventDraft.CanTransitionTo(EventPaused))
}

func TestScoreDerivedValues(t *testing.T) {
	win := Score{P1: 420, P2: 310}
	assert.Equal(t, 1, win.WinnerSlot())
	assert.Equal(t, 3, win.PR(1))
	assert.Equal(t, 0, win.PR(2))
	assert.False(t, win.Draw())

	draw := Score{P1: 350, P2: 350}
	assert.Equal(t, 0, draw.WinnerSlot())
	assert.Equal(t, 1, draw.PR(1))
	assert.Equal(t, 1, draw.PR(2))
	assert.True(t, draw.Draw())

	// DS saturates at 100 for a crushing margin.
	rout := Score{P1: 500, P2: 20}
	assert.Equal(t, 100, rout.DS())
	assert.InDelta(t, 0.1506, win.PDI(), 0.001)
	assert.Equal(t, 15, win.DS())
}
