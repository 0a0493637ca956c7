package padjam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDividerCycleVisitsRingAndWraps(t *testing.T) {
	want := []int{-8, -6, -4, -3, -2, 0, 1, 2, 3, 4, 5, 6}

	d := dividerNone
	for i, expect := range want {
		d = d.next()
		require.True(t, d.set, "step %d should be set", i+1)
		assert.Equal(t, expect, d.value, "step %d", i+1)
	}

	// The 13th step closes the ring.
	d = d.next()
	assert.False(t, d.set)
}

func TestDividerPeriod(t *testing.T) {
	tick := time.Second / 60

	tests := []struct {
		name    string
		divider loopDivider
		sound   time.Duration
		expect  int64
	}{
		{"one beat", loopDivider{set: true, value: 1}, 0, 60},
		{"two bars", loopDivider{set: true, value: -2}, 0, 120},
		{"sound length", loopDivider{set: true, value: 0}, 2 * time.Second, 120},
		{"half beat", loopDivider{set: true, value: 2}, 0, 30},
		{"eight bars", loopDivider{set: true, value: -8}, 0, 480},
		{"unset", dividerNone, time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.divider.period(tick, tt.sound))
		})
	}
}

func TestLoopEntryDue(t *testing.T) {
	l := loopEntry{offset: 0, period: 30}

	for tick := int64(0); tick < 100; tick++ {
		assert.Equal(t, tick%30 == 0, l.due(tick), "tick %d", tick)
	}

	shifted := loopEntry{offset: 7, period: 30}
	assert.True(t, shifted.due(7))
	assert.True(t, shifted.due(37))
	assert.False(t, shifted.due(30))

	// Negative offsets still land on period boundaries.
	negative := loopEntry{offset: -3, period: 5}
	assert.True(t, negative.due(2))
	assert.True(t, negative.due(7))
	assert.False(t, negative.due(5))
}

func TestFloorMod(t *testing.T) {
	assert.Equal(t, int64(0), floorMod(60, 30))
	assert.Equal(t, int64(7), floorMod(7, 30))
	assert.Equal(t, int64(29), floorMod(-1, 30))
	assert.Equal(t, int64(0), floorMod(-30, 30))
}

func TestBPMDerivation(t *testing.T) {
	assert.Equal(t, float64(60), bpmOf(time.Second/60))
	assert.Equal(t, float64(120), bpmOf(tickForBPM(120)))

	// The asymmetric steps land on whole tempos after truncation.
	bpm := bpmOf(time.Second / 60)
	assert.Equal(t, float64(61), bpmOf(tickForBPM(bpm+1.5)))
	assert.Equal(t, float64(59), bpmOf(tickForBPM(bpm-0.5)))
}
