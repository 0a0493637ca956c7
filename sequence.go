package padjam

import (
	"math"
	"time"

	"libdb.so/padjam/internal/audio"
)

// loopDivider selects how many ticks separate repeated playbacks of a looped
// sound. Negative values are bar multipliers, zero means "use the sound's own
// duration", positive values divide the beat. Unset means loop capture is
// off.
type loopDivider struct {
	set   bool
	value int
}

var dividerNone = loopDivider{}

// dividerRing is the cycle order of the divider control, bracketed by unset
// on both ends.
var dividerRing = [...]int{-8, -6, -4, -3, -2, 0, 1, 2, 3, 4, 5, 6}

func (d loopDivider) active() bool { return d.set }

// next advances the divider one step around the ring. Thirteen steps from
// unset lead back to unset.
func (d loopDivider) next() loopDivider {
	if !d.set {
		return loopDivider{set: true, value: dividerRing[0]}
	}
	for i, v := range dividerRing {
		if v == d.value {
			if i+1 == len(dividerRing) {
				return dividerNone
			}
			return loopDivider{set: true, value: dividerRing[i+1]}
		}
	}
	return dividerNone
}

// period derives the loop period in ticks. The convention is 60 ticks per
// beat at divider 1: negative dividers multiply out to whole bars, positive
// ones subdivide the beat, and zero stretches to the sound's own length.
// sound is only consulted for divider zero.
func (d loopDivider) period(tick, sound time.Duration) int64 {
	switch {
	case !d.set:
		return 0
	case d.value < 0:
		return int64(60 * -d.value)
	case d.value == 0:
		if tick <= 0 {
			return 0
		}
		return int64(sound / tick)
	default:
		return 60 / int64(d.value)
	}
}

// loopEntry is one scheduled loop: the sound fires at every tick where
// (tick - offset) mod period == 0.
type loopEntry struct {
	offset int64
	period int64
	sound  audio.SoundID
}

// floorMod is the remainder rounded towards negative infinity, so offsets
// left of the sequence start still land on period boundaries.
func floorMod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// due reports whether the loop fires on the given tick.
func (l loopEntry) due(tick int64) bool {
	if l.period <= 0 {
		return false
	}
	return floorMod(tick-l.offset, l.period) == 0
}

// bpm derives the displayed tempo from the tick duration.
func bpmOf(tick time.Duration) float64 {
	return math.Floor(float64(time.Second) / float64(tick))
}

// tickForBPM derives the tick duration for a tempo.
func tickForBPM(bpm float64) time.Duration {
	return time.Duration(float64(time.Second) / bpm)
}
