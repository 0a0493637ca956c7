package padjam

import (
	"time"

	"libdb.so/padjam/seesaw"
)

// PixelState is what a single pad's LED is doing. It is owned exclusively by
// the device runtime and mutated only through SetState commands.
type PixelState interface {
	pixelState()
}

// Solid holds a single color. Update marks the color as not yet written; the
// render loop clears it after the write so solid pads cost no bus traffic.
type Solid struct {
	Color  seesaw.Color
	Update bool
}

// FadeLinear interpolates linearly from From to To over Duration.
type FadeLinear struct {
	From, To seesaw.Color
	Duration time.Duration
	Progress float64
}

// FadeExp eases the interpolation with a cubic curve, spending most of the
// fade near From.
type FadeExp struct {
	From, To seesaw.Color
	Duration time.Duration
	Progress float64
}

func (Solid) pixelState()      {}
func (FadeLinear) pixelState() {}
func (FadeExp) pixelState()    {}

// advancePixel steps a pixel state by elapsed wall-clock time. It returns the
// next state, the color to write this frame, and whether a write is due.
func advancePixel(state PixelState, elapsed time.Duration) (PixelState, seesaw.Color, bool) {
	switch s := state.(type) {
	case Solid:
		if !s.Update {
			return s, seesaw.Color{}, false
		}
		return Solid{Color: s.Color}, s.Color, true

	case FadeLinear:
		s.Progress += elapsed.Seconds() / s.Duration.Seconds()
		if s.Progress >= 1 {
			return Solid{Color: s.To}, s.To, true
		}
		return s, lerpColor(s.From, s.To, s.Progress), true

	case FadeExp:
		s.Progress += elapsed.Seconds() / s.Duration.Seconds()
		p := s.Progress * s.Progress * s.Progress
		if p >= 1 {
			return Solid{Color: s.To}, s.To, true
		}
		return s, lerpColor(s.From, s.To, p), true

	default:
		return s, seesaw.Color{}, false
	}
}

func lerpColor(from, to seesaw.Color, p float64) seesaw.Color {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	rp := 1 - p
	return seesaw.Color{
		R: uint8(float64(from.R)*rp + float64(to.R)*p),
		G: uint8(float64(from.G)*rp + float64(to.G)*p),
		B: uint8(float64(from.B)*rp + float64(to.B)*p),
		W: uint8(float64(from.W)*rp + float64(to.W)*p),
	}
}
