// Package padjam drives an Adafruit NeoTrellis 4x4 button grid as the
// control surface of a live sampler/looper: keys trigger sounds, loops are
// recorded against a quantized tick grid, and the pads give LED feedback.
package padjam

import "libdb.so/padjam/seesaw"

// Command is an inbound instruction for the device runtime.
type Command interface {
	// command tags the implementations; the runtime switches exhaustively
	// over them.
	command()
}

// SetState replaces the pixel state under key (X, Y). Sending the same
// coordinate several times between render ticks coalesces to the last value.
type SetState struct {
	X, Y  int
	State PixelState
}

func (SetState) command() {}

// PixelSetter queues pixel state updates for the device. Sends are
// best-effort: a full queue drops the update and the next recompute resends.
// *Device implements it.
type PixelSetter interface {
	SetState(x, y int, state PixelState)
}

// KeyEvent is re-exported so consumers only import the driver package when
// they talk to the bus themselves.
type KeyEvent = seesaw.KeyEvent
