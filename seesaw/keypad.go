package seesaw

import (
	"fmt"

	"github.com/pkg/errors"
)

// Keypad block functions.
const (
	KeypadStatus   uint8 = 0x00
	KeypadEvent    uint8 = 0x01
	KeypadIntenSet uint8 = 0x02
	KeypadIntenClr uint8 = 0x03
	KeypadCount    uint8 = 0x04
	KeypadFIFO     uint8 = 0x10
)

// Edge is a key press-state transition as reported by the keypad block.
type Edge uint8

const (
	// EdgeHigh means the key is currently pressed.
	EdgeHigh Edge = 0
	// EdgeLow means the key is currently released.
	EdgeLow Edge = 1
	// EdgeFalling means the key was just released.
	EdgeFalling Edge = 2
	// EdgeRising means the key was just pressed.
	EdgeRising Edge = 3
)

// String returns a string representation of the edge.
func (e Edge) String() string {
	switch e {
	case EdgeHigh:
		return "high"
	case EdgeLow:
		return "low"
	case EdgeFalling:
		return "falling"
	case EdgeRising:
		return "rising"
	default:
		return fmt.Sprintf("Edge(%d)", uint8(e))
	}
}

// Pressed reports whether the edge describes a held-down key.
func (e Edge) Pressed() bool {
	return e == EdgeHigh || e == EdgeRising
}

// ErrBadEdge is returned when an edge value falls outside the four defined
// transitions.
var ErrBadEdge = errors.New("seesaw: invalid edge in key event")

// EdgeFromByte validates an edge value. Only 0 through 3 decode.
func EdgeFromByte(v uint8) (Edge, error) {
	switch Edge(v) {
	case EdgeHigh, EdgeLow, EdgeFalling, EdgeRising:
		return Edge(v), nil
	default:
		return 0, ErrBadEdge
	}
}

// RawKeyEvent is a key event as it comes off the FIFO: the physical seesaw
// key code plus the edge.
type RawKeyEvent struct {
	Key  uint8
	Edge Edge
}

// DecodeRawKeyEvent splits a FIFO byte into its key code and edge. The low
// two bits are the edge and the remaining bits the physical key code.
func DecodeRawKeyEvent(b uint8) (RawKeyEvent, error) {
	edge, err := EdgeFromByte(b & 0x03)
	if err != nil {
		return RawKeyEvent{}, err
	}
	return RawKeyEvent{Key: b >> 2, Edge: edge}, nil
}

// SetKeypadInterrupt enables or disables the keypad interrupt line.
func (d *Device) SetKeypadInterrupt(enable bool) error {
	fn := KeypadIntenClr
	if enable {
		fn = KeypadIntenSet
	}
	return d.Write(KeypadBase, fn, []byte{1})
}

// SetKeypadEvent enables or disables reporting of edge on the given physical
// key code.
func (d *Device) SetKeypadEvent(key uint8, edge Edge, enable bool) error {
	status := uint8(0)
	if enable {
		status = 1
	}
	state := uint8(1)<<(uint8(edge)+1) | status
	return d.Write(KeypadBase, KeypadEvent, []byte{key, state})
}

// KeypadEventCount reads how many events are waiting in the FIFO. The keypad
// block answers on the fast settle path.
func (d *Device) KeypadEventCount() (uint8, error) {
	var buf [1]byte
	if err := d.ReadDelay(KeypadBase, KeypadCount, buf[:], FastSettleDelay); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadKeypadFIFO drains len(buf) raw event bytes from the FIFO.
func (d *Device) ReadKeypadFIFO(buf []byte) error {
	return d.ReadDelay(KeypadBase, KeypadFIFO, buf, FastSettleDelay)
}
