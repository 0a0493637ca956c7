// Package seesaw implements the register protocol spoken by Adafruit seesaw
// peripherals, along with the keypad and neopixel function blocks used by the
// NeoTrellis 4x4 button grid.
package seesaw

import (
	"time"

	"github.com/pkg/errors"
)

// Bus is the transport a Device speaks over. A periph.io *i2c.Dev satisfies
// it directly; tests substitute an in-memory recorder.
type Bus interface {
	// Tx does one write followed by one read in a single bus transaction.
	// Either buffer may be nil.
	Tx(w, r []byte) error
}

// Register block bases.
const (
	StatusBase   uint8 = 0x00
	NeoPixelBase uint8 = 0x0E
	KeypadBase   uint8 = 0x10
)

// Status block functions.
const (
	StatusHWID    uint8 = 0x01
	StatusVersion uint8 = 0x02
	StatusOptions uint8 = 0x03
	StatusTemp    uint8 = 0x04
	StatusSWRST   uint8 = 0x7F
)

// HWIDCode is the hardware ID reported by a healthy seesaw.
const HWIDCode uint8 = 0x55

const (
	bufferMax  = 32
	payloadMax = bufferMax - 2

	// SettleDelay is how long the seesaw needs between the register-select
	// write and the read for general registers.
	SettleDelay = 14 * time.Millisecond
	// FastSettleDelay is enough for the keypad FIFO fast path.
	FastSettleDelay = 300 * time.Microsecond
)

// ErrPayloadTooLarge is returned when a single transaction would carry more
// than the seesaw's 30-byte payload limit.
var ErrPayloadTooLarge = errors.New("seesaw: payload exceeds 30 bytes")

// Device is a seesaw peripheral on a bus. Higher layers (NeoPixel,
// NeoTrellis) hold a Device rather than embedding it.
type Device struct {
	bus Bus

	// sleep is swapped out by tests.
	sleep func(time.Duration)
}

// New returns a Device speaking over bus.
func New(bus Bus) *Device {
	return &Device{
		bus:   bus,
		sleep: time.Sleep,
	}
}

// Write frames a register write: 2-byte header (base, function) followed by
// at most 30 payload bytes.
func (d *Device) Write(base, function uint8, payload []byte) error {
	if len(payload) > payloadMax {
		return ErrPayloadTooLarge
	}

	buf := make([]byte, 2+len(payload))
	buf[0] = base
	buf[1] = function
	copy(buf[2:], payload)

	if err := d.bus.Tx(buf, nil); err != nil {
		return errors.Wrapf(err, "seesaw: write %#02x/%#02x", base, function)
	}
	return nil
}

// Read reads a register into buf using the general settle delay.
func (d *Device) Read(base, function uint8, buf []byte) error {
	return d.ReadDelay(base, function, buf, SettleDelay)
}

// ReadDelay reads a register into buf. A read is a zero-payload write
// selecting the register, a settle delay, then a bus read.
func (d *Device) ReadDelay(base, function uint8, buf []byte, delay time.Duration) error {
	if err := d.Write(base, function, nil); err != nil {
		return err
	}
	d.sleep(delay)

	if err := d.bus.Tx(nil, buf); err != nil {
		return errors.Wrapf(err, "seesaw: read %#02x/%#02x", base, function)
	}
	return nil
}

// SWReset soft-resets the peripheral. The seesaw needs a moment afterwards
// before it answers again.
func (d *Device) SWReset() error {
	if err := d.Write(StatusBase, StatusSWRST, []byte{0xFF}); err != nil {
		return err
	}
	d.sleep(SettleDelay)
	return nil
}

// HWID reads the hardware ID register.
func (d *Device) HWID() (uint8, error) {
	var buf [1]byte
	if err := d.Read(StatusBase, StatusHWID, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Version reads the firmware version register.
func (d *Device) Version() (uint32, error) {
	var buf [4]byte
	if err := d.Read(StatusBase, StatusVersion, buf[:]); err != nil {
		return 0, err
	}
	return be32(buf[:]), nil
}

// Options reads the module option bitmap.
func (d *Device) Options() (uint32, error) {
	var buf [4]byte
	if err := d.Read(StatusBase, StatusOptions, buf[:]); err != nil {
		return 0, err
	}
	return be32(buf[:]), nil
}

// Temp reads the die temperature in whole degrees Celsius.
func (d *Device) Temp() (uint32, error) {
	var buf [4]byte
	if err := d.Read(StatusBase, StatusTemp, buf[:]); err != nil {
		return 0, err
	}
	return be32(buf[:]) >> 16, nil
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
