package seesaw

import (
	"fmt"

	"github.com/pkg/errors"
)

// NeoPixel block functions.
const (
	NeoPixelPin       uint8 = 0x01
	NeoPixelSpeed     uint8 = 0x02
	NeoPixelBufLength uint8 = 0x03
	NeoPixelBuf       uint8 = 0x04
	NeoPixelShow      uint8 = 0x05
)

const (
	numPins     = 32
	maxBufBytes = 63 * 3

	// maxBufWriteBytes is the largest pixel-buffer chunk that fits a single
	// transaction next to the 2-byte offset.
	maxBufWriteBytes = payloadMax - 2
)

// Speed is the neopixel data rate.
type Speed uint8

const (
	SpeedKHz400 Speed = 0x00
	SpeedKHz800 Speed = 0x01
)

// ColorOrder is the channel order the pixels are wired for. It is a static
// property of the peripheral, not something to probe.
type ColorOrder uint8

const (
	OrderRGB ColorOrder = iota
	OrderGRB
	OrderRGBW
	OrderGRBW
)

// String returns a string representation of the color order.
func (o ColorOrder) String() string {
	switch o {
	case OrderRGB:
		return "rgb"
	case OrderGRB:
		return "grb"
	case OrderRGBW:
		return "rgbw"
	case OrderGRBW:
		return "grbw"
	default:
		return fmt.Sprintf("ColorOrder(%d)", uint8(o))
	}
}

// BytesPerPixel returns 3 or 4 depending on whether the order carries a
// white channel.
func (o ColorOrder) BytesPerPixel() int {
	switch o {
	case OrderRGBW, OrderGRBW:
		return 4
	default:
		return 3
	}
}

// Color is a single pixel color. W is ignored on 3-channel strips.
type Color struct {
	R, G, B, W uint8
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// RGB builds a Color from float channels in [0, 1].
func RGB(r, g, b float64) Color {
	return Color{R: clamp8(r), G: clamp8(g), B: clamp8(b)}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v * 255)
	}
}

// append writes the color's channels in wire order.
func (c Color) append(dst []byte, order ColorOrder) []byte {
	switch order {
	case OrderRGB:
		return append(dst, c.R, c.G, c.B)
	case OrderGRB:
		return append(dst, c.G, c.R, c.B)
	case OrderRGBW:
		return append(dst, c.R, c.G, c.B, c.W)
	case OrderGRBW:
		return append(dst, c.G, c.R, c.B, c.W)
	default:
		return append(dst, c.R, c.G, c.B)
	}
}

// EncodePixelWrite encodes a buffer write for a single pixel: a 2-byte
// big-endian byte offset (index times bytes-per-pixel) followed by the color
// bytes in wire order.
func EncodePixelWrite(index int, c Color, order ColorOrder) []byte {
	offset := index * order.BytesPerPixel()
	buf := make([]byte, 2, 2+order.BytesPerPixel())
	buf[0] = uint8(offset >> 8)
	buf[1] = uint8(offset)
	return c.append(buf, order)
}

// NeoPixel exposes the seesaw's neopixel block. It holds the Device it
// delegates to.
type NeoPixel struct {
	dev   *Device
	order ColorOrder
}

// NewNeoPixel returns the neopixel block of dev, wired for order.
func NewNeoPixel(dev *Device, order ColorOrder) *NeoPixel {
	return &NeoPixel{dev: dev, order: order}
}

// Order returns the configured channel order.
func (np *NeoPixel) Order() ColorOrder { return np.order }

// SetPin selects the GPIO pin the pixel chain hangs off.
func (np *NeoPixel) SetPin(pin uint8) error {
	if pin >= numPins {
		return errors.Errorf("seesaw: pixel pin %d out of range", pin)
	}
	return np.dev.Write(NeoPixelBase, NeoPixelPin, []byte{pin})
}

// SetSpeed selects the pixel data rate.
func (np *NeoPixel) SetSpeed(speed Speed) error {
	return np.dev.Write(NeoPixelBase, NeoPixelSpeed, []byte{uint8(speed)})
}

// SetLength sizes the pixel buffer for n pixels.
func (np *NeoPixel) SetLength(n int) error {
	count := n * np.order.BytesPerPixel()
	if count > maxBufBytes {
		return errors.Errorf("seesaw: pixel buffer of %d pixels too large", n)
	}
	return np.dev.Write(NeoPixelBase, NeoPixelBufLength, []byte{uint8(count >> 8), uint8(count)})
}

// SetPixel writes one pixel's color into the device-side buffer. Nothing is
// visible until Show.
func (np *NeoPixel) SetPixel(index int, c Color) error {
	buf := EncodePixelWrite(index, c, np.order)
	if len(buf) > payloadMax {
		return ErrPayloadTooLarge
	}
	return np.dev.Write(NeoPixelBase, NeoPixelBuf, buf)
}

// Show latches the device-side buffer onto the pixels.
func (np *NeoPixel) Show() error {
	return np.dev.Write(NeoPixelBase, NeoPixelShow, nil)
}
