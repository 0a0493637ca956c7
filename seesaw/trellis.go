package seesaw

import "github.com/pkg/errors"

// NeoTrellis grid dimensions.
const (
	GridWidth  = 4
	GridHeight = 4
	GridKeys   = GridWidth * GridHeight
)

// trellisPixelPin is the seesaw GPIO the NeoTrellis pixels are wired to.
const trellisPixelPin = 3

// KeyEvent is a decoded keypad event in logical grid coordinates.
type KeyEvent struct {
	X, Y int
	Edge Edge
}

// KeyToSeesaw remaps a logical key index (y*4+x) to the seesaw's internal
// tiling order.
func KeyToSeesaw(key uint8) uint8 {
	return (key/4)*8 + key%4
}

// SeesawToKey is the inverse of KeyToSeesaw.
func SeesawToKey(code uint8) uint8 {
	return (code/8)*4 + code%8
}

// XYToSeesaw remaps logical grid coordinates to a seesaw key code.
func XYToSeesaw(x, y int) uint8 {
	return KeyToSeesaw(uint8(y*GridWidth + x))
}

// SeesawToXY remaps a seesaw key code to logical grid coordinates.
func SeesawToXY(code uint8) (x, y int) {
	key := int(SeesawToKey(code))
	return key % GridWidth, key / GridWidth
}

// NeoTrellis is the 4x4 grid: the keypad block plus one neopixel per key.
// It holds the NeoPixel layer, which in turn holds the Device.
type NeoTrellis struct {
	dev *Device
	np  *NeoPixel
}

// NewNeoTrellis returns the NeoTrellis layers on top of dev.
func NewNeoTrellis(dev *Device, order ColorOrder) *NeoTrellis {
	return &NeoTrellis{
		dev: dev,
		np:  NewNeoPixel(dev, order),
	}
}

// Init resets the peripheral, verifies its identity and configures the pixel
// chain and keypad for the 4x4 grid.
func (nt *NeoTrellis) Init() error {
	if err := nt.dev.SWReset(); err != nil {
		return errors.Wrap(err, "reset")
	}

	hwid, err := nt.dev.HWID()
	if err != nil {
		return errors.Wrap(err, "probe hardware ID")
	}
	if hwid != HWIDCode {
		return errors.Errorf("seesaw: unexpected hardware ID %#02x", hwid)
	}

	if err := nt.np.SetPin(trellisPixelPin); err != nil {
		return err
	}
	if err := nt.np.SetSpeed(SpeedKHz800); err != nil {
		return err
	}
	if err := nt.np.SetLength(GridKeys); err != nil {
		return err
	}
	return nt.dev.SetKeypadInterrupt(true)
}

// Version reads the peripheral's firmware version.
func (nt *NeoTrellis) Version() (uint32, error) {
	return nt.dev.Version()
}

// EnableKeyEvent turns reporting of edge on the logical key (x, y) on or off.
func (nt *NeoTrellis) EnableKeyEvent(x, y int, edge Edge, enable bool) error {
	return nt.dev.SetKeypadEvent(XYToSeesaw(x, y), edge, enable)
}

// SetPixel stages the color of the pixel under logical key (x, y).
func (nt *NeoTrellis) SetPixel(x, y int, c Color) error {
	return nt.np.SetPixel(y*GridWidth+x, c)
}

// Show commits the staged pixel buffer in one bus transaction.
func (nt *NeoTrellis) Show() error {
	return nt.np.Show()
}

// ReadKeyEvents drains the keypad FIFO and returns the decoded events that
// fall inside the grid. Events with a malformed edge or an out-of-grid key
// code are dropped.
func (nt *NeoTrellis) ReadKeyEvents() ([]KeyEvent, error) {
	count, err := nt.dev.KeypadEventCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	buf := make([]byte, count)
	if err := nt.dev.ReadKeypadFIFO(buf); err != nil {
		return nil, err
	}

	events := make([]KeyEvent, 0, count)
	for _, b := range buf {
		raw, err := DecodeRawKeyEvent(b)
		if err != nil {
			continue
		}
		// The grid only populates the low 4 columns of each 8-wide seesaw
		// row, so filter before remapping folds stray codes into range.
		if int(raw.Key%8) >= GridWidth || int(raw.Key/8) >= GridHeight {
			continue
		}
		x, y := SeesawToXY(raw.Key)
		events = append(events, KeyEvent{X: x, Y: y, Edge: raw.Edge})
	}
	return events, nil
}
