package padjam

import (
	"io"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"libdb.so/padjam/seesaw"
)

// Config is the configuration for the padjam daemon.
type Config struct {
	// Device configures the NeoTrellis peripheral.
	Device DeviceConfig `toml:"device"`
	// Audio configures the sound catalog.
	Audio AudioConfig `toml:"audio"`
	// BPM is the sequencer tempo at startup.
	BPM float64 `toml:"bpm"`
}

// DeviceConfig locates the peripheral on the I2C bus.
type DeviceConfig struct {
	// Bus is the I2C bus name or number, e.g. "1" or "/dev/i2c-1".
	// Empty selects the first available bus.
	Bus string `toml:"bus"`
	// Addr is the seesaw's I2C address.
	Addr uint16 `toml:"addr"`
	// ColorOrder is the pixel wiring order: rgb, grb, rgbw or grbw.
	ColorOrder string `toml:"color_order"`
	// RenderRate is the LED frame rate in Hz.
	RenderRate int `toml:"render_rate"`
	// PollRate is the keypad sampling rate in Hz.
	PollRate int `toml:"poll_rate"`
}

// AudioConfig configures sound discovery.
type AudioConfig struct {
	// Dir is the directory scanned recursively for sounds, relative to the
	// working directory.
	Dir string `toml:"dir"`
}

// DefaultConfig returns the configuration used when a field is left unset.
func DefaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			Addr:       0x2E,
			ColorOrder: "grb",
			RenderRate: 60,
			PollRate:   120,
		},
		Audio: AudioConfig{Dir: "audio"},
		BPM:   60,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Device.Addr == 0 {
		return errors.New("device address must be set")
	}
	if _, err := ParseColorOrder(c.Device.ColorOrder); err != nil {
		return err
	}
	if c.Device.RenderRate <= 0 {
		return errors.Errorf("invalid render rate %d", c.Device.RenderRate)
	}
	if c.Device.PollRate <= 0 {
		return errors.Errorf("invalid poll rate %d", c.Device.PollRate)
	}
	if c.Audio.Dir == "" {
		return errors.New("audio directory must be set")
	}
	if c.BPM <= 0 {
		return errors.Errorf("invalid bpm %v", c.BPM)
	}
	return nil
}

// ParseColorOrder parses a color order name from the configuration.
func ParseColorOrder(s string) (seesaw.ColorOrder, error) {
	switch s {
	case "rgb":
		return seesaw.OrderRGB, nil
	case "grb":
		return seesaw.OrderGRB, nil
	case "rgbw":
		return seesaw.OrderRGBW, nil
	case "grbw":
		return seesaw.OrderGRBW, nil
	default:
		return 0, errors.Errorf("unknown color order %q", s)
	}
}

// ParseConfig parses a configuration from a reader. Unset fields fall back
// to DefaultConfig.
func ParseConfig(r io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &config, nil
}
