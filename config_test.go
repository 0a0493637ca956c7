package padjam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libdb.so/padjam/seesaw"
)

func TestParseConfigAppliesDefaults(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
[device]
bus = "1"
`))
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Device.Bus)
	assert.Equal(t, uint16(0x2E), cfg.Device.Addr)
	assert.Equal(t, 60, cfg.Device.RenderRate)
	assert.Equal(t, 120, cfg.Device.PollRate)
	assert.Equal(t, "audio", cfg.Audio.Dir)
	assert.Equal(t, float64(60), cfg.BPM)
}

func TestParseConfigOverrides(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
bpm = 90

[device]
addr = 0x30
color_order = "grbw"

[audio]
dir = "samples"
`))
	require.NoError(t, err)

	assert.Equal(t, uint16(0x30), cfg.Device.Addr)
	assert.Equal(t, "grbw", cfg.Device.ColorOrder)
	assert.Equal(t, "samples", cfg.Audio.Dir)
	assert.Equal(t, float64(90), cfg.BPM)
}

func TestParseConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"bad color order", "[device]\ncolor_order = \"bgr\"\n"},
		{"zero bpm", "bpm = 0\n"},
		{"negative render rate", "[device]\nrender_rate = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestParseColorOrder(t *testing.T) {
	for name, want := range map[string]seesaw.ColorOrder{
		"rgb":  seesaw.OrderRGB,
		"grb":  seesaw.OrderGRB,
		"rgbw": seesaw.OrderRGBW,
		"grbw": seesaw.OrderGRBW,
	} {
		got, err := ParseColorOrder(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseColorOrder("wrgb")
	assert.Error(t, err)
}
