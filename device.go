package padjam

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"libdb.so/padjam/seesaw"
)

// trellis is the device surface the runtime drives. *seesaw.NeoTrellis
// satisfies it; tests substitute a recorder.
type trellis interface {
	SetPixel(x, y int, c seesaw.Color) error
	Show() error
	ReadKeyEvents() ([]seesaw.KeyEvent, error)
}

// Device is the runtime that owns the NeoTrellis. It runs two fixed-rate
// loops over the single device handle: a render loop that animates the 16
// pixels and a poll loop that drains key events. Everything else talks to it
// through the command queue and the event channel.
type Device struct {
	cfg    *Config
	logger *slog.Logger

	cmds   chan Command
	events chan seesaw.KeyEvent
}

var _ PixelSetter = (*Device)(nil)

// NewDevice creates a new device runtime.
func NewDevice(cfg *Config, logger *slog.Logger) *Device {
	return &Device{
		cfg:    cfg,
		logger: logger,
		cmds:   make(chan Command, 256),
		events: make(chan seesaw.KeyEvent, 256),
	}
}

// Events returns the outbound key event channel.
func (d *Device) Events() <-chan seesaw.KeyEvent {
	return d.events
}

// SetState queues a pixel state change. It never blocks; when the queue is
// full the update is dropped and the next recompute resends it.
func (d *Device) SetState(x, y int, state PixelState) {
	select {
	case d.cmds <- SetState{X: x, Y: y, State: state}:
	default:
		d.logger.Warn("command queue full, dropping pixel update", "x", x, "y", y)
	}
}

// Run opens the bus, initializes the peripheral and runs the render and poll
// loops until ctx is canceled. Bus errors are fatal: the hardware is assumed
// unreachable and the error propagates up.
func (d *Device) Run(ctx context.Context) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize host")
	}

	bus, err := i2creg.Open(d.cfg.Device.Bus)
	if err != nil {
		return errors.Wrap(err, "failed to open i2c bus")
	}
	defer bus.Close()

	order, err := ParseColorOrder(d.cfg.Device.ColorOrder)
	if err != nil {
		return err
	}

	dev := seesaw.New(&i2c.Dev{Bus: bus, Addr: d.cfg.Device.Addr})
	nt := seesaw.NewNeoTrellis(dev, order)

	if err := nt.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize neotrellis")
	}

	version, err := nt.Version()
	if err != nil {
		return errors.Wrap(err, "failed to read seesaw version")
	}
	d.logger.Info("initialized neotrellis", "version", version)

	for y := 0; y < seesaw.GridHeight; y++ {
		for x := 0; x < seesaw.GridWidth; x++ {
			if err := nt.EnableKeyEvent(x, y, seesaw.EdgeRising, true); err != nil {
				return errors.Wrap(err, "failed to enable key event")
			}
			if err := nt.EnableKeyEvent(x, y, seesaw.EdgeFalling, true); err != nil {
				return errors.Wrap(err, "failed to enable key event")
			}
		}
	}

	return (&internalDevice{Device: d, nt: nt}).run(ctx)
}

// internalDevice holds the mutable loop state so Device itself stays
// reusable between Run calls.
type internalDevice struct {
	*Device

	// mu guards nt. Each loop takes it for one iteration at a time so bus
	// transactions never interleave.
	mu sync.Mutex
	nt trellis

	states [seesaw.GridKeys]PixelState
}

func (d *internalDevice) run(ctx context.Context) error {
	for i := range d.states {
		d.states[i] = Solid{Color: seesaw.White, Update: true}
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return d.renderLoop(ctx) })
	errg.Go(func() error { return d.pollLoop(ctx) })
	return errg.Wait()
}

func (d *internalDevice) renderLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.Device.RenderRate))
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("exiting render loop")
			return ctx.Err()

		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			d.mu.Lock()
			err := d.renderFrame(elapsed)
			d.mu.Unlock()

			if err != nil {
				return errors.Wrap(err, "render")
			}
		}
	}
}

// renderFrame advances every pixel animation, drains pending commands and
// commits the frame with a single show transaction. Callers hold mu.
func (d *internalDevice) renderFrame(elapsed time.Duration) error {
	for i, state := range d.states {
		next, color, write := advancePixel(state, elapsed)
		d.states[i] = next
		if !write {
			continue
		}
		if err := d.nt.SetPixel(i%seesaw.GridWidth, i/seesaw.GridWidth, color); err != nil {
			return err
		}
	}

	d.drainCommands()

	return d.nt.Show()
}

// drainCommands applies every queued command without blocking. The last
// write per coordinate wins within one frame.
func (d *internalDevice) drainCommands() {
	for {
		select {
		case cmd := <-d.cmds:
			switch cmd := cmd.(type) {
			case SetState:
				if cmd.X < 0 || cmd.X >= seesaw.GridWidth || cmd.Y < 0 || cmd.Y >= seesaw.GridHeight {
					continue
				}
				d.states[cmd.Y*seesaw.GridWidth+cmd.X] = cmd.State
			}
		default:
			return
		}
	}
}

func (d *internalDevice) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.Device.PollRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("exiting poll loop")
			return ctx.Err()

		case <-ticker.C:
			d.mu.Lock()
			events, err := d.nt.ReadKeyEvents()
			d.mu.Unlock()

			if err != nil {
				return errors.Wrap(err, "poll keypad")
			}

			for _, ev := range events {
				select {
				case d.events <- ev:
				default:
					d.logger.Warn("event channel full, dropping key event",
						"x", ev.X, "y", ev.Y, "edge", ev.Edge)
				}
			}
		}
	}
}
