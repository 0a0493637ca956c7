package audio

import (
	"context"
	"log/slog"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
)

// resampleQuality trades CPU for fidelity when a sound's native rate differs
// from the output rate.
const resampleQuality = 4

// Engine owns the sound catalog and the output device. The output handle has
// thread affinity, so the engine is reached only through its command channel;
// the goroutine running Run is the sole owner.
type Engine struct {
	dir    string
	logger *slog.Logger

	cmds   chan Command
	events chan Event

	buffers map[SoundID]*beep.Buffer
	rate    beep.SampleRate
}

// NewEngine creates an engine that scans dir for sounds.
func NewEngine(dir string, logger *slog.Logger) *Engine {
	return &Engine{
		dir:     dir,
		logger:  logger,
		cmds:    make(chan Command, 256),
		events:  make(chan Event, 16),
		buffers: make(map[SoundID]*beep.Buffer),
	}
}

// Commands returns the inbound command channel.
func (e *Engine) Commands() chan<- Command {
	return e.cmds
}

// Events returns the outbound event channel.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Run scans and decodes the catalog, then serves playback commands until ctx
// is canceled. The scan happens synchronously at startup and may block for a
// while on large collections.
func (e *Engine) Run(ctx context.Context) error {
	if !e.send(ctx, LoadingStart{}) {
		return ctx.Err()
	}

	catalog, err := e.load(ctx)
	if err != nil {
		return err
	}

	if len(catalog) > 0 {
		// The output runs at the rate of the first sound; everything else
		// is resampled at play time.
		if err := speaker.Init(e.rate, e.rate.N(100*time.Millisecond)); err != nil {
			return errors.Wrap(err, "failed to open audio output")
		}
	}

	e.logger.Info("sound catalog ready", "sounds", len(catalog))

	if !e.send(ctx, LoadingEnd{Catalog: catalog}) {
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("exiting audio loop")
			return ctx.Err()

		case cmd := <-e.cmds:
			switch cmd := cmd.(type) {
			case Play:
				e.play(cmd.Sound)
			}
		}
	}
}

func (e *Engine) load(ctx context.Context) (Catalog, error) {
	paths, err := discover(e.dir)
	if err != nil {
		return nil, err
	}

	e.logger.Info("located audio files", "dir", e.dir, "files", len(paths))

	var catalog Catalog
	for i, path := range paths {
		buffer, format, err := decodeFile(path)
		if err != nil {
			// A broken file costs us one catalog entry, nothing more.
			e.logger.Warn("skipping undecodable file", "path", path, "error", err)
			continue
		}

		if e.rate == 0 {
			e.rate = format.SampleRate
		}

		id := SoundID(len(catalog))
		e.buffers[id] = buffer
		catalog = append(catalog, Sound{
			ID:       id,
			Path:     path,
			Duration: format.SampleRate.D(buffer.Len()),
		})

		if !e.send(ctx, LoadingProgress{Done: i + 1, Total: len(paths)}) {
			return nil, ctx.Err()
		}
	}

	return catalog, nil
}

func (e *Engine) play(id SoundID) {
	buffer, ok := e.buffers[id]
	if !ok {
		e.logger.Warn("play command for unknown sound", "id", int(id))
		return
	}

	e.logger.Debug("playing sound", "id", int(id))

	var streamer beep.Streamer = buffer.Streamer(0, buffer.Len())
	if buffer.Format().SampleRate != e.rate {
		streamer = beep.Resample(resampleQuality, buffer.Format().SampleRate, e.rate, streamer)
	}
	speaker.Play(streamer)
}

func (e *Engine) send(ctx context.Context, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case e.events <- ev:
		return true
	}
}
