package padjam

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"libdb.so/padjam/internal/audio"
	"libdb.so/padjam/seesaw"
)

// appState is the application's top-level state. Exactly one variant is
// active at any time.
type appState interface {
	appState()
}

type loadingStage uint8

const (
	stageDiscovering loadingStage = iota
	stageBuffering
)

// loadingState is active from startup until the catalog arrives.
type loadingState struct {
	stage loadingStage
	done  int
	total int

	// cancelAnim stops the loading animation goroutine.
	cancelAnim context.CancelFunc
}

// playState is the live sampler state.
type playState struct {
	sounds audio.Catalog

	// soundKeys is the lower 3 rows; the top row is the function row.
	soundKeys [seesaw.GridHeight - 1][seesaw.GridWidth]soundKeyState
	fnKeys    [seesaw.GridWidth]fnKeyState

	reassign *reassignState

	quantize bool
	divider  loopDivider
	loops    []loopEntry

	seqStart time.Time
	tick     time.Duration

	// lastTick stops the scheduler from evaluating the same tick twice when
	// its wake-ups drift against the tick grid.
	lastTick int64

	dividerLEDOn bool
}

func (*loadingState) appState() {}
func (*playState) appState()    {}

type soundKeyState struct {
	binding *audio.SoundID
	pressed bool
}

type fnKeyState struct {
	pressed bool
}

// tickIndex converts a wall-clock instant into a sequencer tick count.
func (p *playState) tickIndex(now time.Time) int64 {
	return int64(now.Sub(p.seqStart) / p.tick)
}

// App is the sequencer state machine. It consumes key events and audio
// events, mutates the single state cell and pushes LED feedback back into
// the device runtime.
type App struct {
	cfg    *Config
	lights PixelSetter
	audio  chan<- audio.Command
	logger *slog.Logger

	mu    sync.Mutex
	state appState

	// retick pokes the scheduler to re-arm after a tick duration change.
	retick  chan struct{}
	updates chan struct{}

	// now is swapped out by tests.
	now func() time.Time
}

// NewApp creates the application.
func NewApp(cfg *Config, lights PixelSetter, audioCmds chan<- audio.Command, logger *slog.Logger) *App {
	return &App{
		cfg:     cfg,
		lights:  lights,
		audio:   audioCmds,
		logger:  logger,
		retick:  make(chan struct{}, 1),
		updates: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Updates notifies an external UI that the state changed. It is closed when
// Run returns, so a UI event loop blocked on it observes shutdown.
func (a *App) Updates() <-chan struct{} {
	return a.updates
}

// Run processes events until ctx is canceled or either input channel closes.
func (a *App) Run(ctx context.Context, keys <-chan seesaw.KeyEvent, audioEvents <-chan audio.Event) error {
	animCtx, cancelAnim := context.WithCancel(ctx)
	defer cancelAnim()

	a.mu.Lock()
	a.state = &loadingState{stage: stageDiscovering, cancelAnim: cancelAnim}
	a.mu.Unlock()

	go a.loadingAnimation(animCtx)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return a.eventLoop(ctx, keys, audioEvents) })
	errg.Go(func() error { return a.schedulerLoop(ctx) })
	err := errg.Wait()

	// Final wake-up: anything blocked on Updates sees the close and exits.
	close(a.updates)

	return err
}

// eventLoop is a plain race between the two event sources; neither has
// priority. A closed channel means the producer is gone, which ends the app
// gracefully rather than as an error.
func (a *App) eventLoop(ctx context.Context, keys <-chan seesaw.KeyEvent, audioEvents <-chan audio.Event) error {
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("exiting event loop")
			return ctx.Err()

		case ev, ok := <-keys:
			if !ok {
				a.logger.Debug("key event channel closed")
				return nil
			}
			a.handleKey(ev)

		case ev, ok := <-audioEvents:
			if !ok {
				a.logger.Debug("audio event channel closed")
				return nil
			}
			a.handleAudio(ev)
		}
	}
}

func (a *App) handleAudio(ev audio.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev := ev.(type) {
	case audio.LoadingStart:
		if loading, ok := a.state.(*loadingState); ok {
			loading.stage = stageDiscovering
		}

	case audio.LoadingProgress:
		if loading, ok := a.state.(*loadingState); ok {
			loading.stage = stageBuffering
			loading.done = ev.Done
			loading.total = ev.Total
		}

	case audio.LoadingEnd:
		loading, ok := a.state.(*loadingState)
		if !ok {
			// The transition fires exactly once.
			return
		}
		loading.cancelAnim()

		a.logger.Info("catalog loaded, entering play", "sounds", len(ev.Catalog))

		play := &playState{
			sounds:   ev.Catalog,
			seqStart: a.now(),
			tick:     tickForBPM(a.cfg.BPM),
			lastTick: -1,
		}
		a.state = play
		a.pushLEDs(play)
	}

	a.queueUpdate()
}

func (a *App) handleKey(ev seesaw.KeyEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	play, ok := a.state.(*playState)
	if !ok {
		return
	}

	pressed := ev.Edge.Pressed()
	if ev.Y == 0 {
		play.fnKeys[ev.X].pressed = pressed
	} else {
		play.soundKeys[ev.Y-1][ev.X].pressed = pressed
	}

	if ev.Edge == seesaw.EdgeRising {
		switch {
		case play.reassign != nil:
			// Browsing suspends normal handling; the function row becomes
			// quit / up / - / save.
			if ev.Y == 0 {
				a.handleReassignKey(play, ev.X)
			}
		case ev.Y > 0:
			a.handleSoundKey(play, ev.X, ev.Y)
		default:
			a.handleFnKey(play, ev.X)
		}
	}

	a.pushLEDs(play)
	a.queueUpdate()
}

func (a *App) handleReassignKey(play *playState, x int) {
	r := play.reassign
	switch x {
	case 0: // quit, discarding any selection
		play.reassign = nil
	case 1:
		r.upDir(play.sounds)
	case 3: // save
		if r.selected != nil {
			play.soundKeys[r.targetY-1][r.targetX].binding = r.selected
			a.logger.Info("bound sound to key",
				"x", r.targetX, "y", r.targetY, "sound", int(*r.selected))
		}
		play.reassign = nil
	}
}

func (a *App) handleSoundKey(play *playState, x, y int) {
	if play.fnKeys[0].pressed {
		play.reassign = newReassignState(play.sounds, x, y)
		return
	}

	key := play.soundKeys[y-1][x]
	if key.binding == nil {
		return
	}
	id := *key.binding

	if play.divider.active() {
		a.addLoop(play, id)
	}
	a.playSound(id)
}

func (a *App) handleFnKey(play *playState, x int) {
	if play.fnKeys[0].pressed && x != 0 {
		switch x {
		case 2:
			a.setBPM(play, bpmOf(play.tick)-0.5)
		case 3:
			a.setBPM(play, bpmOf(play.tick)+1.5)
		}
		return
	}

	switch x {
	case 1:
		play.quantize = !play.quantize
	case 2:
		play.loops = nil
		play.divider = dividerNone
	case 3:
		play.divider = play.divider.next()
	}
}

func (a *App) setBPM(play *playState, bpm float64) {
	if bpm <= 0 {
		return
	}
	play.tick = tickForBPM(bpm)
	a.logger.Debug("tempo changed", "bpm", bpmOf(play.tick))

	// Re-arm the scheduler onto the new tick duration.
	select {
	case a.retick <- struct{}{}:
	default:
	}
}

func (a *App) addLoop(play *playState, id audio.SoundID) {
	period := play.divider.period(play.tick, a.soundDuration(play, id))
	if period <= 0 {
		return
	}

	offset := play.tickIndex(a.now())
	if play.quantize {
		offset -= floorMod(offset, period)
	}

	play.loops = append(play.loops, loopEntry{offset: offset, period: period, sound: id})
	a.logger.Debug("added loop", "sound", int(id), "offset", offset, "period", period)
}

func (a *App) soundDuration(play *playState, id audio.SoundID) time.Duration {
	for _, s := range play.sounds {
		if s.ID == id {
			return s.Duration
		}
	}
	return 0
}

func (a *App) playSound(id audio.SoundID) {
	select {
	case a.audio <- audio.Play{Sound: id}:
	default:
		a.logger.Warn("audio command queue full, dropping play", "sound", int(id))
	}
}

// SelectDir descends the reassignment browser into a listed subdirectory.
// It is called by the external UI.
func (a *App) SelectDir(name string) {
	a.withReassign(func(play *playState, r *reassignState) {
		r.selectDir(play.sounds, name)
	})
}

// UpDir pops the reassignment browser up one directory.
func (a *App) UpDir() {
	a.withReassign(func(play *playState, r *reassignState) {
		r.upDir(play.sounds)
	})
}

// SelectSound marks a listed sound as the pending selection without closing
// the browser.
func (a *App) SelectSound(id audio.SoundID) {
	a.withReassign(func(play *playState, r *reassignState) {
		r.selectSound(id)
	})
}

func (a *App) withReassign(f func(*playState, *reassignState)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	play, ok := a.state.(*playState)
	if !ok || play.reassign == nil {
		return
	}
	f(play, play.reassign)
	a.pushLEDs(play)
	a.queueUpdate()
}

// schedulerLoop wakes every tick to fire due loops. The wake interval tracks
// the current tick duration and re-arms when it changes.
func (a *App) schedulerLoop(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for {
		a.mu.Lock()
		interval := tickForBPM(a.cfg.BPM)
		if play, ok := a.state.(*playState); ok {
			interval = play.tick
		}
		a.mu.Unlock()

		timer.Reset(interval)

		select {
		case <-ctx.Done():
			a.logger.Debug("exiting scheduler loop")
			return ctx.Err()

		case <-a.retick:
			if !timer.Stop() {
				<-timer.C
			}

		case <-timer.C:
			a.schedulerTick()
		}
	}
}

// schedulerTick fires every loop entry due on the current tick and animates
// the divider key LED. It is skipped entirely while reassignment is active.
func (a *App) schedulerTick() {
	a.mu.Lock()
	defer a.mu.Unlock()

	play, ok := a.state.(*playState)
	if !ok || play.reassign != nil {
		return
	}

	tick := play.tickIndex(a.now())
	if tick == play.lastTick {
		return
	}
	play.lastTick = tick

	for _, l := range play.loops {
		if l.due(tick) {
			a.playSound(l.sound)
		}
	}

	a.animateDividerLED(play, tick)
}

// animateDividerLED drives key (3, 0), which the feedback mapping leaves
// alone: a blink at half the divider period while loop capture is armed, a
// fade to dark every 30 ticks otherwise.
func (a *App) animateDividerLED(play *playState, tick int64) {
	if period := play.divider.period(play.tick, 0); period > 0 {
		on := floorMod(tick, period) < (period+1)/2
		if on != play.dividerLEDOn {
			play.dividerLEDOn = on
			color := colorOff
			if on {
				color = colorWhite
			}
			a.lights.SetState(3, 0, Solid{Color: color, Update: true})
		}
		return
	}

	play.dividerLEDOn = false
	if floorMod(tick, 30) == 0 {
		a.lights.SetState(3, 0, FadeLinear{
			From:     colorWhite,
			To:       colorOff,
			Duration: 500 * time.Millisecond,
		})
	}
}

func (a *App) pushLEDs(play *playState) {
	for _, cmd := range playLEDs(play) {
		a.lights.SetState(cmd.X, cmd.Y, cmd.State)
	}
}

func (a *App) queueUpdate() {
	select {
	case a.updates <- struct{}{}:
	default:
	}
}

// loadingAnimation paints the grid dark blue and walks a highlight across it
// until canceled.
func (a *App) loadingAnimation(ctx context.Context) {
	field := seesaw.RGB(0, 0, 0.3)
	trail := seesaw.RGB(0, 0.1, 0.3)
	head := seesaw.RGB(0, 0.2, 0.7)

	for y := 0; y < seesaw.GridHeight; y++ {
		for x := 0; x < seesaw.GridWidth; x++ {
			a.lights.SetState(x, y, Solid{Color: field, Update: true})
		}
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	highlight := 0
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("exiting loading animation")
			return

		case <-ticker.C:
			x, y := highlight%seesaw.GridWidth, highlight/seesaw.GridWidth
			a.lights.SetState(x, y, Solid{Color: trail, Update: true})

			highlight = (highlight + 1) % seesaw.GridKeys
			x, y = highlight%seesaw.GridWidth, highlight/seesaw.GridWidth
			a.lights.SetState(x, y, Solid{Color: head, Update: true})
		}
	}
}
