package padjam

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libdb.so/padjam/internal/audio"
	"libdb.so/padjam/seesaw"
)

type fakeLights struct {
	states map[[2]int]PixelState
}

func (f *fakeLights) SetState(x, y int, state PixelState) {
	f.states[[2]int{x, y}] = state
}

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) advanceTicks(tick time.Duration, n int64) {
	c.t = c.t.Add(time.Duration(n) * tick)
}

func testCatalog() audio.Catalog {
	return audio.Catalog{
		{ID: 0, Path: "/music/kicks/808.wav", Duration: 2 * time.Second},
		{ID: 1, Path: "/music/kicks/909.wav", Duration: time.Second},
		{ID: 2, Path: "/music/clap.wav", Duration: 500 * time.Millisecond},
	}
}

// newPlayApp returns an app already transitioned into play.
func newPlayApp(t *testing.T) (*App, *playState, *fakeLights, chan audio.Command, *testClock) {
	t.Helper()

	cfg := DefaultConfig()
	lights := &fakeLights{states: map[[2]int]PixelState{}}
	cmds := make(chan audio.Command, 16)
	clock := &testClock{t: time.Unix(1000, 0)}

	a := NewApp(&cfg, lights, cmds, slog.Default())
	a.now = clock.Now
	a.state = &loadingState{cancelAnim: func() {}}

	a.handleAudio(audio.LoadingEnd{Catalog: testCatalog()})

	play, ok := a.state.(*playState)
	require.True(t, ok, "LoadingEnd must transition to play")
	return a, play, lights, cmds, clock
}

func press(a *App, x, y int) {
	a.handleKey(seesaw.KeyEvent{X: x, Y: y, Edge: seesaw.EdgeRising})
}

func release(a *App, x, y int) {
	a.handleKey(seesaw.KeyEvent{X: x, Y: y, Edge: seesaw.EdgeFalling})
}

func bind(play *playState, x, y int, id audio.SoundID) {
	play.soundKeys[y-1][x].binding = &id
}

func drainPlays(cmds chan audio.Command) []audio.SoundID {
	var ids []audio.SoundID
	for {
		select {
		case cmd := <-cmds:
			if play, ok := cmd.(audio.Play); ok {
				ids = append(ids, play.Sound)
			}
		default:
			return ids
		}
	}
}

func TestLoadingEndTransitionsOnce(t *testing.T) {
	a, play, _, _, _ := newPlayApp(t)

	assert.Equal(t, tickForBPM(60), play.tick)

	// A second catalog event must not reset the sequencer.
	a.handleAudio(audio.LoadingEnd{Catalog: nil})
	assert.Same(t, play, a.state)
}

func TestQuantizeToggleKey(t *testing.T) {
	a, play, lights, _, _ := newPlayApp(t)

	press(a, 1, 0)
	release(a, 1, 0)
	assert.True(t, play.quantize)
	assert.Equal(t, Solid{Color: colorWhite, Update: true}, lights.states[[2]int{1, 0}])

	press(a, 1, 0)
	assert.False(t, play.quantize)
	assert.Equal(t, Solid{Color: colorOff, Update: true}, lights.states[[2]int{1, 0}])
}

func TestDividerCycleKey(t *testing.T) {
	a, play, _, _, _ := newPlayApp(t)

	press(a, 3, 0)
	release(a, 3, 0)
	require.True(t, play.divider.active())
	assert.Equal(t, -8, play.divider.value)
}

func TestClearLoopsKey(t *testing.T) {
	a, play, _, _, _ := newPlayApp(t)
	play.divider = loopDivider{set: true, value: 1}
	play.loops = []loopEntry{{offset: 0, period: 60, sound: 0}}

	press(a, 2, 0)

	assert.Empty(t, play.loops)
	assert.False(t, play.divider.active())
}

func TestBPMKeysWhileFnHeld(t *testing.T) {
	a, play, _, _, _ := newPlayApp(t)

	press(a, 0, 0) // hold F1
	press(a, 3, 0)
	assert.Equal(t, float64(61), bpmOf(play.tick))
	assert.False(t, play.divider.active(), "divider must not cycle while F1 is held")

	press(a, 2, 0)
	press(a, 2, 0)
	assert.Equal(t, float64(59), bpmOf(play.tick))
}

func TestSoundKeyPlaysBinding(t *testing.T) {
	a, play, _, cmds, _ := newPlayApp(t)
	bind(play, 2, 1, 0)

	press(a, 2, 1)
	assert.Equal(t, []audio.SoundID{0}, drainPlays(cmds))

	// Unbound keys stay silent.
	press(a, 3, 3)
	assert.Empty(t, drainPlays(cmds))
}

func TestSoundKeyCapturesLoopWhenDividerActive(t *testing.T) {
	a, play, _, cmds, clock := newPlayApp(t)
	bind(play, 1, 2, 1)
	play.divider = loopDivider{set: true, value: 1} // 60-tick period
	play.quantize = true

	clock.advanceTicks(play.tick, 75)
	press(a, 1, 2)

	require.Len(t, play.loops, 1)
	assert.Equal(t, int64(60), play.loops[0].offset, "quantize rounds down to the period boundary")
	assert.Equal(t, int64(60), play.loops[0].period)
	assert.Equal(t, audio.SoundID(1), play.loops[0].sound)

	// The sound also plays immediately.
	assert.Equal(t, []audio.SoundID{1}, drainPlays(cmds))
}

func TestAddLoopUnquantizedKeepsRawOffset(t *testing.T) {
	a, play, _, _, clock := newPlayApp(t)
	bind(play, 1, 2, 0)
	play.divider = loopDivider{set: true, value: 0} // sound-length period

	clock.advanceTicks(play.tick, 47)
	press(a, 1, 2)

	require.Len(t, play.loops, 1)
	assert.Equal(t, int64(47), play.loops[0].offset)
	// 2s sound at 60 ticks/s.
	assert.Equal(t, int64(120), play.loops[0].period)
}

func TestReassignEndToEnd(t *testing.T) {
	a, play, lights, _, _ := newPlayApp(t)

	press(a, 0, 0) // hold F1
	press(a, 2, 1) // reassign target (2, 1)
	release(a, 0, 0)

	require.NotNil(t, play.reassign)
	assert.Equal(t, 2, play.reassign.targetX)
	assert.Equal(t, 1, play.reassign.targetY)
	assert.Equal(t, play.reassign.baseDir, play.reassign.currentDir)
	assert.Equal(t, "/music", play.reassign.baseDir)

	// Save is dim green until a selection exists; the target key is lit.
	assert.Equal(t, Solid{Color: colorGreenDim, Update: true}, lights.states[[2]int{3, 0}])
	assert.Equal(t, Solid{Color: colorWhite, Update: true}, lights.states[[2]int{2, 1}])

	a.SelectSound(2)
	assert.Equal(t, Solid{Color: colorGreenBright, Update: true}, lights.states[[2]int{3, 0}])

	press(a, 3, 0) // save

	assert.Nil(t, play.reassign)
	require.NotNil(t, play.soundKeys[0][2].binding)
	assert.Equal(t, audio.SoundID(2), *play.soundKeys[0][2].binding)
}

func TestReassignQuitDiscardsSelection(t *testing.T) {
	a, play, _, _, _ := newPlayApp(t)

	press(a, 0, 0)
	press(a, 2, 1)
	release(a, 0, 0)
	require.NotNil(t, play.reassign)

	a.SelectSound(1)
	press(a, 0, 0) // F1 quits

	assert.Nil(t, play.reassign)
	assert.Nil(t, play.soundKeys[0][2].binding)
}

func TestReassignSuspendsNormalHandling(t *testing.T) {
	a, play, _, cmds, _ := newPlayApp(t)
	bind(play, 1, 1, 0)

	press(a, 0, 0)
	press(a, 2, 2)
	release(a, 0, 0)
	require.NotNil(t, play.reassign)
	drainPlays(cmds)

	// A bound sound key neither plays nor rebinds while browsing.
	press(a, 1, 1)
	assert.Empty(t, drainPlays(cmds))
	require.NotNil(t, play.reassign)
	assert.Equal(t, 2, play.reassign.targetX)
}

func TestReassignUpDirKey(t *testing.T) {
	a, play, _, _, _ := newPlayApp(t)

	press(a, 0, 0)
	press(a, 1, 1)
	release(a, 0, 0)
	require.NotNil(t, play.reassign)

	a.SelectDir("kicks")
	assert.Equal(t, "/music/kicks", play.reassign.currentDir)

	press(a, 1, 0) // up one directory
	assert.Equal(t, "/music", play.reassign.currentDir)

	press(a, 1, 0) // at base: no-op
	assert.Equal(t, "/music", play.reassign.currentDir)
}

func TestSchedulerFiresDueLoops(t *testing.T) {
	a, play, _, cmds, clock := newPlayApp(t)
	play.loops = []loopEntry{{offset: 0, period: 30, sound: 2}}

	fired := map[int64]int{}
	for tick := int64(0); tick <= 90; tick++ {
		clock.t = play.seqStart.Add(time.Duration(tick) * play.tick)
		a.schedulerTick()
		fired[tick] = len(drainPlays(cmds))
	}

	for tick := int64(0); tick <= 90; tick++ {
		if tick%30 == 0 {
			assert.Equal(t, 1, fired[tick], "tick %d should fire", tick)
		} else {
			assert.Zero(t, fired[tick], "tick %d should not fire", tick)
		}
	}
}

func TestSchedulerEvaluatesEachTickOnce(t *testing.T) {
	a, play, _, cmds, clock := newPlayApp(t)
	play.loops = []loopEntry{{offset: 0, period: 30, sound: 0}}

	clock.t = play.seqStart.Add(30 * play.tick)
	a.schedulerTick()
	a.schedulerTick()

	assert.Len(t, drainPlays(cmds), 1)
}

func TestSchedulerSkippedDuringReassign(t *testing.T) {
	a, play, _, cmds, clock := newPlayApp(t)
	play.loops = []loopEntry{{offset: 0, period: 30, sound: 0}}
	play.reassign = newReassignState(play.sounds, 1, 1)

	clock.t = play.seqStart.Add(30 * play.tick)
	a.schedulerTick()

	assert.Empty(t, drainPlays(cmds))
}

func TestNormalLEDsLeaveDividerKeyAlone(t *testing.T) {
	_, _, lights, _, _ := newPlayApp(t)

	// The feedback push after the transition covers the whole grid except
	// (3, 0), which belongs to the scheduler.
	assert.NotContains(t, lights.states, [2]int{3, 0})
	assert.Equal(t, Solid{Color: colorWhite, Update: true}, lights.states[[2]int{0, 0}])
	assert.Equal(t, Solid{Color: colorWhite, Update: true}, lights.states[[2]int{2, 0}])
	assert.Equal(t, Solid{Color: colorOff, Update: true}, lights.states[[2]int{1, 0}])
}

func TestBoundKeysLitGray(t *testing.T) {
	a, play, lights, _, _ := newPlayApp(t)
	bind(play, 3, 2, 1)

	press(a, 0, 3) // any key recomputes the feedback

	assert.Equal(t, Solid{Color: colorBound, Update: true}, lights.states[[2]int{3, 2}])
	assert.Equal(t, Solid{Color: colorOff, Update: true}, lights.states[[2]int{0, 1}])
}

func TestUpdatesQueuedOnMutation(t *testing.T) {
	a, _, _, _, _ := newPlayApp(t)

	select {
	case <-a.Updates():
	default:
		t.Fatal("expected a queued update notification")
	}
}
