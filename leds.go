package padjam

import "libdb.so/padjam/seesaw"

// Feedback palette.
var (
	colorOff         = seesaw.Black
	colorWhite       = seesaw.White
	colorRed         = seesaw.Color{R: 255}
	colorOrange      = seesaw.Color{R: 255, G: 120}
	colorGreenDim    = seesaw.Color{G: 40}
	colorGreenBright = seesaw.Color{G: 255}
	colorBound       = seesaw.Color{R: 50, G: 50, B: 50}
)

// playLEDs computes the LED feedback for a play state as a list of SetState
// commands. It is a pure function of the state, recomputed after every
// mutation.
//
// In normal mode key (3, 0) is absent from the result: the scheduler owns it
// and animates it on its own clock.
func playLEDs(p *playState) []SetState {
	if p.reassign != nil {
		return reassignLEDs(p.reassign)
	}

	cmds := make([]SetState, 0, seesaw.GridKeys-1)

	solid := func(x, y int, c seesaw.Color) {
		cmds = append(cmds, SetState{X: x, Y: y, State: Solid{Color: c, Update: true}})
	}

	solid(0, 0, colorWhite)
	if p.quantize {
		solid(1, 0, colorWhite)
	} else {
		solid(1, 0, colorOff)
	}
	solid(2, 0, colorWhite)

	for y := 1; y < seesaw.GridHeight; y++ {
		for x := 0; x < seesaw.GridWidth; x++ {
			if p.soundKeys[y-1][x].binding != nil {
				solid(x, y, colorBound)
			} else {
				solid(x, y, colorOff)
			}
		}
	}

	return cmds
}

// reassignLEDs maps the browser controls onto the function row and lights
// the target key.
func reassignLEDs(r *reassignState) []SetState {
	cmds := make([]SetState, 0, seesaw.GridKeys)

	solid := func(x, y int, c seesaw.Color) {
		cmds = append(cmds, SetState{X: x, Y: y, State: Solid{Color: c, Update: true}})
	}

	solid(0, 0, colorRed)    // quit
	solid(1, 0, colorOrange) // up one directory
	solid(2, 0, colorOff)
	if r.selected != nil {
		solid(3, 0, colorGreenBright) // save
	} else {
		solid(3, 0, colorGreenDim)
	}

	for y := 1; y < seesaw.GridHeight; y++ {
		for x := 0; x < seesaw.GridWidth; x++ {
			if x == r.targetX && y == r.targetY {
				solid(x, y, colorWhite)
			} else {
				solid(x, y, colorOff)
			}
		}
	}

	return cmds
}
