// Package audio discovers and decodes the sound catalog at startup and plays
// sounds by id through a single playback worker.
package audio

import "time"

// SoundID identifies a catalog entry. Ids are stable for the lifetime of the
// process, assigned in discovery order.
type SoundID int

// Sound is one catalog entry.
type Sound struct {
	ID       SoundID
	Path     string
	Duration time.Duration
}

// Catalog is the ordered list of discovered sounds.
type Catalog []Sound

// Command is an instruction for the audio engine.
type Command interface {
	command()
}

// Play plays the sound with the given id from the start.
type Play struct {
	Sound SoundID
}

func (Play) command() {}

// Event is a notification from the audio engine.
type Event interface {
	event()
}

// LoadingStart is emitted once, before the catalog scan begins.
type LoadingStart struct{}

// LoadingProgress is emitted as files are decoded into memory.
type LoadingProgress struct {
	Done, Total int
}

// LoadingEnd is emitted once, when the catalog is ready.
type LoadingEnd struct {
	Catalog Catalog
}

func (LoadingStart) event()    {}
func (LoadingProgress) event() {}
func (LoadingEnd) event()      {}
