// Package player renders resolved audio streams through the speaker.
package player

import (
	"context"
	"errors"
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
)

// State represents the output backend's state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Playback failure classes, matched with errors.Is.
var (
	ErrDecode = errors.New("decode error")
	ErrDevice = errors.New("audio device error")
)

// Interface defines the audio output contract.
//
// Load is slow (network fetch + decoder setup) and must be called from a
// background task, never from the state-owning goroutine. Everything else
// is cheap and called from the engine loop.
type Interface interface {
	Load(ctx context.Context, loc *catalog.StreamLocator) error
	Play()
	Pause()
	Stop()
	SeekTo(pos time.Duration)
	SetVolume(level float64) // 0.0 to 1.0
	Volume() float64
	State() State
	Position() time.Duration
	Duration() time.Duration
	// FinishedChan signals natural end of a track, never manual stops.
	FinishedChan() <-chan struct{}
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
