// Package playlist holds the playing queue: an ordered track list with
// shuffle and repeat bookkeeping. It has no I/O and is mutated only by the
// engine loop.
package playlist

import (
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
)

// Track is a queue entry. It is a copy of the catalog metadata, not a
// reference, so queue contents stay valid across catalog cache churn.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Duration time.Duration
}

// FromCatalog converts catalog metadata into a queue entry.
func FromCatalog(t catalog.Track) Track {
	return Track{
		ID:       t.ID,
		Title:    t.Title,
		Artist:   t.Artist,
		Album:    t.Album,
		Duration: t.Duration,
	}
}

// RepeatMode defines what happens at the ends of the queue.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}

// Cycle returns the next repeat mode: Off -> All -> One -> Off.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Direction selects which way Advance moves.
type Direction int

const (
	DirNext Direction = iota
	DirPrevious
)
