package engine

import (
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
)

// SessionInfo is the published view of one auth session.
type SessionInfo struct {
	Kind      session.Kind
	Status    session.Status
	ExpiresAt time.Time
}

// LoginPrompt is the published view of a pending login, rendered by the UI
// as the instruction to complete it.
type LoginPrompt struct {
	Kind      session.Kind
	AuthURL   string
	UserCode  string
	ExpiresAt time.Time
}

// Snapshot is an immutable copy of the engine state, published once per
// applied command. Consumers never see intermediate state.
type Snapshot struct {
	Status Status
	Err    string

	Track    *playlist.Track
	Position time.Duration
	Duration time.Duration

	Volume  int
	Quality catalog.Quality

	QueueLen   int
	QueueIndex int
	HasNext    bool
	Shuffle    bool
	Repeat     playlist.RepeatMode

	Sessions [2]SessionInfo
	Login    *LoginPrompt
}

// SessionFor returns the info for a session kind.
func (s Snapshot) SessionFor(kind session.Kind) SessionInfo {
	return s.Sessions[kind]
}

// Playable reports whether the streaming session allows starting playback.
func (s Snapshot) Playable() bool {
	return s.Sessions[session.KindStreaming].Status == session.StatusActive
}
