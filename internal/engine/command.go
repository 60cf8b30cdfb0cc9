package engine

import (
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
)

// Command is an intent applied by the engine loop. User-facing commands are
// exported; task completions are internal and only ever posted by the
// supervisor.
type Command interface {
	isCommand()
}

// Play starts the current queue track, or resumes when paused.
type Play struct{}

// Pause pauses playback.
type Pause struct{}

// TogglePlayPause toggles between playing and paused.
type TogglePlayPause struct{}

// Stop stops playback and returns the transport to idle.
type Stop struct{}

// Next advances to the next queue track.
type Next struct{}

// Previous moves to the previous queue track.
type Previous struct{}

// JumpTo starts playback at a queue position.
type JumpTo struct {
	Index int
}

// Seek moves playback to an absolute position.
type Seek struct {
	To time.Duration
}

// SeekBy moves playback by a relative amount.
type SeekBy struct {
	Delta time.Duration
}

// SetVolume sets the volume on a 0-100 scale; out-of-range values are
// clamped.
type SetVolume struct {
	Level int
}

// AdjustVolume changes the volume by a relative amount, clamped to 0-100.
type AdjustVolume struct {
	Delta int
}

// ToggleShuffle toggles queue shuffle.
type ToggleShuffle struct{}

// SetShuffle sets queue shuffle explicitly.
type SetShuffle struct {
	Enabled bool
}

// CycleRepeat cycles the repeat mode off -> all -> one.
type CycleRepeat struct{}

// SetRepeat sets the repeat mode explicitly.
type SetRepeat struct {
	Mode playlist.RepeatMode
}

// SetQuality changes the streaming quality. While a track is active the
// current track is re-resolved at the new tier.
type SetQuality struct {
	Quality catalog.Quality
}

// CycleQuality steps to the next quality tier.
type CycleQuality struct{}

// SetTracks replaces the queue and starts playback at Start.
type SetTracks struct {
	Tracks []playlist.Track
	Start  int
}

// AddTracks appends tracks to the queue.
type AddTracks struct {
	Tracks []playlist.Track
}

// ClearQueue empties the queue and stops playback.
type ClearQueue struct{}

// RestoreQueue installs a previously saved queue without starting playback.
type RestoreQueue struct {
	Tracks  []playlist.Track
	Index   int
	Repeat  playlist.RepeatMode
	Shuffle bool
}

// LoginStart begins the login flow for a session kind: the authorization
// redirect flow for the API session, the device link flow for the streaming
// session.
type LoginStart struct {
	Kind session.Kind
}

// LoginRedirect delivers the pasted redirect URL completing an API login.
type LoginRedirect struct {
	RawURL string
}

// LoginCancel abandons a pending login.
type LoginCancel struct {
	Kind session.Kind
}

// Logout discards a session and its persisted refresh token.
type Logout struct {
	Kind session.Kind
}

// Restore resumes a session from a persisted refresh token.
type Restore struct {
	Kind         session.Kind
	RefreshToken string
}

// MediaKeyAction identifies an OS media key.
type MediaKeyAction int

const (
	MediaKeyPlayPause MediaKeyAction = iota
	MediaKeyPlay
	MediaKeyPause
	MediaKeyNext
	MediaKeyPrevious
	MediaKeyStop
)

// MediaKey is a media key press forwarded by the OS bridge.
type MediaKey struct {
	Action MediaKeyAction
}

func (Play) isCommand()            {}
func (Pause) isCommand()           {}
func (TogglePlayPause) isCommand() {}
func (Stop) isCommand()            {}
func (Next) isCommand()            {}
func (Previous) isCommand()        {}
func (JumpTo) isCommand()          {}
func (Seek) isCommand()            {}
func (SeekBy) isCommand()          {}
func (SetVolume) isCommand()       {}
func (AdjustVolume) isCommand()    {}
func (ToggleShuffle) isCommand()   {}
func (SetShuffle) isCommand()      {}
func (CycleRepeat) isCommand()     {}
func (SetRepeat) isCommand()       {}
func (SetQuality) isCommand()      {}
func (CycleQuality) isCommand()    {}
func (SetTracks) isCommand()       {}
func (AddTracks) isCommand()       {}
func (ClearQueue) isCommand()      {}
func (RestoreQueue) isCommand()    {}
func (LoginStart) isCommand()      {}
func (LoginRedirect) isCommand()   {}
func (LoginCancel) isCommand()     {}
func (Logout) isCommand()          {}
func (Restore) isCommand()         {}
func (MediaKey) isCommand()        {}

// Task completions. Each carries enough context for the loop to decide
// whether it is still current; stale completions are dropped.

type streamResolved struct {
	gen     uint64
	trackID string
	locator *catalog.StreamLocator
	err     error
}

type playbackStarted struct {
	gen uint64
	err error
}

type deviceLinkStarted struct {
	link session.DeviceLink
	err  error
}

type loginPolled struct {
	tokens session.Tokens
	err    error
}

type codeExchanged struct {
	tokens session.Tokens
	err    error
}

type tokenRefreshed struct {
	kind   session.Kind
	tokens session.Tokens
	err    error
}

type refreshDue struct{}

type clearError struct {
	seq uint64
}

type trackFinished struct{}

type tick struct{}

func (streamResolved) isCommand()    {}
func (playbackStarted) isCommand()   {}
func (deviceLinkStarted) isCommand() {}
func (loginPolled) isCommand()       {}
func (codeExchanged) isCommand()     {}
func (tokenRefreshed) isCommand()    {}
func (refreshDue) isCommand()        {}
func (clearError) isCommand()        {}
func (trackFinished) isCommand()     {}
func (tick) isCommand()              {}
