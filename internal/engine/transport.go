package engine

// Status is the transport status. Exactly one status holds at a time; only
// the engine loop changes it.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// active reports whether a track is currently the playback target.
func (s Status) active() bool {
	return s == StatusLoading || s == StatusPlaying || s == StatusPaused
}
