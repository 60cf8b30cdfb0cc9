package playlist

import "math/rand/v2"

// Queue is the playing queue with position, shuffle and repeat state.
//
// Invariants: current is valid iff the queue is non-empty; order, when
// present, is a permutation of [0, len) over the same track set.
type Queue struct {
	tracks []Track
	order  []int // shuffle permutation over tracks; nil when shuffle is off
	// current is a position in play order (order when shuffled, tracks
	// otherwise); -1 when nothing is selected.
	current int
	repeat  RepeatMode
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{current: -1}
}

// trackIndex maps a play-order position to an index into tracks.
func (q *Queue) trackIndex(pos int) int {
	if q.order != nil {
		return q.order[pos]
	}
	return pos
}

// Current returns the currently selected track, or nil if none.
func (q *Queue) Current() *Track {
	if q.current < 0 || q.current >= len(q.tracks) {
		return nil
	}
	return &q.tracks[q.trackIndex(q.current)]
}

// CurrentIndex returns the play-order position of the current track
// (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.current
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Tracks returns a copy of the queue in play order.
func (q *Queue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	for pos := range q.tracks {
		result[pos] = q.tracks[q.trackIndex(pos)]
	}
	return result
}

// Replace clears the queue, installs tracks and selects position 0.
// Shuffle state is dropped; repeat mode is kept. Returns the first track.
func (q *Queue) Replace(tracks ...Track) *Track {
	q.tracks = append([]Track(nil), tracks...)
	q.order = nil
	q.current = -1
	if len(q.tracks) > 0 {
		q.current = 0
	}
	return q.Current()
}

// Add appends tracks without changing the current selection. When shuffle is
// active the new tracks are appended to the end of the play order.
func (q *Queue) Add(tracks ...Track) {
	start := len(q.tracks)
	q.tracks = append(q.tracks, tracks...)
	if q.order != nil {
		for i := start; i < len(q.tracks); i++ {
			q.order = append(q.order, i)
		}
	}
	if q.current < 0 && len(q.tracks) > 0 {
		q.current = 0
	}
}

// Clear removes all tracks and resets position and shuffle.
func (q *Queue) Clear() {
	q.tracks = nil
	q.order = nil
	q.current = -1
}

// JumpTo selects the given play-order position.
// Returns the track there, or nil if out of bounds.
func (q *Queue) JumpTo(pos int) *Track {
	if pos < 0 || pos >= len(q.tracks) {
		return nil
	}
	q.current = pos
	return q.Current()
}

// Advance moves the selection one step in the given direction, honoring the
// repeat mode. On an empty queue, or at the ends with repeat off, it returns
// nil and leaves the queue untouched.
func (q *Queue) Advance(dir Direction) *Track {
	if len(q.tracks) == 0 || q.current < 0 {
		return nil
	}
	if q.repeat == RepeatOne {
		return q.Current()
	}

	next := q.current
	if dir == DirNext {
		next++
	} else {
		next--
	}

	switch {
	case next >= len(q.tracks):
		if q.repeat != RepeatAll {
			return nil
		}
		next = 0
	case next < 0:
		if q.repeat != RepeatAll {
			return nil
		}
		next = len(q.tracks) - 1
	}

	q.current = next
	return q.Current()
}

// HasNext reports whether Advance(DirNext) would return a track.
func (q *Queue) HasNext() bool {
	if len(q.tracks) == 0 || q.current < 0 {
		return false
	}
	return q.repeat != RepeatOff || q.current < len(q.tracks)-1
}

// RepeatMode returns the current repeat mode.
func (q *Queue) RepeatMode() RepeatMode {
	return q.repeat
}

// SetRepeatMode sets the repeat mode.
func (q *Queue) SetRepeatMode(mode RepeatMode) {
	q.repeat = mode
}

// CycleRepeatMode advances Off -> All -> One -> Off and returns the new mode.
func (q *Queue) CycleRepeatMode() RepeatMode {
	q.repeat = q.repeat.Cycle()
	return q.repeat
}

// Shuffle reports whether a shuffle permutation is active.
func (q *Queue) Shuffle() bool {
	return q.order != nil
}

// SetShuffle enables or disables shuffle.
//
// Enabling generates a uniform permutation (Fisher-Yates) with the current
// track moved to the front of the play order. Disabling restores original
// order with the selection following the current track, so toggling twice
// preserves both ordering and the playing track's identity.
func (q *Queue) SetShuffle(enabled bool) {
	if enabled == q.Shuffle() {
		return
	}
	if !enabled {
		if q.current >= 0 {
			q.current = q.order[q.current]
		}
		q.order = nil
		return
	}

	q.order = rand.Perm(len(q.tracks))
	if q.current < 0 {
		return
	}
	for pos, idx := range q.order {
		if idx == q.current {
			q.order[0], q.order[pos] = q.order[pos], q.order[0]
			break
		}
	}
	q.current = 0
}

// ToggleShuffle flips shuffle and returns the new state.
func (q *Queue) ToggleShuffle() bool {
	q.SetShuffle(!q.Shuffle())
	return q.Shuffle()
}
