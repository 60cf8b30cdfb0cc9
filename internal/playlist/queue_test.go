package playlist

import "testing"

func threeTracks() []Track {
	return []Track{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Title: "C"},
	}
}

func TestNewQueue(t *testing.T) {
	q := NewQueue()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
}

func TestQueue_Replace(t *testing.T) {
	q := NewQueue()

	track := q.Replace(threeTracks()...)

	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
	if track == nil || track.ID != "a" {
		t.Errorf("returned track = %v, want a", track)
	}
}

func TestQueue_Replace_Empty(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)

	track := q.Replace()

	if track != nil {
		t.Error("Replace with no tracks should return nil")
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
}

func TestQueue_Advance_RepeatOff(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)

	// Next from A produces B, then C, then nil (queue untouched).
	if tr := q.Advance(DirNext); tr == nil || tr.ID != "b" {
		t.Fatalf("first Next = %v, want b", tr)
	}
	if tr := q.Advance(DirNext); tr == nil || tr.ID != "c" {
		t.Fatalf("second Next = %v, want c", tr)
	}
	if tr := q.Advance(DirNext); tr != nil {
		t.Fatalf("third Next = %v, want nil at end with repeat off", tr)
	}
	if q.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2 (unchanged)", q.CurrentIndex())
	}
}

func TestQueue_Advance_RepeatAll_CyclesWithinBounds(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)
	q.SetRepeatMode(RepeatAll)

	// Any number of advances keeps the index in bounds and cycles after N.
	for i := 1; i <= 9; i++ {
		tr := q.Advance(DirNext)
		if tr == nil {
			t.Fatalf("advance %d returned nil with repeat all", i)
		}
		if q.CurrentIndex() < 0 || q.CurrentIndex() >= q.Len() {
			t.Fatalf("advance %d left index %d out of bounds", i, q.CurrentIndex())
		}
	}
	if q.Current().ID != "a" {
		t.Errorf("after 9 advances over 3 tracks, current = %s, want a", q.Current().ID)
	}

	if tr := q.Advance(DirPrevious); tr == nil || tr.ID != "c" {
		t.Errorf("Previous from a = %v, want c (wraps)", tr)
	}
}

func TestQueue_Advance_RepeatOne(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)
	q.SetRepeatMode(RepeatOne)
	q.JumpTo(1)

	for range 3 {
		if tr := q.Advance(DirNext); tr == nil || tr.ID != "b" {
			t.Fatalf("Next with repeat one = %v, want b", tr)
		}
	}
}

func TestQueue_Advance_Empty(t *testing.T) {
	q := NewQueue()

	if tr := q.Advance(DirNext); tr != nil {
		t.Errorf("Advance on empty queue = %v, want nil", tr)
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1 (unaffected)", q.CurrentIndex())
	}
}

func TestQueue_ShuffleRoundTripRestoresOrder(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)
	q.JumpTo(1) // playing B

	q.SetShuffle(true)

	if !q.Shuffle() {
		t.Fatal("shuffle should be on")
	}
	if q.Current().ID != "b" {
		t.Errorf("current after shuffle on = %s, want b (identity preserved)", q.Current().ID)
	}

	q.SetShuffle(false)

	if q.Shuffle() {
		t.Fatal("shuffle should be off")
	}
	if q.Current().ID != "b" {
		t.Errorf("current after shuffle off = %s, want b", q.Current().ID)
	}
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want original position 1", q.CurrentIndex())
	}
	tracks := q.Tracks()
	for i, want := range []string{"a", "b", "c"} {
		if tracks[i].ID != want {
			t.Errorf("tracks[%d] = %s, want %s (original order restored)", i, tracks[i].ID, want)
		}
	}
}

func TestQueue_Shuffle_IsPermutation(t *testing.T) {
	q := NewQueue()
	tracks := make([]Track, 20)
	for i := range tracks {
		tracks[i] = Track{ID: string(rune('a' + i))}
	}
	q.Replace(tracks...)
	q.SetShuffle(true)

	seen := map[string]int{}
	for _, tr := range q.Tracks() {
		seen[tr.ID]++
	}
	if len(seen) != 20 {
		t.Fatalf("shuffled order covers %d distinct tracks, want 20", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("track %s appears %d times, want 1", id, n)
		}
	}
}

func TestQueue_Shuffle_CurrentMovesToFront(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)
	q.JumpTo(2) // playing C

	q.SetShuffle(true)

	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
	if q.Current().ID != "c" {
		t.Errorf("current = %s, want c", q.Current().ID)
	}
}

func TestQueue_Add_WhileShuffled(t *testing.T) {
	q := NewQueue()
	q.Replace(threeTracks()...)
	q.SetShuffle(true)

	q.Add(Track{ID: "d"})

	if q.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", q.Len())
	}
	tracks := q.Tracks()
	if tracks[3].ID != "d" {
		t.Errorf("new track plays at position %v, want end of play order", tracks)
	}
}

func TestQueue_CycleRepeatMode(t *testing.T) {
	q := NewQueue()

	modes := []RepeatMode{RepeatAll, RepeatOne, RepeatOff}
	for _, want := range modes {
		if got := q.CycleRepeatMode(); got != want {
			t.Errorf("CycleRepeatMode() = %v, want %v", got, want)
		}
	}
}

func TestQueue_HasNext(t *testing.T) {
	q := NewQueue()
	if q.HasNext() {
		t.Error("empty queue has no next")
	}

	q.Replace(threeTracks()...)
	q.JumpTo(2)
	if q.HasNext() {
		t.Error("tail with repeat off has no next")
	}

	q.SetRepeatMode(RepeatAll)
	if !q.HasNext() {
		t.Error("tail with repeat all has a next")
	}
}
