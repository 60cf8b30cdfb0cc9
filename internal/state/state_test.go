package state

import (
	"testing"
	"time"

	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := OpenMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := openTestManager(t)

	if err := m.SaveRefreshToken(session.KindAPI, "api-rt"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveRefreshToken(session.KindStreaming, "stream-rt"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.RefreshToken(session.KindAPI)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "api-rt" {
		t.Errorf("api token = %q, want %q", got, "api-rt")
	}

	got, err = m.RefreshToken(session.KindStreaming)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "stream-rt" {
		t.Errorf("streaming token = %q, want %q", got, "stream-rt")
	}
}

func TestRefreshTokenOverwrite(t *testing.T) {
	m := openTestManager(t)

	if err := m.SaveRefreshToken(session.KindAPI, "old"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveRefreshToken(session.KindAPI, "new"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.RefreshToken(session.KindAPI)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "new" {
		t.Errorf("token = %q, want %q", got, "new")
	}
}

func TestRefreshTokenEmptyDeletes(t *testing.T) {
	m := openTestManager(t)

	if err := m.SaveRefreshToken(session.KindAPI, "rt"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveRefreshToken(session.KindAPI, ""); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := m.RefreshToken(session.KindAPI)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "" {
		t.Errorf("token after delete = %q, want empty", got)
	}
}

func TestRefreshTokenMissing(t *testing.T) {
	m := openTestManager(t)

	got, err := m.RefreshToken(session.KindStreaming)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "" {
		t.Errorf("token = %q, want empty", got)
	}
}

func TestQueueRoundTrip(t *testing.T) {
	m := openTestManager(t)

	saved := QueueState{
		CurrentIndex: 1,
		RepeatMode:   int(playlist.RepeatAll),
		Shuffle:      true,
		Tracks: []QueueTrack{
			{ID: "100", Title: "First", Artist: "Artist A", Album: "Album", Duration: 3 * time.Minute},
			{ID: "200", Title: "Second", Artist: "Artist B", Duration: 4 * time.Minute},
		},
	}
	if err := saveQueue(m.db, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.GetQueue()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CurrentIndex != 1 || got.RepeatMode != int(playlist.RepeatAll) || !got.Shuffle {
		t.Errorf("queue state = %+v", got)
	}
	if len(got.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(got.Tracks))
	}
	if got.Tracks[0].ID != "100" || got.Tracks[0].Duration != 3*time.Minute {
		t.Errorf("first track = %+v", got.Tracks[0])
	}
	if got.Tracks[1].Album != "" {
		t.Errorf("second track album = %q, want empty", got.Tracks[1].Album)
	}
}

func TestQueueEmptyDefaults(t *testing.T) {
	m := openTestManager(t)

	got, err := m.GetQueue()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CurrentIndex != -1 {
		t.Errorf("current index = %d, want -1", got.CurrentIndex)
	}
	if len(got.Tracks) != 0 {
		t.Errorf("tracks = %d, want 0", len(got.Tracks))
	}
}

func TestQueueSaveReplacesTracks(t *testing.T) {
	m := openTestManager(t)

	if err := saveQueue(m.db, QueueState{Tracks: []QueueTrack{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := saveQueue(m.db, QueueState{Tracks: []QueueTrack{{ID: "3", Title: "c"}}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.GetQueue()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].ID != "3" {
		t.Errorf("tracks = %+v, want only id 3", got.Tracks)
	}
}

func TestQueueStateFromQueue(t *testing.T) {
	q := playlist.NewQueue()
	q.Replace(
		playlist.Track{ID: "1", Title: "a", Duration: time.Minute},
		playlist.Track{ID: "2", Title: "b"},
	)
	q.SetRepeatMode(playlist.RepeatOne)
	q.JumpTo(1)

	saved := QueueStateFrom(q)
	if saved.CurrentIndex != 1 || saved.RepeatMode != int(playlist.RepeatOne) {
		t.Errorf("saved state = %+v", saved)
	}
	restored := saved.PlaylistTracks()
	if len(restored) != 2 || restored[0].ID != "1" || restored[0].Duration != time.Minute {
		t.Errorf("restored tracks = %+v", restored)
	}
}

func TestSaveQueueDebounced(t *testing.T) {
	m := openTestManager(t)

	m.SaveQueue(QueueState{Tracks: []QueueTrack{{ID: "1", Title: "a"}}})
	m.SaveQueue(QueueState{Tracks: []QueueTrack{{ID: "2", Title: "b"}}})

	// Before the debounce window nothing is written yet.
	got, err := m.GetQueue()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tracks) != 0 {
		t.Errorf("tracks written before debounce: %+v", got.Tracks)
	}

	time.Sleep(saveDebounce + 200*time.Millisecond)

	got, err = m.GetQueue()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Tracks) != 1 || got.Tracks[0].ID != "2" {
		t.Errorf("tracks after debounce = %+v, want only id 2", got.Tracks)
	}
}

func TestCloseFlushesPendingQueue(t *testing.T) {
	m, err := OpenMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	m.SaveQueue(QueueState{Tracks: []QueueTrack{{ID: "9", Title: "z"}}})
	// Close before the debounce timer fires; the pending save must land.
	db := m.db
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = db
}

func TestPlayerRoundTrip(t *testing.T) {
	m := openTestManager(t)

	got, err := m.GetPlayer()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if got.Volume != 100 || got.Quality != "" {
		t.Errorf("default player state = %+v", got)
	}

	if err := m.SavePlayer(35, "LOSSLESS"); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = m.GetPlayer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Volume != 35 || got.Quality != "LOSSLESS" {
		t.Errorf("player state = %+v", got)
	}
}
