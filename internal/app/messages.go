package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlenormand/ebb/internal/engine"
	"github.com/mlenormand/ebb/internal/notify"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/stderr"
)

// SnapshotMsg carries a fresh engine snapshot.
type SnapshotMsg struct {
	Snap engine.Snapshot
}

// EngineClosedMsg signals that the engine shut down.
type EngineClosedMsg struct{}

// FavoritesMsg carries the result of a favorites fetch.
type FavoritesMsg struct {
	Tracks []playlist.Track
	Err    error
}

// NotifiedMsg carries the ID of a sent desktop notification so the next one
// can replace it instead of stacking.
type NotifiedMsg struct {
	ID uint32
}

// BackendMsg carries a captured stderr line from the audio backend.
type BackendMsg struct {
	Line string
}

const favoritesTimeout = 30 * time.Second

// watchEngine waits for the next snapshot. Re-armed after every message so
// the subscription is always being drained.
func (m Model) watchEngine() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case snap := <-sub.Snapshots:
			return SnapshotMsg{Snap: snap}
		case <-sub.Done:
			return EngineClosedMsg{}
		}
	}
}

// loadFavorites fetches the user's favorite tracks from the catalog.
func (m Model) loadFavorites() tea.Cmd {
	cat := m.Catalog
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), favoritesTimeout)
		defer cancel()

		user, err := cat.CurrentUser(ctx)
		if err != nil {
			return FavoritesMsg{Err: err}
		}
		if user.Country != "" {
			cat.SetCountryCode(user.Country)
		}
		tracks, err := cat.FavoriteTracks(ctx, user.ID)
		if err != nil {
			return FavoritesMsg{Err: err}
		}

		result := make([]playlist.Track, len(tracks))
		for i, t := range tracks {
			result[i] = playlist.FromCatalog(t)
		}
		return FavoritesMsg{Tracks: result}
	}
}

// watchBackend waits for the next captured stderr line.
func watchBackend() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-stderr.Messages
		if !ok {
			return nil
		}
		return BackendMsg{Line: line}
	}
}

// maybeNotify sends a desktop notification when a new track starts playing.
func (m *Model) maybeNotify() tea.Cmd {
	if m.notifier == nil || m.Snap.Track == nil {
		return nil
	}
	if m.Snap.Status != engine.StatusPlaying || m.Snap.Track.ID == m.lastNotified {
		return nil
	}
	m.lastNotified = m.Snap.Track.ID

	notifier := m.notifier
	replaces := m.notifyID
	track := *m.Snap.Track
	return func() tea.Msg {
		id, err := notifier.Notify(notify.Notification{
			Title:      track.Title,
			Body:       track.Artist,
			Timeout:    5000,
			ReplacesID: replaces,
			Urgency:    notify.UrgencyLow,
		})
		if err != nil {
			return nil
		}
		return NotifiedMsg{ID: id}
	}
}

// maybeLoadFavorites starts a favorites load once the API session is active.
func (m *Model) maybeLoadFavorites() tea.Cmd {
	if m.favoritesLoaded || m.FavoritesLoading || !m.apiSessionActive() {
		return nil
	}
	m.FavoritesLoading = true
	return m.loadFavorites()
}
