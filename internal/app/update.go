// internal/app/update.go
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlenormand/ebb/internal/engine"
	"github.com/mlenormand/ebb/internal/errmsg"
	"github.com/mlenormand/ebb/internal/keymap"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 5
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case SnapshotMsg:
		return m.handleSnapshot(msg)

	case EngineClosedMsg:
		return m, tea.Quit

	case FavoritesMsg:
		return m.handleFavorites(msg)

	case NotifiedMsg:
		m.notifyID = msg.ID
		return m, nil

	case BackendMsg:
		m.BackendMsg = msg.Line
		return m, watchBackend()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleSnapshot(msg SnapshotMsg) (tea.Model, tea.Cmd) {
	m.Snap = msg.Snap
	m.ErrorMsg = msg.Snap.Err
	m.clampCursor()

	// Session may have just become active.
	cmds := []tea.Cmd{m.watchEngine()}
	if cmd := m.maybeLoadFavorites(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := m.maybeNotify(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleFavorites(msg FavoritesMsg) (tea.Model, tea.Cmd) {
	m.FavoritesLoading = false
	if msg.Err != nil {
		m.FavoritesErr = errmsg.Format(errmsg.OpFavoritesLoad, msg.Err)
		return m, nil
	}
	m.favoritesLoaded = true
	m.FavoritesErr = ""
	m.Favorites = msg.Tracks
	m.clampCursor()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.RedirectActive {
		return m.handleRedirectKey(msg)
	}

	switch m.keys.Resolve(msg.String()) {
	case keymap.ActionQuit:
		return m, tea.Quit

	case keymap.ActionMoveDown:
		m.moveCursor(1)
		return m, nil

	case keymap.ActionMoveUp:
		m.moveCursor(-1)
		return m, nil

	case keymap.ActionJumpStart:
		m.Cursor = 0
		m.Offset = 0
		return m, nil

	case keymap.ActionJumpEnd:
		m.Cursor = len(m.Favorites) - 1
		m.clampCursor()
		return m, nil

	case keymap.ActionSelect:
		if len(m.Favorites) == 0 {
			return m, nil
		}
		m.Engine.Dispatch(engine.SetTracks{Tracks: m.Favorites, Start: m.Cursor})
		return m, nil

	case keymap.ActionAdd:
		if len(m.Favorites) == 0 {
			return m, nil
		}
		m.Engine.Dispatch(engine.AddTracks{Tracks: []playlist.Track{m.Favorites[m.Cursor]}})
		return m, nil

	case keymap.ActionPlayPause:
		m.Engine.Dispatch(engine.TogglePlayPause{})
		return m, nil

	case keymap.ActionNextTrack:
		m.Engine.Dispatch(engine.Next{})
		return m, nil

	case keymap.ActionPrevTrack:
		m.Engine.Dispatch(engine.Previous{})
		return m, nil

	case keymap.ActionStop:
		m.Engine.Dispatch(engine.Stop{})
		return m, nil

	case keymap.ActionClearQueue:
		m.Engine.Dispatch(engine.ClearQueue{})
		return m, nil

	case keymap.ActionSeekBack:
		m.Engine.Dispatch(engine.SeekBy{Delta: -seekStep})
		return m, nil

	case keymap.ActionSeekForward:
		m.Engine.Dispatch(engine.SeekBy{Delta: seekStep})
		return m, nil

	case keymap.ActionVolumeUp:
		m.Engine.Dispatch(engine.AdjustVolume{Delta: volumeStep})
		return m, nil

	case keymap.ActionVolumeDown:
		m.Engine.Dispatch(engine.AdjustVolume{Delta: -volumeStep})
		return m, nil

	case keymap.ActionToggleShuffle:
		m.Engine.Dispatch(engine.ToggleShuffle{})
		return m, nil

	case keymap.ActionCycleRepeat:
		m.Engine.Dispatch(engine.CycleRepeat{})
		return m, nil

	case keymap.ActionCycleQuality:
		m.Engine.Dispatch(engine.CycleQuality{})
		return m, nil

	case keymap.ActionLoginAPI:
		m.Engine.Dispatch(engine.LoginStart{Kind: session.KindAPI})
		return m, nil

	case keymap.ActionLoginStreaming:
		m.Engine.Dispatch(engine.LoginStart{Kind: session.KindStreaming})
		return m, nil

	case keymap.ActionPasteRedirect:
		if m.apiLoginPending() {
			m.RedirectActive = true
			m.RedirectInput.SetValue("")
			return m, m.RedirectInput.Focus()
		}
		return m, nil

	case keymap.ActionReloadFavorites:
		m.favoritesLoaded = false
		m.FavoritesErr = ""
		if cmd := m.maybeLoadFavorites(); cmd != nil {
			return m, cmd
		}
		return m, nil

	case keymap.ActionCancelLogin:
		if m.Snap.Login != nil {
			m.Engine.Dispatch(engine.LoginCancel{Kind: m.Snap.Login.Kind})
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleRedirectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.RedirectActive = false
		m.RedirectInput.Blur()
		return m, nil

	case "enter":
		raw := m.RedirectInput.Value()
		m.RedirectActive = false
		m.RedirectInput.Blur()
		if raw != "" {
			m.Engine.Dispatch(engine.LoginRedirect{RawURL: raw})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.RedirectInput, cmd = m.RedirectInput.Update(msg)
	return m, cmd
}

func (m Model) apiLoginPending() bool {
	return m.Snap.Login != nil && m.Snap.Login.Kind == session.KindAPI
}

func (m Model) apiSessionActive() bool {
	return m.Snap.SessionFor(session.KindAPI).Status == session.StatusActive
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Favorites) {
		m.Cursor = len(m.Favorites) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	visible := m.listHeight()
	if visible <= 0 {
		return
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+visible {
		m.Offset = m.Cursor - visible + 1
	}
}
