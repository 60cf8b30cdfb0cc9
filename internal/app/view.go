// internal/app/view.go
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mlenormand/ebb/internal/engine"
	"github.com/mlenormand/ebb/internal/keymap"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	overlayStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)
)

// chrome rows outside the favorites list: header, status, player bar, help.
const chromeHeight = 6

// helpBindings is the subset of the keymap shown in the help line.
var helpBindings = func() []keymap.Binding {
	wanted := []keymap.Action{
		keymap.ActionSelect,
		keymap.ActionPlayPause,
		keymap.ActionNextTrack,
		keymap.ActionToggleShuffle,
		keymap.ActionCycleRepeat,
		keymap.ActionCycleQuality,
		keymap.ActionQuit,
	}
	var out []keymap.Binding
	for _, action := range wanted {
		for _, b := range keymap.All {
			if b.Action == action {
				out = append(out, b)
				break
			}
		}
	}
	return out
}()

func (m Model) listHeight() int {
	h := m.Height - chromeHeight
	if h < 0 {
		return 0
	}
	return h
}

// View renders the full screen.
func (m Model) View() string {
	if m.Width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewFavorites())
	b.WriteString(m.viewStatusLine())
	b.WriteString("\n")
	b.WriteString(m.viewPlayerBar())
	b.WriteString("\n")
	b.WriteString(m.viewHelp())

	if m.Snap.Login != nil || m.RedirectActive {
		return m.overlay(b.String())
	}
	return b.String()
}

func (m Model) viewHeader() string {
	left := titleStyle.Render("ebb")
	right := fmt.Sprintf("%s  %s",
		m.sessionLabel("api", m.Snap.SessionFor(session.KindAPI)),
		m.sessionLabel("stream", m.Snap.SessionFor(session.KindStreaming)))
	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) sessionLabel(name string, info engine.SessionInfo) string {
	switch info.Status {
	case session.StatusActive:
		label := name
		if !info.ExpiresAt.IsZero() {
			label += " (expires " + humanize.Time(info.ExpiresAt) + ")"
		}
		return activeStyle.Render("● " + label)
	case session.StatusPending:
		return pendingStyle.Render("◌ " + name)
	case session.StatusExpired:
		return inactiveStyle.Render("○ " + name + " (expired)")
	default:
		return inactiveStyle.Render("○ " + name)
	}
}

func (m Model) viewFavorites() string {
	height := m.listHeight()
	if height == 0 {
		return ""
	}

	var b strings.Builder
	switch {
	case m.FavoritesLoading:
		b.WriteString(dimStyle.Render("loading favorites..."))
		b.WriteString("\n")
	case m.FavoritesErr != "":
		b.WriteString(errorStyle.Render(m.FavoritesErr))
		b.WriteString("\n")
	case !m.apiSessionActive():
		b.WriteString(dimStyle.Render("press 1 to log in to the api, 2 to link a streaming device"))
		b.WriteString("\n")
	case len(m.Favorites) == 0:
		b.WriteString(dimStyle.Render("no favorite tracks"))
		b.WriteString("\n")
	default:
		end := m.Offset + height
		if end > len(m.Favorites) {
			end = len(m.Favorites)
		}
		for i := m.Offset; i < end; i++ {
			b.WriteString(m.renderTrackLine(i))
			b.WriteString("\n")
		}
	}

	rendered := strings.Count(b.String(), "\n")
	for ; rendered < height; rendered++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTrackLine(i int) string {
	t := m.Favorites[i]
	marker := "  "
	if m.Snap.Track != nil && m.Snap.Track.ID == t.ID {
		marker = "♪ "
	}
	line := fmt.Sprintf("%s%s — %s", marker, t.Title, t.Artist)
	line = truncate(line, m.Width-10)
	line += "  " + dimStyle.Render(formatDuration(t.Duration))
	if i == m.Cursor {
		return selectedStyle.Render(truncate(fmt.Sprintf("%s%s — %s", marker, t.Title, t.Artist), m.Width))
	}
	return line
}

func (m Model) viewStatusLine() string {
	if m.ErrorMsg != "" {
		return errorStyle.Render(truncate(m.ErrorMsg, m.Width))
	}
	if m.BackendMsg != "" {
		return dimStyle.Render(truncate(m.BackendMsg, m.Width))
	}
	return headerStyle.Render(fmt.Sprintf("%d favorites", len(m.Favorites)))
}

func (m Model) viewPlayerBar() string {
	snap := m.Snap

	var left string
	switch {
	case snap.Track != nil:
		left = fmt.Sprintf("%s %s — %s  %s / %s",
			statusIcon(snap.Status),
			snap.Track.Title,
			snap.Track.Artist,
			formatDuration(snap.Position),
			formatDuration(snap.Duration))
	default:
		left = statusIcon(snap.Status) + " " + dimStyle.Render("nothing playing")
	}

	right := fmt.Sprintf("vol %d%%  %s  %s%s",
		snap.Volume,
		snap.Quality,
		repeatLabel(snap.Repeat),
		shuffleLabel(snap.Shuffle))
	if snap.QueueLen > 0 {
		right = fmt.Sprintf("%d/%d  %s", snap.QueueIndex+1, snap.QueueLen, right)
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = truncate(left, m.Width-lipgloss.Width(right)-1)
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) viewHelp() string {
	var parts []string
	for _, b := range helpBindings {
		key := b.Keys[0]
		if key == " " {
			key = "space"
		}
		parts = append(parts, key+" "+strings.ToLower(b.Description))
	}
	return dimStyle.Render(truncate(strings.Join(parts, "  "), m.Width))
}

func (m Model) overlay(background string) string {
	var content string
	switch {
	case m.RedirectActive:
		content = titleStyle.Render("finish login") + "\n\n" +
			m.RedirectInput.View() + "\n\n" +
			dimStyle.Render("enter to submit, esc to cancel")
	case m.Snap.Login != nil && m.Snap.Login.UserCode != "":
		login := m.Snap.Login
		content = titleStyle.Render("link this device") + "\n\n" +
			"visit " + login.AuthURL + "\n" +
			"and enter code " + activeStyle.Render(login.UserCode) + "\n\n" +
			dimStyle.Render("code expires "+humanize.Time(login.ExpiresAt)) + "\n" +
			dimStyle.Render("esc to cancel")
	case m.Snap.Login != nil:
		content = titleStyle.Render("log in") + "\n\n" +
			"open this url in your browser:\n" +
			truncate(m.Snap.Login.AuthURL, m.Width-8) + "\n\n" +
			dimStyle.Render("then press o and paste the redirect url") + "\n" +
			dimStyle.Render("esc to cancel")
	default:
		return background
	}

	box := overlayStyle.Render(content)
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
}

func statusIcon(s engine.Status) string {
	switch s {
	case engine.StatusPlaying:
		return "▶"
	case engine.StatusPaused:
		return "⏸"
	case engine.StatusLoading:
		return "…"
	case engine.StatusError:
		return "✗"
	default:
		return "■"
	}
}

func repeatLabel(mode playlist.RepeatMode) string {
	switch mode {
	case playlist.RepeatAll:
		return "repeat:all"
	case playlist.RepeatOne:
		return "repeat:one"
	default:
		return "repeat:off"
	}
}

func shuffleLabel(on bool) string {
	if on {
		return "  shuffle"
	}
	return ""
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
