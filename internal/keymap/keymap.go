package keymap

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "list", "session"
}

// All contains all key bindings for resolution and help generation.
var All = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit application", "global"},

	// Playback
	{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
	{ActionStop, []string{"s"}, "Stop", "playback"},
	{ActionNextTrack, []string{"n"}, "Next track", "playback"},
	{ActionPrevTrack, []string{"p"}, "Previous track", "playback"},
	{ActionSeekBack, []string{"left"}, "Seek -5s", "playback"},
	{ActionSeekForward, []string{"right"}, "Seek +5s", "playback"},
	{ActionVolumeUp, []string{"+", "="}, "Volume up", "playback"},
	{ActionVolumeDown, []string{"-"}, "Volume down", "playback"},
	{ActionCycleRepeat, []string{"R"}, "Cycle repeat mode", "playback"},
	{ActionToggleShuffle, []string{"S"}, "Toggle shuffle", "playback"},
	{ActionCycleQuality, []string{"Q"}, "Cycle stream quality", "playback"},

	// Favorites list
	{ActionMoveDown, []string{"j", "down"}, "Move down", "list"},
	{ActionMoveUp, []string{"k", "up"}, "Move up", "list"},
	{ActionJumpStart, []string{"g", "home"}, "First item", "list"},
	{ActionJumpEnd, []string{"G", "end"}, "Last item", "list"},
	{ActionSelect, []string{"enter"}, "Play from here", "list"},
	{ActionAdd, []string{"a"}, "Add to queue", "list"},
	{ActionClearQueue, []string{"c"}, "Clear queue", "list"},
	{ActionReloadFavorites, []string{"r"}, "Reload favorites", "list"},

	// Sessions
	{ActionLoginAPI, []string{"1"}, "Log in to the catalog", "session"},
	{ActionLoginStreaming, []string{"2"}, "Link streaming device", "session"},
	{ActionPasteRedirect, []string{"o"}, "Paste login redirect", "session"},
	{ActionCancelLogin, []string{"esc"}, "Cancel pending login", "session"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
