// Package keymap defines key bindings and action dispatch for the application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"

	// Playback actions
	ActionPlayPause     Action = "play_pause"
	ActionStop          Action = "stop"
	ActionNextTrack     Action = "next_track"
	ActionPrevTrack     Action = "prev_track"
	ActionSeekForward   Action = "seek_forward"
	ActionSeekBack      Action = "seek_back"
	ActionVolumeUp      Action = "volume_up"
	ActionVolumeDown    Action = "volume_down"
	ActionCycleRepeat   Action = "cycle_repeat"
	ActionToggleShuffle Action = "toggle_shuffle"
	ActionCycleQuality  Action = "cycle_quality"

	// Navigation actions
	ActionMoveUp    Action = "move_up"
	ActionMoveDown  Action = "move_down"
	ActionJumpStart Action = "jump_start"
	ActionJumpEnd   Action = "jump_end"

	// Selection/queue actions
	ActionSelect     Action = "select" // enter - play from here
	ActionAdd        Action = "add"    // a - append to queue
	ActionClearQueue Action = "clear_queue"

	// Session actions
	ActionLoginAPI        Action = "login_api"
	ActionLoginStreaming  Action = "login_streaming"
	ActionPasteRedirect   Action = "paste_redirect"
	ActionCancelLogin     Action = "cancel_login"
	ActionReloadFavorites Action = "reload_favorites"
)
