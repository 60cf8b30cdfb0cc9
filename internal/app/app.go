// internal/app/app.go
package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/mlenormand/ebb/internal/catalog"
	"github.com/mlenormand/ebb/internal/engine"
	"github.com/mlenormand/ebb/internal/keymap"
	"github.com/mlenormand/ebb/internal/notify"
	"github.com/mlenormand/ebb/internal/playlist"
)

// Model is the root application model. All playback and session state lives
// in the engine; the model holds the latest snapshot plus pure UI state
// (favorites list, cursor, overlays).
type Model struct {
	Engine  *engine.Engine
	Catalog *catalog.Client

	Snap      engine.Snapshot
	Favorites []playlist.Track
	Cursor    int
	Offset    int

	FavoritesLoading bool
	FavoritesErr     string
	favoritesLoaded  bool

	RedirectInput  textinput.Model
	RedirectActive bool

	ErrorMsg   string
	BackendMsg string
	Width      int
	Height     int

	keys     *keymap.Resolver
	sub      *engine.Subscription
	notifier notify.Notifier

	lastNotified string
	notifyID     uint32
}

// New creates the root model.
func New(eng *engine.Engine, cat *catalog.Client) Model {
	input := textinput.New()
	input.Placeholder = "paste the redirect URL here"
	input.CharLimit = 0
	input.Width = 60

	notifier, _ := notify.New()

	return Model{
		Engine:        eng,
		Catalog:       cat,
		Snap:          eng.Snapshot(),
		RedirectInput: input,
		keys:          keymap.NewResolver(keymap.All),
		sub:           eng.Subscribe(),
		notifier:      notifier,
	}
}

// Init starts the engine watch and, when possible, the favorites load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.watchEngine(), watchBackend(), m.maybeLoadFavorites())
}
