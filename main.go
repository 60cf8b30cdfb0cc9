package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlenormand/ebb/internal/app"
	"github.com/mlenormand/ebb/internal/catalog"
	"github.com/mlenormand/ebb/internal/config"
	"github.com/mlenormand/ebb/internal/engine"
	"github.com/mlenormand/ebb/internal/mpris"
	"github.com/mlenormand/ebb/internal/player"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
	"github.com/mlenormand/ebb/internal/state"
	"github.com/mlenormand/ebb/internal/stderr"
)

func run() error {
	// Capture ALSA noise before the audio backend starts.
	if err := stderr.Start(); err == nil {
		defer stderr.Stop()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.HasAuthConfig() {
		return fmt.Errorf("missing auth config: set auth.client_id in config.toml")
	}

	stateMgr, err := state.Open()
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer stateMgr.Close()

	store := session.NewStore(cfg.RefreshMargin())
	auth := session.NewClient(cfg.Auth.ClientID, cfg.Auth.ClientSecret)

	cat := catalog.NewClient(cfg.CountryCode(),
		func() string { return store.AccessToken(session.KindAPI) },
		func() string { return store.AccessToken(session.KindStreaming) })

	saved, err := stateMgr.GetPlayer()
	if err != nil {
		return fmt.Errorf("load player state: %w", err)
	}
	quality, ok := catalog.ParseQuality(saved.Quality)
	if !ok {
		quality, ok = catalog.ParseQuality(cfg.Playback.Quality)
		if !ok {
			quality = catalog.QualityLossless
		}
	}
	eng := engine.New(engine.Config{
		Provider:  cat,
		Auth:      auth,
		Player:    player.New(),
		Store:     store,
		Persist:   stateMgr,
		Quality:   quality,
		Volume:    saved.Volume,
		MaxVolume: cfg.MaxVolume(),
	})
	defer eng.Close()

	// Pick up where the last run stopped: saved sessions first, then the
	// saved queue.
	for _, kind := range session.Kinds {
		if token, err := stateMgr.RefreshToken(kind); err == nil && token != "" {
			eng.Dispatch(engine.Restore{Kind: kind, RefreshToken: token})
		}
	}
	if qs, err := stateMgr.GetQueue(); err == nil && qs != nil && len(qs.Tracks) > 0 {
		eng.Dispatch(engine.RestoreQueue{
			Tracks:  qs.PlaylistTracks(),
			Index:   qs.CurrentIndex,
			Repeat:  playlist.RepeatMode(qs.RepeatMode),
			Shuffle: qs.Shuffle,
		})
	}

	// The media bridge is best effort; the app works without a session bus.
	if bridge, err := mpris.New(eng); err == nil {
		defer bridge.Close()
	}

	p := tea.NewProgram(app.New(eng, cat), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ebb: %v\n", err)
		os.Exit(1)
	}
}
