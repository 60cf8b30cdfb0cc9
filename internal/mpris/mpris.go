//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/mlenormand/ebb/internal/engine"
	"github.com/mlenormand/ebb/internal/playlist"
)

// seekEmitThreshold separates a seek from ordinary playback progress
// between two snapshots.
const seekEmitThreshold = 2 * time.Second

// Adapter connects the engine to MPRIS over D-Bus. Getters read the latest
// engine snapshot; media keys and setters are injected as commands, never
// applied from the D-Bus callback goroutine. Changed properties are pushed
// to the bus from the engine's snapshot feed.
type Adapter struct {
	eng    *engine.Engine
	server *server.Server
	events *events.EventHandler
	done   chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(eng *engine.Engine) (*Adapter, error) {
	a := &Adapter{
		eng:  eng,
		done: make(chan struct{}),
	}

	rootAdapter := &rootAdapter{}
	playerAdapter := &playerAdapter{eng: eng}

	a.server = server.NewServer("ebb", rootAdapter, playerAdapter)
	a.events = events.NewEventHandler(a.server)

	// Start the server in background
	go func() {
		_ = a.server.Listen()
	}()
	go a.watch(eng.Subscribe())

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// watch pushes property changes to the bus as snapshots arrive, emitting
// only for the fields that actually changed.
func (a *Adapter) watch(sub *engine.Subscription) {
	var prev engine.Snapshot
	for {
		select {
		case <-a.done:
			return
		case <-sub.Done:
			return
		case snap := <-sub.Snapshots:
			a.emitChanges(prev, snap)
			prev = snap
		}
	}
}

func (a *Adapter) emitChanges(prev, cur engine.Snapshot) {
	sameTrack := trackID(prev.Track) == trackID(cur.Track)
	if !sameTrack {
		_ = a.events.Player.OnTitle()
	}
	if playbackStatus(prev.Status) != playbackStatus(cur.Status) {
		_ = a.events.Player.OnPlayPause()
	}
	if prev.Volume != cur.Volume {
		_ = a.events.Player.OnVolume()
	}
	if prev.Shuffle != cur.Shuffle || prev.Repeat != cur.Repeat ||
		prev.HasNext != cur.HasNext || (prev.QueueIndex > 0) != (cur.QueueIndex > 0) {
		_ = a.events.Player.OnOptions()
	}
	if sameTrack && seeked(prev.Position, cur.Position) {
		_ = a.events.Player.OnSeek(types.Microseconds(cur.Position.Microseconds()))
	}
}

// seeked reports whether the position moved in a way playback progress
// alone cannot explain.
func seeked(prev, cur time.Duration) bool {
	if cur < prev {
		return true
	}
	return cur-prev > seekEmitThreshold
}

func trackID(t *playlist.Track) string {
	if t == nil {
		return ""
	}
	return t.ID
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil // Track list interface not implemented
}

func (r *rootAdapter) Identity() (string, error) {
	return "Ebb", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional
// interfaces.
type playerAdapter struct {
	eng *engine.Engine
}

func (p *playerAdapter) Next() error {
	p.eng.Dispatch(engine.MediaKey{Action: engine.MediaKeyNext})
	return nil
}

func (p *playerAdapter) Previous() error {
	p.eng.Dispatch(engine.MediaKey{Action: engine.MediaKeyPrevious})
	return nil
}

func (p *playerAdapter) Pause() error {
	p.eng.Dispatch(engine.MediaKey{Action: engine.MediaKeyPause})
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.eng.Dispatch(engine.MediaKey{Action: engine.MediaKeyPlayPause})
	return nil
}

func (p *playerAdapter) Stop() error {
	p.eng.Dispatch(engine.MediaKey{Action: engine.MediaKeyStop})
	return nil
}

func (p *playerAdapter) Play() error {
	p.eng.Dispatch(engine.MediaKey{Action: engine.MediaKeyPlay})
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.eng.Dispatch(engine.SeekBy{Delta: time.Duration(offset) * time.Microsecond})
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.eng.Dispatch(engine.Seek{To: time.Duration(position) * time.Microsecond})
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.eng.Snapshot().Status), nil
}

func playbackStatus(s engine.Status) types.PlaybackStatus {
	switch s {
	case engine.StatusPlaying, engine.StatusLoading:
		return types.PlaybackStatusPlaying
	case engine.StatusPaused:
		return types.PlaybackStatusPaused
	default:
		return types.PlaybackStatusStopped
	}
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.eng.Snapshot()
	if snap.Track == nil {
		return types.Metadata{}, nil
	}

	return types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(snap.Track.ID)),
		Length:  types.Microseconds(snap.Duration.Microseconds()),
		Title:   snap.Track.Title,
		Artist:  []string{snap.Track.Artist},
		Album:   snap.Track.Album,
	}, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return float64(p.eng.Snapshot().Volume) / 100, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	p.eng.Dispatch(engine.SetVolume{Level: int(v * 100)})
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.eng.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.eng.Snapshot().HasNext, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.eng.Snapshot().QueueIndex > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	snap := p.eng.Snapshot()
	return snap.QueueLen > 0 && snap.Playable(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	switch p.eng.Snapshot().Repeat {
	case playlist.RepeatOne:
		return types.LoopStatusTrack, nil
	case playlist.RepeatAll:
		return types.LoopStatusPlaylist, nil
	default:
		return types.LoopStatusNone, nil
	}
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	switch status {
	case types.LoopStatusNone:
		p.eng.Dispatch(engine.SetRepeat{Mode: playlist.RepeatOff})
	case types.LoopStatusTrack:
		p.eng.Dispatch(engine.SetRepeat{Mode: playlist.RepeatOne})
	case types.LoopStatusPlaylist:
		p.eng.Dispatch(engine.SetRepeat{Mode: playlist.RepeatAll})
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.eng.Snapshot().Shuffle, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.eng.Dispatch(engine.SetShuffle{Enabled: shuffle})
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
