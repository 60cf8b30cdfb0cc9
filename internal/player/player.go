package player

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/mlenormand/ebb/internal/catalog"
)

// Player streams a resolved locator through beep. The audio payload is
// buffered in memory before decoding so seeking stays cheap; locators are
// single-use and never cached.
type Player struct {
	mu sync.Mutex

	state    State
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	streamer beep.StreamSeekCloser
	format   beep.Format

	volumeLevel float64
	finishedCh  chan struct{}

	httpClient *http.Client
}

var (
	speakerOnce sync.Once
	speakerErr  error
)

// New creates a stopped player.
func New() *Player {
	return &Player{
		state:       Stopped,
		volumeLevel: 1.0,
		finishedCh:  make(chan struct{}, 1),
		// No client timeout: the whole track body is read during Load and
		// the caller's context bounds the fetch.
		httpClient: &http.Client{},
	}
}

// Load fetches the stream and prepares a paused pipeline for it. Any track
// already loaded is stopped first.
func (p *Player) Load(ctx context.Context, loc *catalog.StreamLocator) error {
	p.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrDevice, err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch stream: %v", ErrDevice, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: stream fetch status %d", ErrDevice, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read stream: %v", ErrDevice, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	body := io.NopCloser(bytes.NewReader(data))
	switch loc.Codec {
	case "flac":
		streamer, format, err = flac.Decode(body)
	case "mp3":
		streamer, format, err = mp3.Decode(body)
	default:
		return fmt.Errorf("%w: unsupported codec %q", ErrDecode, loc.Codec)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		return fmt.Errorf("%w: %v", ErrDevice, speakerErr)
	}

	p.mu.Lock()
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, sampleRate(), streamer), Paused: true}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2, Volume: levelToVolume(p.volumeLevel)}
	p.volume.Silent = p.volumeLevel <= 0
	p.state = Paused
	finished := p.finishedCh
	p.mu.Unlock()

	speaker.Play(beep.Seq(p.volume, beep.Callback(func() {
		select {
		case finished <- struct{}{}:
		default:
		}
	})))

	return nil
}

// sampleRate is the rate the speaker was initialized with; tracks with a
// different native rate are resampled.
func sampleRate() beep.SampleRate {
	return beep.SampleRate(44100)
}

// Play starts or resumes playback of the loaded track.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil || p.state == Playing {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	p.state = Playing
}

// Pause pauses playback.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Playing || p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.state = Paused
}

// Stop stops playback and releases the stream.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Stopped {
		return
	}

	speaker.Clear()

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}
	p.ctrl = nil
	p.volume = nil
	p.state = Stopped
}

// SeekTo moves playback to an absolute position, clamped to track bounds.
func (p *Player) SeekTo(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil || p.state == Stopped {
		return
	}

	n := p.format.SampleRate.N(pos)
	speaker.Lock()
	if n < 0 {
		n = 0
	}
	if maxN := p.streamer.Len() - 1; n > maxN {
		n = maxN
	}
	_ = p.streamer.Seek(n)
	speaker.Unlock()
}

// SetVolume sets the output level (0.0 to 1.0, clamped).
func (p *Player) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.volumeLevel = level
	if p.volume != nil {
		speaker.Lock()
		p.volume.Volume = levelToVolume(level)
		p.volume.Silent = level <= 0
		speaker.Unlock()
	}
}

// Volume returns the current output level (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volumeLevel
}

// State returns the backend state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the playback position of the loaded track.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Position())
}

// Duration returns the decoded length of the loaded track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// FinishedChan signals natural end of the loaded track.
func (p *Player) FinishedChan() <-chan struct{} {
	return p.finishedCh
}
