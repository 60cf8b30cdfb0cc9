package player

import (
	"context"
	"sync"
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
)

// Mock is an in-memory Interface implementation for tests.
type Mock struct {
	mu sync.Mutex

	state    State
	volume   float64
	position time.Duration
	duration time.Duration

	loadErr  error
	loaded   *catalog.StreamLocator
	finished chan struct{}

	Calls []string
}

var _ Interface = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{
		state:    Stopped,
		volume:   1.0,
		finished: make(chan struct{}, 1),
	}
}

// SetLoadError makes subsequent Load calls fail with err.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetDuration sets the duration reported for loaded tracks.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Loaded returns the locator of the last successful Load.
func (m *Mock) Loaded() *catalog.StreamLocator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// SimulateFinished signals natural end of the loaded track.
func (m *Mock) SimulateFinished() {
	m.mu.Lock()
	m.state = Stopped
	m.mu.Unlock()
	select {
	case m.finished <- struct{}{}:
	default:
	}
}

func (m *Mock) record(call string) {
	m.Calls = append(m.Calls, call)
}

func (m *Mock) Load(ctx context.Context, loc *catalog.StreamLocator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Load:" + loc.TrackID)
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = loc
	m.position = 0
	m.state = Paused
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Play")
	if m.loaded != nil {
		m.state = Playing
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Pause")
	if m.state == Playing {
		m.state = Paused
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop")
	m.state = Stopped
	m.loaded = nil
	m.position = 0
}

func (m *Mock) SeekTo(pos time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SeekTo")
	if pos < 0 {
		pos = 0
	}
	if m.duration > 0 && pos > m.duration {
		pos = m.duration
	}
	m.position = pos
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SetVolume")
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	m.volume = level
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) FinishedChan() <-chan struct{} {
	return m.finished
}
