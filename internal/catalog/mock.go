package catalog

import (
	"context"
	"sync"
)

// MockProvider is a scriptable Provider for tests.
type MockProvider struct {
	mu       sync.Mutex
	locators map[string]*StreamLocator
	errs     map[string]error
	calls    []ResolveCall

	// Block, when set, is closed by the test to release pending resolves.
	Block chan struct{}
}

// ResolveCall records one Resolve invocation.
type ResolveCall struct {
	TrackID string
	Quality Quality
}

// NewMockProvider creates an empty mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		locators: make(map[string]*StreamLocator),
		errs:     make(map[string]error),
	}
}

// SetLocator scripts a successful resolve for a track id.
func (m *MockProvider) SetLocator(trackID string, loc *StreamLocator) {
	m.mu.Lock()
	m.locators[trackID] = loc
	m.mu.Unlock()
}

// SetError scripts a failing resolve for a track id.
func (m *MockProvider) SetError(trackID string, err error) {
	m.mu.Lock()
	m.errs[trackID] = err
	m.mu.Unlock()
}

// Calls returns the resolve calls seen so far.
func (m *MockProvider) Calls() []ResolveCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ResolveCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *MockProvider) Resolve(ctx context.Context, trackID string, quality Quality) (*StreamLocator, error) {
	m.mu.Lock()
	m.calls = append(m.calls, ResolveCall{TrackID: trackID, Quality: quality})
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[trackID]; ok {
		return nil, err
	}
	if loc, ok := m.locators[trackID]; ok {
		copied := *loc
		return &copied, nil
	}
	return &StreamLocator{TrackID: trackID, Quality: quality, URL: "mock://" + trackID, Codec: "mp3"}, nil
}

var _ Provider = (*MockProvider)(nil)
