package state

import (
	"sync"

	"github.com/mlenormand/ebb/internal/session"
)

// Mock is an in-memory Interface implementation for tests.
type Mock struct {
	mu sync.Mutex

	tokens map[session.Kind]string
	queue  *QueueState
	player *PlayerState
}

var _ Interface = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{tokens: make(map[session.Kind]string)}
}

func (m *Mock) SaveRefreshToken(kind session.Kind, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == "" {
		delete(m.tokens, kind)
		return nil
	}
	m.tokens[kind] = token
	return nil
}

func (m *Mock) RefreshToken(kind session.Kind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[kind], nil
}

func (m *Mock) SaveQueue(state QueueState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = &state
}

func (m *Mock) GetQueue() (*QueueState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queue == nil {
		return &QueueState{CurrentIndex: -1}, nil
	}
	copied := *m.queue
	return &copied, nil
}

func (m *Mock) SavePlayer(volume int, quality string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.player = &PlayerState{Volume: volume, Quality: quality}
	return nil
}

func (m *Mock) GetPlayer() (*PlayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.player == nil {
		return &PlayerState{Volume: 100}, nil
	}
	copied := *m.player
	return &copied, nil
}

func (m *Mock) Close() error { return nil }
