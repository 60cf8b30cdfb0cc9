package state

import (
	"github.com/mlenormand/ebb/internal/session"
)

// Interface defines the state manager contract for dependency injection and
// testing.
type Interface interface {
	SaveRefreshToken(kind session.Kind, token string) error
	RefreshToken(kind session.Kind) (string, error)
	SaveQueue(state QueueState)
	GetQueue() (*QueueState, error)
	SavePlayer(volume int, quality string) error
	GetPlayer() (*PlayerState, error)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
