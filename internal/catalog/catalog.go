// Package catalog talks to the remote track catalog and resolves playable
// stream locations. It is the only package that knows the wire format of the
// streaming service.
package catalog

import (
	"context"
	"errors"
	"time"
)

// Quality is an audio quality tier offered by the service.
type Quality int

const (
	QualityLow96 Quality = iota // 96 kbps
	QualityLow320
	QualityLossless // 16-bit, 44.1 kHz
)

// apiString returns the tier name used by the streaming API.
func (q Quality) apiString() string {
	switch q {
	case QualityLow96:
		return "LOW"
	case QualityLow320:
		return "HIGH"
	case QualityLossless:
		return "LOSSLESS"
	default:
		return "LOW"
	}
}

// Name returns the stable tier name, suitable for persistence and config.
func (q Quality) Name() string {
	return q.apiString()
}

// String returns a display name close to how the service labels tiers.
func (q Quality) String() string {
	switch q {
	case QualityLow96:
		return "Low (96 kbps)"
	case QualityLow320:
		return "Low (320 kbps)"
	case QualityLossless:
		return "High"
	default:
		return "Unknown"
	}
}

// Cycle returns the next quality tier, wrapping around.
func (q Quality) Cycle() Quality {
	switch q {
	case QualityLow96:
		return QualityLow320
	case QualityLow320:
		return QualityLossless
	default:
		return QualityLow96
	}
}

// ParseQuality maps a config/persisted tier name to a Quality.
func ParseQuality(s string) (Quality, bool) {
	switch s {
	case "low", "LOW":
		return QualityLow96, true
	case "high", "HIGH":
		return QualityLow320, true
	case "lossless", "LOSSLESS":
		return QualityLossless, true
	}
	return QualityLow96, false
}

// Track is immutable catalog metadata, shared read-only between the queue
// and the renderer.
type Track struct {
	ID        string
	Title     string
	Artist    string
	Album     string
	Duration  time.Duration
	Qualities []Quality
}

// StreamLocator is a time-limited reference to playable audio for one
// track/quality combination. Single use: it is not cached beyond the
// playback it was resolved for.
type StreamLocator struct {
	TrackID   string
	Quality   Quality
	URL       string
	Codec     string // "mp3" or "flac"
	ExpiresAt time.Time
}

// Provider resolves a playable stream location for a track. Implementations
// may be slow and may fail; callers run them off the state-owning goroutine.
type Provider interface {
	Resolve(ctx context.Context, trackID string, quality Quality) (*StreamLocator, error)
}

// Resolve and metadata errors, matched with errors.Is.
var (
	ErrNotFound      = errors.New("track not found")
	ErrQuotaExceeded = errors.New("stream quota exceeded")
	ErrTransient     = errors.New("transient catalog error")
)
