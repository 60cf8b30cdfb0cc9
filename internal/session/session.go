// Package session owns the two authentication sessions the client needs:
// the documented-API session (redirect + code exchange) and the streaming
// entitlement session (device link + polling). Each has an independent
// lifecycle; no operation requiring a session kind proceeds while that kind
// is not active.
package session

import (
	"errors"
	"time"
)

// Kind identifies which of the two sessions is meant.
type Kind int

const (
	KindAPI Kind = iota
	KindStreaming
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Kinds lists both session kinds in a stable order.
var Kinds = [2]Kind{KindAPI, KindStreaming}

// Status is the lifecycle state of one session.
type Status int

const (
	StatusUnauthenticated Status = iota
	StatusPending
	StatusActive
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "Unauthenticated"
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Tokens is a credential set returned by the token endpoint.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// PendingLogin describes an in-progress login the UI must surface.
// For the API kind the user opens AuthURL and pastes back the redirect;
// for the streaming kind the user opens AuthURL and enters UserCode there.
type PendingLogin struct {
	Kind      Kind
	AuthURL   string
	UserCode  string // device link only
	ExpiresAt time.Time

	// verifier is the PKCE code verifier (API kind).
	verifier string
	// state is the CSRF state parameter (API kind).
	state string
	// deviceCode is the poll token (streaming kind).
	deviceCode string
}

// DeviceCode returns the poll token for a streaming login.
func (p *PendingLogin) DeviceCode() string { return p.deviceCode }

// Verifier returns the PKCE code verifier for an API login.
func (p *PendingLogin) Verifier() string { return p.verifier }

// Session is the observable state of one credential set.
type Session struct {
	Kind         Kind
	Status       Status
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Login        *PendingLogin // non-nil while Pending
}

// ErrSessionRequired rejects commands that need a session kind which is not
// currently active.
var ErrSessionRequired = errors.New("session required")

// ErrLinkPending is returned by device-link polling while the user has not
// completed authorization yet.
var ErrLinkPending = errors.New("device link pending")

// ErrLinkExpired is returned when the device-link code expired before the
// user completed authorization.
var ErrLinkExpired = errors.New("device link expired")
