package session

import (
	"fmt"
	"sync"
	"time"
)

// defaultRefreshMargin is how long before expiry a proactive refresh is due.
const defaultRefreshMargin = time.Minute

// Store holds both sessions. It performs no I/O; the engine loop is the only
// mutator, applying results produced by background tasks. Reads are safe
// from other goroutines (token sources for the catalog client).
type Store struct {
	mu            sync.RWMutex
	sessions      [2]Session
	refreshMargin time.Duration
}

// NewStore creates a store with both sessions unauthenticated.
func NewStore(refreshMargin time.Duration) *Store {
	if refreshMargin <= 0 {
		refreshMargin = defaultRefreshMargin
	}
	s := &Store{refreshMargin: refreshMargin}
	for _, k := range Kinds {
		s.sessions[k].Kind = k
	}
	return s
}

// Get returns a copy of the session of the given kind.
func (s *Store) Get(kind Kind) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[kind]
}

// IsActive reports whether the session of the given kind can authorize work.
func (s *Store) IsActive(kind Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[kind].Status == StatusActive
}

// Require returns an error unless the session of the given kind is active.
func (s *Store) Require(kind Kind) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessions[kind].Status != StatusActive {
		return fmt.Errorf("%w: %s session is %s", ErrSessionRequired, kind, s.sessions[kind].Status)
	}
	return nil
}

// AccessToken returns the current access token for a kind, or "" when the
// session is not active.
func (s *Store) AccessToken(kind Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessions[kind].Status != StatusActive {
		return ""
	}
	return s.sessions[kind].AccessToken
}

// BeginAPILogin moves the API session to Pending with a fresh PKCE
// authorization URL. The previous credentials are discarded.
func (s *Store) BeginAPILogin(authorizeURL, clientID, redirectURI string) (*PendingLogin, error) {
	verifier, challenge, err := newPKCEPair()
	if err != nil {
		return nil, fmt.Errorf("generate pkce pair: %w", err)
	}
	state, err := newState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	login := &PendingLogin{
		Kind:     KindAPI,
		AuthURL:  buildAuthorizeURL(authorizeURL, clientID, redirectURI, challenge, state),
		verifier: verifier,
		state:    state,
	}
	s.mu.Lock()
	s.sessions[KindAPI] = Session{Kind: KindAPI, Status: StatusPending, Login: login}
	s.mu.Unlock()
	return login, nil
}

// BeginDeviceLink moves the streaming session to Pending with the device
// link the UI must display.
func (s *Store) BeginDeviceLink(link DeviceLink) *PendingLogin {
	login := &PendingLogin{
		Kind:       KindStreaming,
		AuthURL:    link.VerificationURL,
		UserCode:   link.UserCode,
		ExpiresAt:  link.ExpiresAt,
		deviceCode: link.DeviceCode,
	}
	s.mu.Lock()
	s.sessions[KindStreaming] = Session{Kind: KindStreaming, Status: StatusPending, Login: login}
	s.mu.Unlock()
	return login
}

// Pending returns the in-progress login for a kind, or nil.
func (s *Store) Pending(kind Kind) *PendingLogin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[kind].Login
}

// Activate installs fresh tokens and moves the session to Active. Valid from
// Pending (login completed) and from Active/Expired (refresh completed).
func (s *Store) Activate(kind Kind, tokens Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[kind] = Session{
		Kind:         kind,
		Status:       StatusActive,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
}

// MarkExpired flags an active session whose access token ran out. The
// refresh token is kept for a refresh attempt.
func (s *Store) MarkExpired(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[kind].Status != StatusActive {
		return
	}
	s.sessions[kind].Status = StatusExpired
	s.sessions[kind].AccessToken = ""
}

// Fail resets a session to Unauthenticated after a login or refresh failure
// that cannot be silently retried.
func (s *Store) Fail(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[kind] = Session{Kind: kind}
}

// RefreshToken returns the stored refresh token for a kind, or "".
func (s *Store) RefreshToken(kind Kind) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[kind].RefreshToken
}

// RefreshDue lists session kinds whose access token expires within the
// refresh margin. Sessions without an expiry never come due.
func (s *Store) RefreshDue(now time.Time) []Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []Kind
	for _, k := range Kinds {
		sess := &s.sessions[k]
		if sess.Status != StatusActive && sess.Status != StatusExpired {
			continue
		}
		if sess.RefreshToken == "" || sess.ExpiresAt.IsZero() {
			continue
		}
		if !now.Before(sess.ExpiresAt.Add(-s.refreshMargin)) {
			due = append(due, k)
		}
	}
	return due
}

// NextRefreshAt returns the earliest time a proactive refresh comes due, or
// the zero time when nothing is scheduled.
func (s *Store) NextRefreshAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var next time.Time
	for _, k := range Kinds {
		sess := &s.sessions[k]
		if sess.Status != StatusActive || sess.RefreshToken == "" || sess.ExpiresAt.IsZero() {
			continue
		}
		at := sess.ExpiresAt.Add(-s.refreshMargin)
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	return next
}
