package session

import (
	"errors"
	"testing"
	"time"
)

func TestStore_InitialState(t *testing.T) {
	s := NewStore(0)

	for _, k := range Kinds {
		if got := s.Get(k).Status; got != StatusUnauthenticated {
			t.Errorf("%s session status = %v, want Unauthenticated", k, got)
		}
		if s.IsActive(k) {
			t.Errorf("%s session should not be active", k)
		}
	}
}

func TestStore_Require(t *testing.T) {
	s := NewStore(0)

	err := s.Require(KindStreaming)
	if !errors.Is(err, ErrSessionRequired) {
		t.Fatalf("Require() error = %v, want ErrSessionRequired", err)
	}

	s.Activate(KindStreaming, Tokens{AccessToken: "tok"})
	if err := s.Require(KindStreaming); err != nil {
		t.Errorf("Require() after Activate = %v, want nil", err)
	}
}

func TestStore_BeginAPILogin(t *testing.T) {
	s := NewStore(0)

	login, err := s.BeginAPILogin("https://login.example.com/authorize", "client-id", "http://localhost")
	if err != nil {
		t.Fatalf("BeginAPILogin() error: %v", err)
	}

	if s.Get(KindAPI).Status != StatusPending {
		t.Errorf("status = %v, want Pending", s.Get(KindAPI).Status)
	}
	if login.AuthURL == "" || login.Verifier() == "" {
		t.Error("pending login missing auth url or verifier")
	}
	// Streaming session must be untouched.
	if s.Get(KindStreaming).Status != StatusUnauthenticated {
		t.Error("starting an API login must not touch the streaming session")
	}
}

func TestStore_ActivateFromPending(t *testing.T) {
	s := NewStore(0)
	if _, err := s.BeginAPILogin("https://login.example.com/authorize", "id", "http://localhost"); err != nil {
		t.Fatal(err)
	}

	s.Activate(KindAPI, Tokens{AccessToken: "at", RefreshToken: "rt", ExpiresAt: time.Now().Add(time.Hour)})

	sess := s.Get(KindAPI)
	if sess.Status != StatusActive {
		t.Errorf("status = %v, want Active", sess.Status)
	}
	if sess.Login != nil {
		t.Error("pending login must be cleared on activation")
	}
	if s.AccessToken(KindAPI) != "at" {
		t.Errorf("AccessToken = %q, want %q", s.AccessToken(KindAPI), "at")
	}
}

func TestStore_MarkExpiredKeepsRefreshToken(t *testing.T) {
	s := NewStore(0)
	s.Activate(KindAPI, Tokens{AccessToken: "at", RefreshToken: "rt"})

	s.MarkExpired(KindAPI)

	sess := s.Get(KindAPI)
	if sess.Status != StatusExpired {
		t.Errorf("status = %v, want Expired", sess.Status)
	}
	if sess.RefreshToken != "rt" {
		t.Error("refresh token must survive expiry")
	}
	if s.AccessToken(KindAPI) != "" {
		t.Error("expired session must not hand out an access token")
	}
}

func TestStore_FailResetsToUnauthenticated(t *testing.T) {
	s := NewStore(0)
	s.Activate(KindStreaming, Tokens{AccessToken: "at", RefreshToken: "rt"})

	s.Fail(KindStreaming)

	sess := s.Get(KindStreaming)
	if sess.Status != StatusUnauthenticated {
		t.Errorf("status = %v, want Unauthenticated", sess.Status)
	}
	if sess.RefreshToken != "" || sess.AccessToken != "" {
		t.Error("failed session must drop all credentials")
	}
}

func TestStore_RefreshDue(t *testing.T) {
	now := time.Now()
	s := NewStore(time.Minute)

	s.Activate(KindAPI, Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(30 * time.Second)})
	s.Activate(KindStreaming, Tokens{AccessToken: "b", RefreshToken: "r2", ExpiresAt: now.Add(time.Hour)})

	due := s.RefreshDue(now)
	if len(due) != 1 || due[0] != KindAPI {
		t.Errorf("RefreshDue() = %v, want [api]", due)
	}
}

func TestStore_RefreshDue_NoRefreshToken(t *testing.T) {
	s := NewStore(time.Minute)
	s.Activate(KindAPI, Tokens{AccessToken: "a", ExpiresAt: time.Now()})

	if due := s.RefreshDue(time.Now()); len(due) != 0 {
		t.Errorf("RefreshDue() = %v, want none without a refresh token", due)
	}
}

func TestStore_NextRefreshAt(t *testing.T) {
	now := time.Now()
	s := NewStore(time.Minute)

	if !s.NextRefreshAt().IsZero() {
		t.Error("NextRefreshAt() should be zero with no active sessions")
	}

	s.Activate(KindAPI, Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(2 * time.Hour)})
	s.Activate(KindStreaming, Tokens{AccessToken: "b", RefreshToken: "r2", ExpiresAt: now.Add(time.Hour)})

	want := now.Add(time.Hour).Add(-time.Minute)
	if got := s.NextRefreshAt(); !got.Equal(want) {
		t.Errorf("NextRefreshAt() = %v, want %v", got, want)
	}
}
