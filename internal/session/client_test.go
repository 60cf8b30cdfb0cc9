package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuthClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("client-id", "client-secret")
	c.SetBaseURLs(srv.URL, srv.URL+"/authorize")
	return c
}

func TestClient_ExchangeCode(t *testing.T) {
	c := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("code_verifier") != "verifier" {
			t.Errorf("code_verifier = %q", r.PostForm.Get("code_verifier"))
		}
		_, _ = w.Write([]byte(`{"access_token": "at", "refresh_token": "rt", "expires_in": 3600}`))
	}))

	tokens, err := c.ExchangeCode(context.Background(), "code", "verifier")
	if err != nil {
		t.Fatalf("ExchangeCode() error: %v", err)
	}
	if tokens.AccessToken != "at" || tokens.RefreshToken != "rt" {
		t.Errorf("tokens = %+v", tokens)
	}
	if until := time.Until(tokens.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("ExpiresAt %v from now, want ~1h", until)
	}
}

func TestClient_Refresh_KeepsOldRefreshToken(t *testing.T) {
	c := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "new-at", "expires_in": 3600}`))
	}))

	tokens, err := c.Refresh(context.Background(), "old-rt")
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if tokens.RefreshToken != "old-rt" {
		t.Errorf("RefreshToken = %q, want old token kept", tokens.RefreshToken)
	}
}

func TestClient_Refresh_AuthError(t *testing.T) {
	c := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))

	if _, err := c.Refresh(context.Background(), "revoked"); err == nil {
		t.Error("Refresh() with invalid_grant should fail")
	}
}

func TestClient_StartDeviceLink(t *testing.T) {
	c := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device_authorization" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"deviceCode": "dc", "userCode": "ABC12",
			"verificationUri": "link.example.com", "expiresIn": 300, "interval": 2
		}`))
	}))

	link, err := c.StartDeviceLink(context.Background())
	if err != nil {
		t.Fatalf("StartDeviceLink() error: %v", err)
	}
	if link.DeviceCode != "dc" || link.UserCode != "ABC12" {
		t.Errorf("link = %+v", link)
	}
	if link.VerificationURL != "https://link.example.com" {
		t.Errorf("VerificationURL = %q, want https scheme added", link.VerificationURL)
	}
	if link.Interval != 2*time.Second {
		t.Errorf("Interval = %v, want 2s", link.Interval)
	}
}

func TestClient_PollDeviceLink(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr error
		wantTok string
	}{
		{"pending", `{"error": "authorization_pending"}`, http.StatusBadRequest, ErrLinkPending, ""},
		{"expired", `{"error": "expired_token"}`, http.StatusBadRequest, ErrLinkExpired, ""},
		{"linked", `{"access_token": "at", "refresh_token": "rt", "expires_in": 604800}`, http.StatusOK, nil, "at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestAuthClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			tokens, err := c.PollDeviceLink(context.Background(), "dc")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PollDeviceLink() error = %v, want %v", err, tt.wantErr)
			}
			if tokens.AccessToken != tt.wantTok {
				t.Errorf("AccessToken = %q, want %q", tokens.AccessToken, tt.wantTok)
			}
		})
	}
}

func TestTokenExpiry_JWTFallback(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	signed, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	got := tokenExpiry(signed, 0)
	if !got.Equal(exp) {
		t.Errorf("tokenExpiry() = %v, want %v from exp claim", got, exp)
	}
}

func TestTokenExpiry_OpaqueTokenWithoutExpiresIn(t *testing.T) {
	if got := tokenExpiry("not-a-jwt", 0); !got.IsZero() {
		t.Errorf("tokenExpiry() = %v, want zero time", got)
	}
}
