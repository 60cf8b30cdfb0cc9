package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
)

// newPKCEPair generates a code verifier and its S256 challenge.
func newPKCEPair() (verifier, challenge string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(buf)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

// newState generates the CSRF state parameter.
func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// buildAuthorizeURL assembles the authorization-redirect URL the user opens.
func buildAuthorizeURL(authorizeURL, clientID, redirectURI, challenge, state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", "user.read collection.read collection.write playlists.read playlists.write")
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", state)
	return authorizeURL + "?" + q.Encode()
}

// ParseRedirect extracts the authorization code from the redirect URL the
// user pasted back, verifying it against the pending login's state.
func ParseRedirect(login *PendingLogin, rawURL string) (code string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	q := u.Query()

	code = q.Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect url has no code parameter")
	}
	if got := q.Get("state"); got != login.state {
		return "", fmt.Errorf("redirect state mismatch")
	}
	return code, nil
}
