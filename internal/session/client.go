package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAuthBaseURL  = "https://auth.tidal.com/v1/oauth2"
	defaultAuthorizeURL = "https://login.tidal.com/authorize"
	defaultRedirectURI  = "http://localhost"

	requestTimeout = 15 * time.Second
)

// DeviceLink is the device-authorization grant the streaming login starts
// with. The user opens VerificationURL and enters UserCode; the client polls
// with DeviceCode at Interval until linked or ExpiresAt passes.
type DeviceLink struct {
	DeviceCode      string
	UserCode        string
	VerificationURL string
	Interval        time.Duration
	ExpiresAt       time.Time
}

// Client performs the network half of both login flows. It holds no session
// state; callers apply the returned tokens to the Store.
type Client struct {
	authBaseURL  string
	authorizeURL string
	redirectURI  string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient creates an auth client for the given OAuth application.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		authBaseURL:  defaultAuthBaseURL,
		authorizeURL: defaultAuthorizeURL,
		redirectURI:  defaultRedirectURI,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
}

// SetBaseURLs overrides the auth endpoints, used by tests.
func (c *Client) SetBaseURLs(authBase, authorize string) {
	c.authBaseURL = strings.TrimSuffix(authBase, "/")
	c.authorizeURL = authorize
}

// AuthorizeURL returns the authorization endpoint users are sent to.
func (c *Client) AuthorizeURL() string { return c.authorizeURL }

// ClientID returns the OAuth client id.
func (c *Client) ClientID() string { return c.clientID }

// RedirectURI returns the registered redirect target.
func (c *Client) RedirectURI() string { return c.redirectURI }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error"`
}

// ExchangeCode trades an authorization code plus PKCE verifier for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("code_verifier", verifier)

	res, err := c.postForm(ctx, "/token", form)
	if err != nil {
		return Tokens{}, fmt.Errorf("exchange code: %w", err)
	}
	return c.tokensFromResponse(res, "")
}

// Refresh trades a refresh token for a fresh credential set. The returned
// Tokens keep the old refresh token when the endpoint does not rotate it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)

	res, err := c.postForm(ctx, "/token", form)
	if err != nil {
		return Tokens{}, fmt.Errorf("refresh token: %w", err)
	}
	return c.tokensFromResponse(res, refreshToken)
}

// StartDeviceLink begins the device-authorization flow for the streaming
// session.
func (c *Client) StartDeviceLink(ctx context.Context) (DeviceLink, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("scope", "r_usr w_usr")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBaseURL+"/device_authorization", strings.NewReader(form.Encode()))
	if err != nil {
		return DeviceLink{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DeviceLink{}, fmt.Errorf("start device link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DeviceLink{}, fmt.Errorf("start device link: status %d", resp.StatusCode)
	}

	var body struct {
		DeviceCode              string `json:"deviceCode"`
		UserCode                string `json:"userCode"`
		VerificationURI         string `json:"verificationUri"`
		VerificationURIComplete string `json:"verificationUriComplete"`
		ExpiresIn               int    `json:"expiresIn"`
		Interval                int    `json:"interval"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return DeviceLink{}, fmt.Errorf("decode device link response: %w", err)
	}

	verificationURL := body.VerificationURIComplete
	if verificationURL == "" {
		verificationURL = body.VerificationURI
	}
	if !strings.HasPrefix(verificationURL, "http") {
		verificationURL = "https://" + verificationURL
	}

	interval := time.Duration(body.Interval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return DeviceLink{
		DeviceCode:      body.DeviceCode,
		UserCode:        body.UserCode,
		VerificationURL: verificationURL,
		Interval:        interval,
		ExpiresAt:       time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

// PollDeviceLink asks the token endpoint whether the user completed the
// device link. Returns ErrLinkPending while authorization is outstanding.
func (c *Client) PollDeviceLink(ctx context.Context, deviceCode string) (Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
	form.Set("device_code", deviceCode)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", "r_usr w_usr")

	res, err := c.postForm(ctx, "/token", form)
	if err != nil {
		return Tokens{}, fmt.Errorf("poll device link: %w", err)
	}
	switch res.Error {
	case "":
		return c.tokensFromResponse(res, "")
	case "authorization_pending":
		return Tokens{}, ErrLinkPending
	case "expired_token":
		return Tokens{}, ErrLinkExpired
	default:
		return Tokens{}, fmt.Errorf("poll device link: %s", res.Error)
	}
}

// postForm posts a form to the token endpoint. OAuth error payloads come
// back with 4xx status codes carrying a JSON error field, so those are
// decoded rather than failed on.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authBaseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return tokenResponse{}, fmt.Errorf("auth endpoint status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return tokenResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Error == "" && body.AccessToken == "" {
		return tokenResponse{}, fmt.Errorf("auth endpoint status %d: empty token", resp.StatusCode)
	}
	return body, nil
}

func (c *Client) tokensFromResponse(res tokenResponse, previousRefresh string) (Tokens, error) {
	if res.Error != "" {
		return Tokens{}, fmt.Errorf("auth error: %s", res.Error)
	}
	refresh := res.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return Tokens{
		AccessToken:  res.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    tokenExpiry(res.AccessToken, res.ExpiresIn),
	}, nil
}

// tokenExpiry derives the expiry instant from expires_in, falling back to
// the JWT exp claim when the endpoint omits it. Unknowable expiry yields the
// zero time, which disables proactive refresh for that session.
func tokenExpiry(accessToken string, expiresIn int) time.Time {
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
