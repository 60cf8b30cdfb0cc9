package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL       = "https://openapi.tidal.com/v2"
	defaultLegacyBaseURL = "https://api.tidal.com/v1"

	requestTimeout = 15 * time.Second
)

// TokenSource supplies a bearer token for a request. The engine hands the
// client a snapshot of the relevant session token; the client never reads
// session state directly.
type TokenSource func() string

// Client is the native catalog/stream API client.
//
// Metadata lookups go through the documented API; favorites and stream
// resolution use the legacy endpoints the desktop clients use. Track
// metadata is cached per id since tracks are immutable once fetched.
type Client struct {
	baseURL       string
	legacyBaseURL string
	countryCode   string
	apiToken      TokenSource // documented API (user-facing metadata)
	streamToken   TokenSource // legacy API (favorites, playback info)
	httpClient    *http.Client

	mu     sync.Mutex
	tracks map[string]*Track
}

// NewClient creates a catalog client. Either token source may return "" when
// the matching session is not active; requests then fail with a 401 mapped
// to ErrTransient so the engine's session gate stays authoritative.
func NewClient(countryCode string, apiToken, streamToken TokenSource) *Client {
	return &Client{
		baseURL:       defaultBaseURL,
		legacyBaseURL: defaultLegacyBaseURL,
		countryCode:   countryCode,
		apiToken:      apiToken,
		streamToken:   streamToken,
		httpClient:    &http.Client{Timeout: requestTimeout},
		tracks:        make(map[string]*Track),
	}
}

// SetBaseURLs overrides the API endpoints, used by tests.
func (c *Client) SetBaseURLs(api, legacy string) {
	c.baseURL = strings.TrimSuffix(api, "/")
	c.legacyBaseURL = strings.TrimSuffix(legacy, "/")
}

// SetCountryCode updates the country code once the user profile is known.
func (c *Client) SetCountryCode(code string) {
	c.mu.Lock()
	c.countryCode = code
	c.mu.Unlock()
}

type trackAttributes struct {
	Title     string   `json:"title"`
	Duration  string   `json:"duration"` // ISO-8601, "PT3M42S"
	MediaTags []string `json:"mediaTags"`
}

type trackDocument struct {
	ID            string          `json:"id"`
	Attributes    trackAttributes `json:"attributes"`
	Relationships struct {
		Artists struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"artists"`
		Albums struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"albums"`
	} `json:"relationships"`
}

type includedResource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name  string `json:"name"`  // artists
		Title string `json:"title"` // albums
	} `json:"attributes"`
}

// Track fetches metadata for a single track, served from cache when already
// known.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	c.mu.Lock()
	if t, ok := c.tracks[id]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	var doc struct {
		Data     trackDocument      `json:"data"`
		Included []includedResource `json:"included"`
	}
	endpoint := fmt.Sprintf("/tracks/%s?include=artists,albums", url.PathEscape(id))
	if err := c.get(ctx, c.baseURL, endpoint, c.apiToken, &doc); err != nil {
		return nil, fmt.Errorf("fetch track %s: %w", id, err)
	}

	t := &Track{
		ID:        id,
		Title:     doc.Data.Attributes.Title,
		Duration:  parseISODuration(doc.Data.Attributes.Duration),
		Qualities: qualitiesFromMediaTags(doc.Data.Attributes.MediaTags),
	}
	for _, inc := range doc.Included {
		switch inc.Type {
		case "artists":
			if t.Artist == "" {
				t.Artist = inc.Attributes.Name
			}
		case "albums":
			if t.Album == "" {
				t.Album = inc.Attributes.Title
			}
		}
	}

	c.mu.Lock()
	c.tracks[id] = t
	c.mu.Unlock()
	return t, nil
}

// User identifies the logged-in account.
type User struct {
	ID       string
	Username string
	Country  string
}

// CurrentUser returns the account the API session belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var doc struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				Username string `json:"username"`
				Country  string `json:"country"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := c.get(ctx, c.baseURL, "/users/me", c.apiToken, &doc); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return &User{
		ID:       doc.Data.ID,
		Username: doc.Data.Attributes.Username,
		Country:  doc.Data.Attributes.Country,
	}, nil
}

// FavoriteTracks returns the user's collection, oldest first.
func (c *Client) FavoriteTracks(ctx context.Context, userID string) ([]Track, error) {
	var doc struct {
		TotalNumberOfItems int `json:"totalNumberOfItems"`
		Items              []struct {
			Item struct {
				ID       json.Number `json:"id"`
				Title    string      `json:"title"`
				Duration int         `json:"duration"` // seconds on the legacy API
				Artist   struct {
					Name string `json:"name"`
				} `json:"artist"`
				Album struct {
					Title string `json:"title"`
				} `json:"album"`
				AudioQuality string `json:"audioQuality"`
			} `json:"item"`
		} `json:"items"`
	}

	endpoint := fmt.Sprintf("/users/%s/favorites/tracks?limit=10000", url.PathEscape(userID))
	if err := c.get(ctx, c.legacyBaseURL, endpoint, c.streamToken, &doc); err != nil {
		return nil, fmt.Errorf("fetch favorites: %w", err)
	}

	tracks := make([]Track, 0, len(doc.Items))
	for _, it := range doc.Items {
		t := Track{
			ID:       it.Item.ID.String(),
			Title:    it.Item.Title,
			Artist:   it.Item.Artist.Name,
			Album:    it.Item.Album.Title,
			Duration: time.Duration(it.Item.Duration) * time.Second,
		}
		if q, ok := ParseQuality(it.Item.AudioQuality); ok {
			t.Qualities = tiersUpTo(q)
		}
		tracks = append(tracks, t)
		c.mu.Lock()
		cached := t
		c.tracks[t.ID] = &cached
		c.mu.Unlock()
	}
	return tracks, nil
}

// Resolve produces a single-use stream locator for one track at one tier.
func (c *Client) Resolve(ctx context.Context, trackID string, quality Quality) (*StreamLocator, error) {
	var doc struct {
		URLs         []string `json:"urls"`
		Codec        string   `json:"codec"`
		AudioQuality string   `json:"audioQuality"`
	}
	endpoint := fmt.Sprintf("/tracks/%s/urlpostpaywall?audioquality=%s&urlusagemode=STREAM&assetpresentation=FULL",
		url.PathEscape(trackID), quality.apiString())
	if err := c.get(ctx, c.legacyBaseURL, endpoint, c.streamToken, &doc); err != nil {
		return nil, fmt.Errorf("resolve track %s: %w", trackID, err)
	}
	if len(doc.URLs) == 0 {
		return nil, fmt.Errorf("resolve track %s: %w: empty url list", trackID, ErrTransient)
	}

	codec := strings.ToLower(doc.Codec)
	if codec == "" {
		if quality == QualityLossless {
			codec = "flac"
		} else {
			codec = "mp3"
		}
	}

	return &StreamLocator{
		TrackID:   trackID,
		Quality:   quality,
		URL:       doc.URLs[0],
		Codec:     codec,
		ExpiresAt: time.Now().Add(30 * time.Minute),
	}, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, base, endpoint string, token TokenSource, out any) error {
	c.mu.Lock()
	country := c.countryCode
	c.mu.Unlock()

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	reqURL := base + endpoint + sep + "countryCode=" + url.QueryEscape(country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if tok := token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps HTTP status codes onto the resolve error taxonomy.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrQuotaExceeded
	default:
		return fmt.Errorf("%w: API status %d", ErrTransient, code)
	}
}

// qualitiesFromMediaTags derives available tiers from the API media tags.
// Every streamable track has the lossy tiers; LOSSLESS shows up as a tag.
func qualitiesFromMediaTags(tags []string) []Quality {
	qualities := []Quality{QualityLow96, QualityLow320}
	for _, tag := range tags {
		if strings.EqualFold(tag, "LOSSLESS") || strings.EqualFold(tag, "HIRES_LOSSLESS") {
			return append(qualities, QualityLossless)
		}
	}
	return qualities
}

func tiersUpTo(q Quality) []Quality {
	tiers := []Quality{QualityLow96}
	if q >= QualityLow320 {
		tiers = append(tiers, QualityLow320)
	}
	if q >= QualityLossless {
		tiers = append(tiers, QualityLossless)
	}
	return tiers
}
