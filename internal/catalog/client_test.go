package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func staticToken(tok string) TokenSource {
	return func() string { return tok }
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("US", staticToken("api-token"), staticToken("stream-token"))
	c.SetBaseURLs(srv.URL, srv.URL)
	return c
}

func TestClient_Track(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("countryCode") != "US" {
			t.Errorf("missing countryCode, got query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"id": "75413011",
				"attributes": {"title": "Alright", "duration": "PT3M39S", "mediaTags": ["LOSSLESS"]},
				"relationships": {}
			},
			"included": [
				{"id": "1", "type": "artists", "attributes": {"name": "Kendrick Lamar"}},
				{"id": "2", "type": "albums", "attributes": {"title": "To Pimp a Butterfly"}}
			]
		}`))
	}))

	track, err := c.Track(context.Background(), "75413011")
	if err != nil {
		t.Fatalf("Track() error: %v", err)
	}
	if gotAuth != "Bearer api-token" {
		t.Errorf("Authorization = %q, want bearer api token", gotAuth)
	}
	if track.Title != "Alright" || track.Artist != "Kendrick Lamar" || track.Album != "To Pimp a Butterfly" {
		t.Errorf("unexpected track metadata: %+v", track)
	}
	if track.Duration != 3*time.Minute+39*time.Second {
		t.Errorf("Duration = %v, want 3m39s", track.Duration)
	}
	if len(track.Qualities) != 3 {
		t.Errorf("Qualities = %v, want all three tiers", track.Qualities)
	}
}

func TestClient_Track_CachesResult(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data": {"id": "1", "attributes": {"title": "Once"}}}`))
	}))

	for range 3 {
		if _, err := c.Track(context.Background(), "1"); err != nil {
			t.Fatalf("Track() error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 (cached)", calls)
	}
}

func TestClient_Resolve(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("audioquality"); got != "LOSSLESS" {
			t.Errorf("audioquality = %q, want LOSSLESS", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer stream-token" {
			t.Errorf("Authorization = %q, want bearer stream token", got)
		}
		_, _ = w.Write([]byte(`{"urls": ["https://cdn.example.com/a.flac"], "codec": "FLAC"}`))
	}))

	loc, err := c.Resolve(context.Background(), "42", QualityLossless)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if loc.URL != "https://cdn.example.com/a.flac" {
		t.Errorf("URL = %q", loc.URL)
	}
	if loc.Codec != "flac" {
		t.Errorf("Codec = %q, want flac", loc.Codec)
	}
	if loc.TrackID != "42" || loc.Quality != QualityLossless {
		t.Errorf("locator identity = %+v", loc)
	}
}

func TestClient_Resolve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"quota", http.StatusTooManyRequests, ErrQuotaExceeded},
		{"server error", http.StatusInternalServerError, ErrTransient},
		{"bad gateway", http.StatusBadGateway, ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := c.Resolve(context.Background(), "42", QualityLow320)
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_Resolve_EmptyURLList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"urls": []}`))
	}))

	_, err := c.Resolve(context.Background(), "42", QualityLow96)
	if !errors.Is(err, ErrTransient) {
		t.Errorf("Resolve() error = %v, want ErrTransient", err)
	}
}

func TestClient_FavoriteTracks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/u1/favorites/tracks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"totalNumberOfItems": 2,
			"items": [
				{"item": {"id": 10, "title": "One", "duration": 181,
					"artist": {"name": "A"}, "album": {"title": "X"}, "audioQuality": "LOSSLESS"}},
				{"item": {"id": 11, "title": "Two", "duration": 200,
					"artist": {"name": "B"}, "album": {"title": "Y"}, "audioQuality": "HIGH"}}
			]
		}`))
	}))

	tracks, err := c.FavoriteTracks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FavoriteTracks() error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].ID != "10" || tracks[0].Duration != 181*time.Second {
		t.Errorf("first track = %+v", tracks[0])
	}
	if len(tracks[0].Qualities) != 3 {
		t.Errorf("lossless favorite should expose three tiers, got %v", tracks[0].Qualities)
	}
	if len(tracks[1].Qualities) != 2 {
		t.Errorf("lossy favorite should expose two tiers, got %v", tracks[1].Qualities)
	}
}

func TestQuality_Cycle(t *testing.T) {
	q := QualityLow96
	seen := map[Quality]bool{}
	for range 3 {
		seen[q] = true
		q = q.Cycle()
	}
	if q != QualityLow96 {
		t.Errorf("Cycle did not wrap, ended at %v", q)
	}
	if len(seen) != 3 {
		t.Errorf("Cycle visited %d tiers, want 3", len(seen))
	}
}
