package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
	"github.com/mlenormand/ebb/internal/player"
	"github.com/mlenormand/ebb/internal/session"
)

const (
	defaultResolveTimeout = 15 * time.Second
	defaultLoadTimeout    = 2 * time.Minute
	defaultRefreshTimeout = 15 * time.Second

	minPollInterval = 2 * time.Second
	maxPollInterval = 5 * time.Second
)

// supervisor runs the engine's background work: stream resolution, playback
// start, auth network calls and timers. Completions are posted back on the
// engine's command channel, never applied directly; the loop decides with
// the generation check whether a completion is still current, so
// cancellation here is best effort only.
type supervisor struct {
	post func(Command)

	mu           sync.Mutex
	playCancel   context.CancelFunc
	loginCancel  context.CancelFunc
	refreshTimer *time.Timer
	errTimer     *time.Timer

	wg sync.WaitGroup
}

func newSupervisor(post func(Command)) *supervisor {
	return &supervisor{post: post}
}

// resolve fetches a stream locator for a track. Supersedes any in-flight
// playback task.
func (sv *supervisor) resolve(gen uint64, provider catalog.Provider, trackID string, quality catalog.Quality) {
	ctx := sv.resetPlayback()
	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		rctx, cancel := context.WithTimeout(ctx, defaultResolveTimeout)
		defer cancel()
		loc, err := provider.Resolve(rctx, trackID, quality)
		if ctx.Err() != nil {
			return
		}
		sv.post(streamResolved{gen: gen, trackID: trackID, locator: loc, err: err})
	}()
}

// startPlayback loads a resolved stream into the output backend.
func (sv *supervisor) startPlayback(gen uint64, out player.Interface, loc *catalog.StreamLocator) {
	ctx := sv.resetPlayback()
	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		lctx, cancel := context.WithTimeout(ctx, defaultLoadTimeout)
		defer cancel()
		err := out.Load(lctx, loc)
		if ctx.Err() != nil {
			return
		}
		sv.post(playbackStarted{gen: gen, err: err})
	}()
}

// cancelPlayback aborts any in-flight resolve or load.
func (sv *supervisor) cancelPlayback() {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.playCancel != nil {
		sv.playCancel()
		sv.playCancel = nil
	}
}

func (sv *supervisor) resetPlayback() context.Context {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.playCancel != nil {
		sv.playCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	sv.playCancel = cancel
	return ctx
}

// metadataFetcher is implemented by providers that serve cached track
// metadata lookups.
type metadataFetcher interface {
	Track(ctx context.Context, id string) (*catalog.Track, error)
}

// warmMetadata fetches track metadata so the next load hits a warm cache.
// The result is discarded; no command is posted.
func (sv *supervisor) warmMetadata(f metadataFetcher, trackID string) {
	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), defaultResolveTimeout)
		defer cancel()
		_, _ = f.Track(ctx, trackID)
	}()
}

// startDeviceLink requests a device code for the streaming login.
func (sv *supervisor) startDeviceLink(auth *session.Client) {
	ctx := sv.resetLogin()
	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		link, err := auth.StartDeviceLink(ctx)
		if ctx.Err() != nil {
			return
		}
		sv.post(deviceLinkStarted{link: link, err: err})
	}()
}

// pollDeviceLink polls the token endpoint until the link is approved, the
// code expires, or the login is superseded. The service interval is clamped
// to keep polling responsive without hammering the endpoint.
func (sv *supervisor) pollDeviceLink(auth *session.Client, link session.DeviceLink) {
	ctx := sv.resetLogin()

	interval := link.Interval
	if interval < minPollInterval {
		interval = minPollInterval
	}
	if interval > maxPollInterval {
		interval = maxPollInterval
	}

	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if !link.ExpiresAt.IsZero() && time.Now().After(link.ExpiresAt) {
				sv.post(loginPolled{err: session.ErrLinkExpired})
				return
			}
			tokens, err := auth.PollDeviceLink(ctx, link.DeviceCode)
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, session.ErrLinkPending) {
				continue
			}
			sv.post(loginPolled{tokens: tokens, err: err})
			return
		}
	}()
}

// exchangeCode trades an authorization code for API session tokens.
func (sv *supervisor) exchangeCode(auth *session.Client, code, verifier string) {
	ctx := sv.resetLogin()
	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		ectx, cancel := context.WithTimeout(ctx, defaultRefreshTimeout)
		defer cancel()
		tokens, err := auth.ExchangeCode(ectx, code, verifier)
		if ctx.Err() != nil {
			return
		}
		sv.post(codeExchanged{tokens: tokens, err: err})
	}()
}

// cancelLogin aborts any in-flight login task.
func (sv *supervisor) cancelLogin() {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.loginCancel != nil {
		sv.loginCancel()
		sv.loginCancel = nil
	}
}

func (sv *supervisor) resetLogin() context.Context {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.loginCancel != nil {
		sv.loginCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	sv.loginCancel = cancel
	return ctx
}

// refresh exchanges a refresh token for fresh session tokens. Refresh tasks
// are not superseded by playback or login activity.
func (sv *supervisor) refresh(auth *session.Client, kind session.Kind, refreshToken string) {
	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), defaultRefreshTimeout)
		defer cancel()
		tokens, err := auth.Refresh(ctx, refreshToken)
		sv.post(tokenRefreshed{kind: kind, tokens: tokens, err: err})
	}()
}

// scheduleRefresh arms the proactive refresh timer. A zero time disarms it.
func (sv *supervisor) scheduleRefresh(at time.Time) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.refreshTimer != nil {
		sv.refreshTimer.Stop()
		sv.refreshTimer = nil
	}
	if at.IsZero() {
		return
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	sv.refreshTimer = time.AfterFunc(d, func() {
		sv.post(refreshDue{})
	})
}

// scheduleErrorClear arms the timed return from an error snapshot. The
// sequence number guards against clearing a newer error.
func (sv *supervisor) scheduleErrorClear(seq uint64, delay time.Duration) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.errTimer != nil {
		sv.errTimer.Stop()
	}
	sv.errTimer = time.AfterFunc(delay, func() {
		sv.post(clearError{seq: seq})
	})
}

// close cancels all outstanding work and waits for goroutines to exit.
func (sv *supervisor) close() {
	sv.mu.Lock()
	if sv.playCancel != nil {
		sv.playCancel()
		sv.playCancel = nil
	}
	if sv.loginCancel != nil {
		sv.loginCancel()
		sv.loginCancel = nil
	}
	if sv.refreshTimer != nil {
		sv.refreshTimer.Stop()
		sv.refreshTimer = nil
	}
	if sv.errTimer != nil {
		sv.errTimer.Stop()
		sv.errTimer = nil
	}
	sv.mu.Unlock()
	sv.wg.Wait()
}
