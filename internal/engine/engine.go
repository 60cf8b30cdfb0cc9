package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mlenormand/ebb/internal/catalog"
	"github.com/mlenormand/ebb/internal/player"
	"github.com/mlenormand/ebb/internal/playlist"
	"github.com/mlenormand/ebb/internal/session"
	"github.com/mlenormand/ebb/internal/state"
)

const (
	commandBufferSize = 64

	defaultTickInterval  = 500 * time.Millisecond
	defaultErrClearDelay = 4 * time.Second

	maxVolume = 100
)

// Config wires the engine's collaborators. Persist is optional; when set,
// refresh tokens, the queue and player settings are saved as they change so
// a restart can pick up where the last run stopped.
type Config struct {
	Provider catalog.Provider
	Auth     *session.Client
	Player   player.Interface
	Store    *session.Store
	Persist  state.Interface

	Quality catalog.Quality
	Volume  int
	// MaxVolume caps every volume change, including media controls.
	// Zero or out-of-range values mean the full scale.
	MaxVolume    int
	TickInterval time.Duration
}

// Engine owns all playback and session state. A single goroutine applies
// commands in arrival order and publishes one snapshot per applied command;
// nothing else reads or writes the state.
type Engine struct {
	cmds chan Command
	done chan struct{}
	stop sync.Once
	wg   sync.WaitGroup

	sup *supervisor

	// Loop-owned state. Never touched outside run().
	provider catalog.Provider
	auth     *session.Client
	out      player.Interface
	store    *session.Store
	persist  state.Interface
	queue    *playlist.Queue

	status    Status
	errText   string
	errSeq    uint64
	gen       uint64
	position  time.Duration
	duration  time.Duration
	resumeAt  time.Duration
	volume    int
	volumeCap int

	refreshing [2]bool
	quality   catalog.Quality
	tickEvery time.Duration

	subs   []*Subscription
	subsMu sync.Mutex

	snapMu sync.RWMutex
	snap   Snapshot
}

// New creates and starts an engine.
func New(cfg Config) *Engine {
	ceiling := volumeCeiling(cfg.MaxVolume)
	e := &Engine{
		cmds:      make(chan Command, commandBufferSize),
		done:      make(chan struct{}),
		provider:  cfg.Provider,
		auth:      cfg.Auth,
		out:       cfg.Player,
		store:     cfg.Store,
		persist:   cfg.Persist,
		queue:     playlist.NewQueue(),
		status:    StatusIdle,
		volume:    clampVolume(cfg.Volume, ceiling),
		volumeCap: ceiling,
		quality:   cfg.Quality,
		tickEvery: cfg.TickInterval,
	}
	if e.tickEvery <= 0 {
		e.tickEvery = defaultTickInterval
	}
	e.sup = newSupervisor(e.post)
	e.out.SetVolume(float64(e.volume) / maxVolume)
	e.publish()

	e.wg.Add(1)
	go e.run()
	return e
}

// Dispatch posts a command for the loop to apply. It never blocks the
// caller for long: the buffer absorbs bursts and a closed engine swallows
// the command.
func (e *Engine) Dispatch(cmd Command) {
	select {
	case e.cmds <- cmd:
	case <-e.done:
	}
}

// post is the supervisor's way back into the loop.
func (e *Engine) post(cmd Command) {
	select {
	case e.cmds <- cmd:
	case <-e.done:
	}
}

// Subscribe registers a snapshot consumer. The current snapshot is
// delivered immediately.
func (e *Engine) Subscribe() *Subscription {
	sub := newSubscription()
	e.subsMu.Lock()
	e.subs = append(e.subs, sub)
	e.subsMu.Unlock()
	sub.send(e.Snapshot())
	return sub
}

// Snapshot returns the latest published snapshot, for pull consumers.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snap
}

// Close stops the loop, cancels background work and closes subscriptions.
func (e *Engine) Close() error {
	e.stop.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
	e.sup.close()
	e.out.Stop()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case cmd := <-e.cmds:
			e.apply(cmd)
		case <-ticker.C:
			e.apply(tick{})
		case <-e.out.FinishedChan():
			e.apply(trackFinished{})
		}
		e.publish()
	}
}

func (e *Engine) apply(cmd Command) {
	switch c := cmd.(type) {
	case Play:
		e.play()
	case Pause:
		e.pause()
	case TogglePlayPause:
		if e.status == StatusPlaying {
			e.pause()
		} else {
			e.play()
		}
	case Stop:
		e.stopPlayback()
	case Next:
		e.advance(playlist.DirNext)
	case Previous:
		e.advance(playlist.DirPrevious)
	case JumpTo:
		if t := e.queue.JumpTo(c.Index); t != nil {
			e.startLoading()
		}
	case Seek:
		e.seekTo(c.To)
	case SeekBy:
		e.seekTo(e.position + c.Delta)
	case SetVolume:
		e.setVolume(c.Level)
	case AdjustVolume:
		e.setVolume(e.volume + c.Delta)
	case ToggleShuffle:
		e.queue.ToggleShuffle()
	case SetShuffle:
		e.queue.SetShuffle(c.Enabled)
	case CycleRepeat:
		e.queue.CycleRepeatMode()
	case SetRepeat:
		e.queue.SetRepeatMode(c.Mode)
	case SetQuality:
		e.setQuality(c.Quality)
	case CycleQuality:
		e.setQuality(e.quality.Cycle())
	case SetTracks:
		e.setTracks(c.Tracks, c.Start)
	case AddTracks:
		e.queue.Add(c.Tracks...)
	case ClearQueue:
		e.stopPlayback()
		e.queue.Clear()
	case RestoreQueue:
		e.restoreQueue(c)
	case LoginStart:
		e.loginStart(c.Kind)
	case LoginRedirect:
		e.loginRedirect(c.RawURL)
	case LoginCancel:
		if e.store.Pending(c.Kind) != nil {
			e.sup.cancelLogin()
			e.store.Fail(c.Kind)
		}
	case Logout:
		e.logout(c.Kind)
	case Restore:
		if c.RefreshToken != "" {
			e.refreshing[c.Kind] = true
			e.sup.refresh(e.auth, c.Kind, c.RefreshToken)
		}
	case MediaKey:
		e.mediaKey(c.Action)

	case streamResolved:
		e.onStreamResolved(c)
	case playbackStarted:
		e.onPlaybackStarted(c)
	case deviceLinkStarted:
		e.onDeviceLinkStarted(c)
	case loginPolled:
		e.onLoginPolled(c)
	case codeExchanged:
		e.onCodeExchanged(c)
	case tokenRefreshed:
		e.onTokenRefreshed(c)
	case refreshDue:
		e.onRefreshDue()
	case clearError:
		e.onClearError(c.seq)
	case trackFinished:
		e.onTrackFinished()
	case tick:
		e.onTick()
	}

	switch cmd.(type) {
	case SetTracks, AddTracks, ClearQueue, JumpTo, Next, Previous,
		ToggleShuffle, SetShuffle, CycleRepeat, SetRepeat, MediaKey, trackFinished:
		e.persistQueue()
	case SetVolume, AdjustVolume, SetQuality, CycleQuality:
		e.persistPlayer()
	}
}

// --- playback ---

func (e *Engine) play() {
	switch e.status {
	case StatusPlaying, StatusLoading:
		// Already the playback target; keep it.
	case StatusPaused:
		e.out.Play()
		e.status = StatusPlaying
	default:
		e.startLoading()
	}
}

func (e *Engine) pause() {
	if e.status != StatusPlaying {
		return
	}
	e.out.Pause()
	e.status = StatusPaused
}

func (e *Engine) stopPlayback() {
	e.gen++
	e.sup.cancelPlayback()
	e.out.Stop()
	e.status = StatusIdle
	e.position = 0
	e.duration = 0
	e.resumeAt = 0
}

// startLoading begins resolving the current queue track. It bumps the
// generation so completions for any previous target are dropped.
func (e *Engine) startLoading() {
	track := e.queue.Current()
	if track == nil {
		e.stopPlayback()
		return
	}
	if err := e.store.Require(session.KindStreaming); err != nil {
		e.failPlayback(fmt.Sprintf("streaming session: %v", err))
		return
	}

	e.gen++
	e.out.Stop()
	e.status = StatusLoading
	e.errText = ""
	e.position = 0
	e.duration = track.Duration
	e.sup.resolve(e.gen, e.provider, track.ID, e.quality)
}

func (e *Engine) advance(dir playlist.Direction) {
	wasActive := e.status.active()
	track := e.queue.Advance(dir)
	if track == nil {
		// End of queue with repeat off. Leave the transport as it is.
		return
	}
	if wasActive {
		e.startLoading()
	}
}

func (e *Engine) onStreamResolved(c streamResolved) {
	if c.gen != e.gen || e.status != StatusLoading {
		return
	}
	if c.err != nil {
		e.failPlayback(resolveErrorText(c.err))
		return
	}
	e.sup.startPlayback(c.gen, e.out, c.locator)
}

func (e *Engine) onPlaybackStarted(c playbackStarted) {
	if c.gen != e.gen || e.status != StatusLoading {
		return
	}
	if c.err != nil {
		e.failPlayback(playbackErrorText(c.err))
		return
	}
	if e.resumeAt > 0 {
		e.out.SeekTo(e.resumeAt)
		e.position = e.resumeAt
		e.resumeAt = 0
	}
	e.out.Play()
	if d := e.out.Duration(); d > 0 {
		e.duration = d
	}
	e.status = StatusPlaying
	e.prefetchNext()
}

// prefetchNext warms the catalog cache for the upcoming track so advancing
// does not pay a metadata round trip.
func (e *Engine) prefetchNext() {
	f, ok := e.provider.(metadataFetcher)
	if !ok {
		return
	}
	tracks := e.queue.Tracks()
	i := e.queue.CurrentIndex()
	if len(tracks) == 0 || i < 0 {
		return
	}
	next := i + 1
	if next >= len(tracks) {
		if e.queue.RepeatMode() != playlist.RepeatAll {
			return
		}
		next = 0
	}
	if next == i {
		return
	}
	e.sup.warmMetadata(f, tracks[next].ID)
}

func (e *Engine) onTrackFinished() {
	// Nothing can finish while a load is in flight; a finish signal seen
	// then came from the superseded track and must not advance again.
	if e.status != StatusPlaying && e.status != StatusPaused {
		return
	}
	if next := e.queue.Advance(playlist.DirNext); next == nil {
		e.stopPlayback()
		return
	}
	e.startLoading()
}

func (e *Engine) onTick() {
	if e.status != StatusPlaying {
		return
	}
	e.position = e.out.Position()
	if e.duration > 0 && e.position >= e.duration {
		e.onTrackFinished()
	}
}

func (e *Engine) seekTo(pos time.Duration) {
	if e.status != StatusPlaying && e.status != StatusPaused {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	e.out.SeekTo(pos)
	e.position = pos
}

func (e *Engine) setVolume(level int) {
	e.volume = clampVolume(level, e.volumeCap)
	e.out.SetVolume(float64(e.volume) / maxVolume)
}

func clampVolume(level, limit int) int {
	if level < 0 {
		return 0
	}
	if level > limit {
		return limit
	}
	return level
}

func volumeCeiling(max int) int {
	if max <= 0 || max > maxVolume {
		return maxVolume
	}
	return max
}

func (e *Engine) setQuality(q catalog.Quality) {
	if q == e.quality {
		return
	}
	e.quality = q
	if e.status.active() && e.queue.Current() != nil {
		// Re-resolve the current track at the new tier, resuming near the
		// old position.
		e.resumeAt = e.position
		e.startLoading()
	}
}

func (e *Engine) setTracks(tracks []playlist.Track, start int) {
	e.queue.Replace(tracks...)
	if len(tracks) == 0 {
		e.stopPlayback()
		return
	}
	if start > 0 {
		e.queue.JumpTo(start)
	}
	e.startLoading()
}

func (e *Engine) restoreQueue(c RestoreQueue) {
	if e.status.active() {
		return
	}
	e.queue.Replace(c.Tracks...)
	e.queue.SetRepeatMode(c.Repeat)
	if c.Index >= 0 {
		e.queue.JumpTo(c.Index)
	}
	if c.Shuffle {
		e.queue.SetShuffle(true)
	}
}

func (e *Engine) mediaKey(action MediaKeyAction) {
	switch action {
	case MediaKeyPlayPause:
		e.apply(TogglePlayPause{})
	case MediaKeyPlay:
		e.play()
	case MediaKeyPause:
		e.pause()
	case MediaKeyNext:
		e.advance(playlist.DirNext)
	case MediaKeyPrevious:
		e.advance(playlist.DirPrevious)
	case MediaKeyStop:
		e.stopPlayback()
	}
}

// --- sessions ---

func (e *Engine) loginStart(kind session.Kind) {
	switch kind {
	case session.KindAPI:
		if _, err := e.store.BeginAPILogin(e.auth.AuthorizeURL(), e.auth.ClientID(), e.auth.RedirectURI()); err != nil {
			e.reportError(fmt.Sprintf("start login: %v", err))
		}
	case session.KindStreaming:
		e.sup.startDeviceLink(e.auth)
	}
}

func (e *Engine) loginRedirect(rawURL string) {
	login := e.store.Pending(session.KindAPI)
	if login == nil {
		e.reportError("no login in progress")
		return
	}
	code, err := session.ParseRedirect(login, rawURL)
	if err != nil {
		e.reportError(fmt.Sprintf("redirect: %v", err))
		return
	}
	e.sup.exchangeCode(e.auth, code, login.Verifier())
}

func (e *Engine) onDeviceLinkStarted(c deviceLinkStarted) {
	if c.err != nil {
		e.store.Fail(session.KindStreaming)
		e.reportError(fmt.Sprintf("device link: %v", c.err))
		return
	}
	e.store.BeginDeviceLink(c.link)
	e.sup.pollDeviceLink(e.auth, c.link)
}

func (e *Engine) onLoginPolled(c loginPolled) {
	if c.err != nil {
		e.store.Fail(session.KindStreaming)
		if errors.Is(c.err, session.ErrLinkExpired) {
			e.reportError("device link expired, start again")
		} else {
			e.reportError(fmt.Sprintf("device link: %v", c.err))
		}
		return
	}
	e.activate(session.KindStreaming, c.tokens)
}

func (e *Engine) onCodeExchanged(c codeExchanged) {
	if c.err != nil {
		e.store.Fail(session.KindAPI)
		e.reportError(fmt.Sprintf("login: %v", c.err))
		return
	}
	e.activate(session.KindAPI, c.tokens)
}

func (e *Engine) onTokenRefreshed(c tokenRefreshed) {
	e.refreshing[c.kind] = false
	if c.err != nil {
		prev := e.store.Get(c.kind)
		if prev.Status == session.StatusActive && time.Now().Before(prev.ExpiresAt) {
			// Still valid; mark expired-pending-refresh but keep the
			// refresh token for the next attempt.
			e.store.MarkExpired(c.kind)
		} else {
			e.store.Fail(c.kind)
		}
		e.reportError(fmt.Sprintf("%s session refresh: %v", c.kind, c.err))
		e.armRefreshTimer()
		return
	}
	e.activate(c.kind, c.tokens)
}

func (e *Engine) activate(kind session.Kind, tokens session.Tokens) {
	e.store.Activate(kind, tokens)
	e.saveToken(kind, tokens.RefreshToken)
	e.armRefreshTimer()
}

func (e *Engine) logout(kind session.Kind) {
	if kind == session.KindStreaming && e.status.active() {
		e.stopPlayback()
	}
	e.store.Fail(kind)
	e.saveToken(kind, "")
	e.armRefreshTimer()
}

func (e *Engine) onRefreshDue() {
	for _, kind := range e.store.RefreshDue(time.Now()) {
		if e.refreshing[kind] {
			continue
		}
		// The session stays active while the refresh runs; the old access
		// token is still valid during the margin window.
		if token := e.store.RefreshToken(kind); token != "" {
			e.refreshing[kind] = true
			e.sup.refresh(e.auth, kind, token)
		}
	}
	e.armRefreshTimer()
}

func (e *Engine) armRefreshTimer() {
	next := e.store.NextRefreshAt()
	if !next.IsZero() && !next.After(time.Now()) && e.refreshInFlight() {
		// The in-flight refresh re-arms the timer when its result lands.
		return
	}
	e.sup.scheduleRefresh(next)
}

func (e *Engine) refreshInFlight() bool {
	for _, k := range session.Kinds {
		if e.refreshing[k] {
			return true
		}
	}
	return false
}

func (e *Engine) saveToken(kind session.Kind, token string) {
	if e.persist == nil {
		return
	}
	if err := e.persist.SaveRefreshToken(kind, token); err != nil {
		e.reportError(fmt.Sprintf("save %s token: %v", kind, err))
	}
}

func (e *Engine) persistQueue() {
	if e.persist == nil {
		return
	}
	e.persist.SaveQueue(state.QueueStateFrom(e.queue))
}

func (e *Engine) persistPlayer() {
	if e.persist == nil {
		return
	}
	if err := e.persist.SavePlayer(e.volume, e.quality.Name()); err != nil {
		e.reportError(fmt.Sprintf("save settings: %v", err))
	}
}

// --- errors ---

// failPlayback drops the transport to the error status; the loop returns to
// idle once the clear timer fires.
func (e *Engine) failPlayback(reason string) {
	e.out.Stop()
	e.status = StatusError
	e.errText = reason
	e.errSeq++
	e.sup.scheduleErrorClear(e.errSeq, defaultErrClearDelay)
}

// reportError surfaces a non-transport error without changing the playback
// status.
func (e *Engine) reportError(text string) {
	e.errText = text
	e.errSeq++
	e.sup.scheduleErrorClear(e.errSeq, defaultErrClearDelay)
}

func (e *Engine) onClearError(seq uint64) {
	if seq != e.errSeq {
		return
	}
	e.errText = ""
	if e.status == StatusError {
		e.status = StatusIdle
	}
}

func resolveErrorText(err error) string {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return "track not available"
	case errors.Is(err, catalog.ErrQuotaExceeded):
		return "stream quota exceeded"
	default:
		return fmt.Sprintf("resolve failed: %v", err)
	}
}

func playbackErrorText(err error) string {
	switch {
	case errors.Is(err, player.ErrDecode):
		return fmt.Sprintf("decode failed: %v", err)
	case errors.Is(err, player.ErrDevice):
		return fmt.Sprintf("audio device: %v", err)
	default:
		return fmt.Sprintf("playback failed: %v", err)
	}
}

// --- snapshots ---

func (e *Engine) publish() {
	snap := e.buildSnapshot()

	e.snapMu.Lock()
	e.snap = snap
	e.snapMu.Unlock()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.send(snap)
	}
	e.subsMu.Unlock()
}

func (e *Engine) buildSnapshot() Snapshot {
	snap := Snapshot{
		Status:     e.status,
		Err:        e.errText,
		Position:   e.position,
		Duration:   e.duration,
		Volume:     e.volume,
		Quality:    e.quality,
		QueueLen:   e.queue.Len(),
		QueueIndex: e.queue.CurrentIndex(),
		HasNext:    e.queue.HasNext(),
		Shuffle:    e.queue.Shuffle(),
		Repeat:     e.queue.RepeatMode(),
	}
	if t := e.queue.Current(); t != nil {
		copied := *t
		snap.Track = &copied
	}
	for _, kind := range session.Kinds {
		s := e.store.Get(kind)
		snap.Sessions[kind] = SessionInfo{
			Kind:      kind,
			Status:    s.Status,
			ExpiresAt: s.ExpiresAt,
		}
		if s.Login != nil && snap.Login == nil {
			snap.Login = &LoginPrompt{
				Kind:      kind,
				AuthURL:   s.Login.AuthURL,
				UserCode:  s.Login.UserCode,
				ExpiresAt: s.Login.ExpiresAt,
			}
		}
	}
	return snap
}
