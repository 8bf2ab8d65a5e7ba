package avplayer

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxQueuedBytes and demuxIdleSleep are the two backpressure constants from
// qavplayer.cpp's doDemux: a combined video+audio queue byte cap, and the
// poll interval used both when backpressured and when starved for packets.
const (
	maxQueuedBytes  = 15 * 1024 * 1024
	demuxIdleSleep  = 10 * time.Millisecond
	workerPollEvery = 20 * time.Millisecond
)

// controller is the playback state machine described in spec §4.4: it owns
// the demuxer session, the two packet queues, the wait gate, and the four
// long-running worker activities (loader, demux, video, audio), joined
// through an errgroup.Group rather than the sequential QFuture::waitForFinished
// chain the C++ original uses — errgroup.Wait natively waits for the whole
// set, so there's no need to join one future at a time the way the original
// does only because QFuture lacks a wait-for-all combinator.
//
// Player (player.go) is the public, documented façade over controller; this
// type holds the locks and the state machine spec §5 describes.
type controller struct {
	demux Demuxer

	dispatcher *Dispatcher
	handlers   handlerSet

	sessionMu sync.Mutex // serializes SetSource/Close against each other

	stateMu     sync.Mutex
	url         string
	state       State
	mediaStatus MediaStatus
	errKind     ErrorKind
	errStr      string
	seekable    bool
	duration    float64 // seconds
	frameRate   float64 // seconds per frame
	hasAudio    bool
	hasVideo    bool
	pendingPlay bool

	speedMu sync.Mutex
	speed   float64

	posMu           sync.Mutex
	position        float64
	pendingPosition float64
	hasPending      bool

	quitMu sync.Mutex
	quit   bool

	closedMu sync.Mutex
	closed   bool

	gate       *WaitGate
	videoQueue *PacketQueue
	audioQueue *PacketQueue
	videoSync  *Synchronizer
	audioSync  *Synchronizer

	decodersMu   sync.Mutex
	videoDecoder VideoDecoder
	audioDecoder AudioDecoder

	group *errgroup.Group

	ignoreAudio bool // set once at construction, read-only afterwards

	loopingMu sync.Mutex
	looping   bool
}

// Looping reports whether the session restarts from position 0 instead of
// stopping at EndOfMedia.
func (c *controller) Looping() bool {
	c.loopingMu.Lock()
	defer c.loopingMu.Unlock()
	return c.looping
}

// SetLooping configures the behavior above.
func (c *controller) SetLooping(v bool) {
	c.loopingMu.Lock()
	c.looping = v
	c.loopingMu.Unlock()
}

func newController(demux Demuxer, dispatcher *Dispatcher) *controller {
	return &controller{
		demux:      demux,
		dispatcher: dispatcher,
		speed:      1.0,
		gate:       NewWaitGate(),
		videoQueue: NewPacketQueue(),
		audioQueue: NewPacketQueue(),
		videoSync:  NewSynchronizer(),
		audioSync:  NewSynchronizer(),
	}
}

// --- small locked accessors -------------------------------------------------

func (c *controller) isQuitting() bool {
	c.quitMu.Lock()
	defer c.quitMu.Unlock()
	return c.quit
}

func (c *controller) setQuitting(v bool) {
	c.quitMu.Lock()
	c.quit = v
	c.quitMu.Unlock()
}

// isClosed reports whether [controller.Close] has already run. Commands
// called afterwards are void, so this just logs [ErrClosed] and lets the
// caller bail out instead of touching a torn-down session.
func (c *controller) isClosed() bool {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	if c.closed {
		pkgLogger.Printf("WARNING: %v", ErrClosed)
		return true
	}
	return false
}

func (c *controller) isSeeking() bool {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	return c.hasPending
}

func (c *controller) getPendingPlay() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.pendingPlay
}

func (c *controller) setPendingPlay(v bool) {
	c.stateMu.Lock()
	c.pendingPlay = v
	c.stateMu.Unlock()
}

func (c *controller) URL() string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.url
}

func (c *controller) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *controller) MediaStatus() MediaStatus {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.mediaStatus
}

func (c *controller) Seekable() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.seekable
}

func (c *controller) HasAudio() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.hasAudio
}

func (c *controller) HasVideo() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.hasVideo
}

func (c *controller) DurationMs() int64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return int64(c.duration * 1000)
}

func (c *controller) VideoFrameRate() float64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.frameRate
}

func (c *controller) Error() (ErrorKind, string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.errKind, c.errStr
}

func (c *controller) Speed() float64 {
	c.speedMu.Lock()
	defer c.speedMu.Unlock()
	return c.speed
}

// PositionMs implements spec §6: returns Duration while EndOfMedia, the
// pending seek target while a seek is outstanding, otherwise the last
// position a worker reported.
func (c *controller) PositionMs() int64 {
	if c.MediaStatus() == EndOfMedia {
		return c.DurationMs()
	}
	c.posMu.Lock()
	defer c.posMu.Unlock()
	if c.hasPending {
		return int64(c.pendingPosition * 1000)
	}
	return int64(c.position * 1000)
}

// --- setters that mutate then post a notification ---------------------------
//
// Every externally observable change is posted through the dispatcher, per
// spec §4.5, regardless of which goroutine triggered it: a command method
// called directly by the embedder is already running on "the caller's
// thread" in the C++ original's sense, but unlike Qt's same-thread direct
// signal emission, Go has no implicit same-thread shortcut, so everything
// funnels through Dispatcher.Post uniformly. This is a deliberate
// simplification over qavplayer.cpp, documented in DESIGN.md.

func (c *controller) setState(s State) (changed bool) {
	c.stateMu.Lock()
	changed = c.state != s
	if changed {
		c.state = s
	}
	c.stateMu.Unlock()
	if changed {
		pkgLogger.Printf("DEBUG: state -> %v", s)
		c.dispatcher.Post(func() { c.handlers.fireState(s) })
	}
	return changed
}

func (c *controller) setMediaStatus(s MediaStatus) {
	c.stateMu.Lock()
	changed := c.mediaStatus != s
	if changed {
		c.mediaStatus = s
	}
	c.stateMu.Unlock()
	if changed {
		pkgLogger.Printf("DEBUG: mediaStatus -> %v", s)
		c.dispatcher.Post(func() { c.handlers.fireMediaStatus(s) })
	}
}

func (c *controller) setSeekable(v bool) {
	c.stateMu.Lock()
	changed := c.seekable != v
	c.seekable = v
	c.stateMu.Unlock()
	if changed {
		c.dispatcher.Post(func() { c.handlers.fireSeekable(v) })
	}
}

func (c *controller) setDuration(seconds float64) {
	c.stateMu.Lock()
	changed := c.duration != seconds
	c.duration = seconds
	c.stateMu.Unlock()
	if changed {
		ms := int64(seconds * 1000)
		c.dispatcher.Post(func() { c.handlers.fireDuration(ms) })
	}
}

func (c *controller) setVideoFrameRate(v float64) {
	c.stateMu.Lock()
	changed := c.frameRate != v
	c.frameRate = v
	c.stateMu.Unlock()
	if changed {
		c.dispatcher.Post(func() { c.handlers.fireVideoFrameRate(v) })
	}
}

func (c *controller) setStreams(hasVideo, hasAudio bool) {
	c.stateMu.Lock()
	c.hasVideo = hasVideo
	c.hasAudio = hasAudio
	c.stateMu.Unlock()
}

func (c *controller) setURL(url string) {
	c.stateMu.Lock()
	c.url = url
	c.stateMu.Unlock()
}

func (c *controller) setError(kind ErrorKind, str string) {
	c.stateMu.Lock()
	if c.errKind == kind && c.errStr == str {
		c.stateMu.Unlock()
		return
	}
	c.errKind = kind
	c.errStr = str
	url := c.url
	c.stateMu.Unlock()

	pkgLogger.Printf("WARNING: error: %s: %s", url, str)
	c.dispatcher.Post(func() { c.handlers.fireError(kind, str) })
	c.setMediaStatus(InvalidMedia)
}

// clearError resets error state back to NoError, e.g. at the start of a new
// SetSource, so a failed prior load doesn't linger past it.
func (c *controller) clearError() {
	c.stateMu.Lock()
	changed := c.errKind != NoError || c.errStr != ""
	c.errKind = NoError
	c.errStr = ""
	c.stateMu.Unlock()
	if changed {
		c.dispatcher.Post(func() { c.handlers.fireError(NoError, "") })
	}
}

// setWait closes or opens the gate and, per spec §4.3, additionally wakes
// both packet queues' waiters when closing it, so a consumer blocked in
// PacketQueue.Dequeue rechecks the gate instead of sleeping through it.
func (c *controller) setWait(v bool) {
	c.gate.SetWait(v)
	if v {
		c.videoQueue.WakeAll()
		c.audioQueue.WakeAll()
	}
}

// --- commands ----------------------------------------------------------------

// SetSource tears down any current session and, if url is non-empty, starts
// loading a new one. Setting the same url twice (including empty-to-empty)
// is a no-op (spec §8, §12).
func (c *controller) SetSource(url string) {
	if c.isClosed() {
		return
	}
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.URL() == url {
		return
	}

	c.terminateLocked()
	c.clearError()
	c.setURL(url)
	c.dispatcher.Post(func() { c.handlers.fireSourceChanged(url) })

	if url == "" {
		c.setMediaStatus(NoMedia)
		c.setStreams(false, false)
		c.setSeekable(false)
		c.setDuration(0)
		c.setVideoFrameRate(0)
		c.updatePosition(0)
		return
	}

	c.setWait(true)
	c.setQuitting(false)
	c.setMediaStatus(LoadingMedia)

	group := &errgroup.Group{}
	c.group = group
	group.Go(func() error { return c.loader(url) })
}

// Close tears the current session down permanently. The controller must not
// be used afterwards.
func (c *controller) Close() {
	if c.isClosed() {
		return
	}
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.terminateLocked()

	c.closedMu.Lock()
	c.closed = true
	c.closedMu.Unlock()
}

// terminateLocked implements spec §4.4's teardown; caller must hold sessionMu.
func (c *controller) terminateLocked() {
	c.setState(Stopped)
	c.demux.Abort(true)
	c.setQuitting(true)
	c.setPendingPlay(false)

	c.posMu.Lock()
	c.hasPending = false
	c.posMu.Unlock()

	c.setWait(false)

	c.videoQueue.Clear()
	c.videoQueue.Abort(true)
	c.audioQueue.Clear()
	c.audioQueue.Abort(true)

	if c.group != nil {
		_ = c.group.Wait()
		c.group = nil
	}
	c.demux.Unload()
	c.videoSync.Reset()
	c.audioSync.Reset()
}

func (c *controller) Play() {
	if c.isClosed() || c.URL() == "" || c.MediaStatus() == InvalidMedia {
		return
	}

	c.setState(Playing)
	switch c.MediaStatus() {
	case EndOfMedia:
		if !c.isSeeking() {
			c.playFromEnd()
		}
	case LoadedMedia:
		// fall through to setWait(false) below
	default:
		c.setPendingPlay(true)
		return
	}

	c.setWait(false)
	c.setPendingPlay(false)
}

// playFromEnd mirrors qavplayer.cpp's play(): issue the seek-to-zero, then
// force mediaStatus back to LoadedMedia immediately rather than waiting for
// updatePosition to observe the seek complete — the bounds-checked public
// Seek entry point isn't reused here since duration may be mid-update.
func (c *controller) playFromEnd() {
	c.seekInternal(0)
	c.setMediaStatus(LoadedMedia)
}

func (c *controller) Pause() {
	if c.isClosed() {
		return
	}
	changed := c.setState(Paused)
	c.setMediaStatus(PausingMedia)
	if changed {
		c.setWait(false)
	} else {
		c.setWait(true)
	}
	c.setPendingPlay(false)
}

func (c *controller) StepForward() {
	if c.isClosed() {
		return
	}
	c.setState(Paused)
	c.setMediaStatus(SteppingMedia)
	c.setWait(false)
	c.setPendingPlay(false)
}

func (c *controller) Stop() {
	if c.isClosed() {
		return
	}
	c.setState(Stopped)
	if c.HasVideo() {
		c.dispatcher.Post(func() { c.handlers.fireVideoFrame(VideoFrame{}) })
	}
	c.setWait(true)
	c.setPendingPlay(false)
}

func (c *controller) seekInternal(posSeconds float64) {
	c.posMu.Lock()
	c.pendingPosition = posSeconds
	c.position = posSeconds
	c.hasPending = true
	c.posMu.Unlock()

	c.setMediaStatus(SeekingMedia)
	c.setWait(false)
}

// Seek rejects out-of-range positions silently, per spec §4.4/§7.
func (c *controller) Seek(posMs int64) {
	if c.isClosed() {
		return
	}
	dur := c.DurationMs()
	if posMs < 0 || (dur > 0 && posMs > dur) {
		return
	}
	c.seekInternal(float64(posMs) / 1000.0)
}

func (c *controller) SetSpeed(r float64) {
	if c.isClosed() || r <= 0 {
		return
	}
	c.speedMu.Lock()
	if c.speed == r {
		c.speedMu.Unlock()
		return
	}
	c.speed = r
	c.speedMu.Unlock()

	// Rebase both synchronizers so no in-flight frame is forced backward in
	// wall time (spec §4.2).
	c.videoSync.Rebase(c.videoQueue.PTS())
	c.audioSync.Rebase(c.audioQueue.PTS())

	c.dispatcher.Post(func() { c.handlers.fireSpeedChanged(r) })
}

// updatePosition implements the status-transition table from spec §4.4,
// grounded verbatim on qavplayer.cpp's updatePosition. Runs on whichever
// worker goroutine observed the new position.
func (c *controller) updatePosition(p float64) {
	c.posMu.Lock()
	c.position = p
	hasPending := c.hasPending
	c.posMu.Unlock()

	if !hasPending {
		switch c.MediaStatus() {
		case SeekingMedia:
			c.setMediaStatus(LoadedMedia)
			pos := c.PositionMs()
			c.dispatcher.Post(func() { c.handlers.fireSeeked(pos) })
		case PausingMedia:
			c.setMediaStatus(LoadedMedia)
			pos := c.PositionMs()
			c.dispatcher.Post(func() { c.handlers.firePaused(pos) })
		case SteppingMedia:
			c.setMediaStatus(LoadedMedia)
			pos := c.PositionMs()
			c.dispatcher.Post(func() { c.handlers.fireStepped(pos) })
		}

		st := c.State()
		if !c.isQuitting() && (st == Paused || st == Stopped) {
			c.setWait(true)
		}
	}
}

// takePendingPosition snapshots the pending seek target without clearing it
// (the demux worker clears it only if it's still the same snapshot once the
// seek attempt finishes).
func (c *controller) takePendingPosition() (float64, bool) {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	if !c.hasPending {
		return 0, false
	}
	return c.pendingPosition, true
}

func (c *controller) clearPendingPositionIfStill(pos float64) {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	if c.hasPending && c.pendingPosition == pos {
		c.hasPending = false
	}
}
