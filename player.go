package avplayer

// A [Player] represents a video player, typically also including audio.
//
// The player is a thin, documented façade over the internal [controller]
// state machine: construction wires up a [Demuxer] (the production one wraps
// [github.com/erparts/reisen]), and every public method here either reads a
// property or posts a command to it. Decoded frames and every other
// observable change arrive through the handlers registered with the OnXxx
// methods, delivered from whatever goroutine calls [Player.Pump] or
// [Player.PumpOne] — never directly from a worker goroutine.
//
// Usage:
//   - Create one with [NewPlayer].
//   - Register the OnXxx handlers you care about.
//   - Call [Player.SetSource] to start loading, then [Player.Play].
//   - Call [Player.Pump] once per tick of your own event loop (an ebiten
//     Game.Update, say) to have queued handlers run.
//   - [Player.Close] releases the underlying demuxer; do not reuse a Player
//     afterwards.
type Player struct {
	c *controller
}

// NewPlayer constructs an idle player with no source loaded. Pass
// [WithDemuxer] to inject a non-default [Demuxer] (tests do this to avoid
// depending on real media decoding); otherwise the production
// reisen-backed demuxer is used.
func NewPlayer(opts ...Option) *Player {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger != nil {
		pkgLogger = o.logger
	}

	demux := o.demux
	if demux == nil {
		demux = newReisenDemuxer()
	}

	c := newController(demux, NewDispatcher())
	c.ignoreAudio = o.ignoreAudio
	return &Player{c: c}
}

// SetLooping configures whether the source should seek back to the start
// and keep playing when it naturally reaches the end, instead of stopping.
func (p *Player) SetLooping(v bool) { p.c.SetLooping(v) }

// Looping reports the current looping configuration.
func (p *Player) Looping() bool { return p.c.Looping() }

// --- handler registration ---------------------------------------------------

// OnSourceChanged registers the callback fired whenever [Player.SetSource]
// successfully starts tearing down the old session and adopting the new URL.
func (p *Player) OnSourceChanged(fn func(url string)) { p.c.handlers.sourceChanged = fn }

// OnStateChanged registers the callback fired on every [State] transition.
func (p *Player) OnStateChanged(fn func(s State)) { p.c.handlers.stateChanged = fn }

// OnMediaStatusChanged registers the callback fired on every [MediaStatus]
// transition.
func (p *Player) OnMediaStatusChanged(fn func(s MediaStatus)) { p.c.handlers.mediaStatusChanged = fn }

// OnSeekableChanged registers the callback fired when [Player.IsSeekable]
// changes, typically right after a source finishes loading.
func (p *Player) OnSeekableChanged(fn func(v bool)) { p.c.handlers.seekableChanged = fn }

// OnDurationChanged registers the callback fired when [Player.Duration]
// changes, in milliseconds.
func (p *Player) OnDurationChanged(fn func(durationMs int64)) { p.c.handlers.durationChanged = fn }

// OnVideoFrameRateChanged registers the callback fired when
// [Player.VideoFrameRate] changes, in seconds per frame.
func (p *Player) OnVideoFrameRateChanged(fn func(spf float64)) { p.c.handlers.frameRateChanged = fn }

// OnSpeedChanged registers the callback fired whenever [Player.SetSpeed]
// actually changes the playback speed.
func (p *Player) OnSpeedChanged(fn func(r float64)) { p.c.handlers.speedChanged = fn }

// OnError registers the callback fired whenever a resource error occurs
// (a bad source, a source with no decodable streams, or a demuxer read
// failure); see [Player.Error]. Decode failures of single packets are
// skipped and do not fire it.
func (p *Player) OnError(fn func(kind ErrorKind, message string)) { p.c.handlers.errorOccurred = fn }

// OnVideoFrame registers the callback fired for each decoded, paced video
// frame. The frame's Image is reused between calls: copy it if you need to
// keep it past the handler's return.
func (p *Player) OnVideoFrame(fn func(f VideoFrame)) { p.c.handlers.videoFrame = fn }

// OnAudioFrame registers the callback fired for each decoded, paced audio
// frame, carrying raw PCM and a sample rate hint already adjusted for the
// current playback speed.
func (p *Player) OnAudioFrame(fn func(f AudioFrame)) { p.c.handlers.audioFrame = fn }

// OnSeeked registers the callback fired once a [Player.Seek] lands.
func (p *Player) OnSeeked(fn func(posMs int64)) { p.c.handlers.seeked = fn }

// OnPaused registers the callback fired once a [Player.Pause] request has
// latched its one frame and settled.
func (p *Player) OnPaused(fn func(posMs int64)) { p.c.handlers.paused = fn }

// OnStepped registers the callback fired once a [Player.StepForward]
// request has delivered its one frame.
func (p *Player) OnStepped(fn func(posMs int64)) { p.c.handlers.stepped = fn }

// --- dispatch ----------------------------------------------------------------

// Pump runs every handler queued since the last Pump/PumpOne call, in order,
// on the calling goroutine. Call this once per tick of your own event loop.
func (p *Player) Pump() { p.c.dispatcher.Pump() }

// PumpOne runs at most one queued handler and reports whether it ran one.
func (p *Player) PumpOne() bool { return p.c.dispatcher.PumpOne() }

// --- commands ----------------------------------------------------------------

// SetSource tears down any currently loaded media and begins loading url.
// Passing the same URL already loaded is a no-op; passing "" unloads the
// current source without loading a new one.
func (p *Player) SetSource(url string) { p.c.SetSource(url) }

// Play starts or resumes playback. If called while a source is still
// loading, playback starts automatically once loading finishes.
func (p *Player) Play() { p.c.Play() }

// Pause freezes playback once the next frame has been delivered. All streams
// share one gate, so whichever stream delivers first freezes the others; the
// other stream is not guaranteed a frame of its own.
func (p *Player) Pause() { p.c.Pause() }

// Stop halts playback. Position is left where it was, and the next
// [Player.Play] resumes from there rather than from position 0.
func (p *Player) Stop() { p.c.Stop() }

// StepForward advances exactly one video frame while paused.
func (p *Player) StepForward() { p.c.StepForward() }

// Seek requests a reposition to posMs milliseconds from the start.
// Out-of-range requests are silently ignored.
func (p *Player) Seek(posMs int64) { p.c.Seek(posMs) }

// SetSpeed changes the playback speed multiplier. Values <= 0 are ignored.
func (p *Player) SetSpeed(r float64) { p.c.SetSpeed(r) }

// Close releases the current source and its decoders. The player must not
// be used afterwards.
func (p *Player) Close() { p.c.Close() }

// --- getters -----------------------------------------------------------------

// Source returns the currently configured URL, or "" if none.
func (p *Player) Source() string { return p.c.URL() }

// State returns the current coarse [State].
func (p *Player) State() State { return p.c.State() }

// MediaStatus returns the current [MediaStatus].
func (p *Player) MediaStatus() MediaStatus { return p.c.MediaStatus() }

// IsSeekable reports whether the current source supports seeking.
func (p *Player) IsSeekable() bool { return p.c.Seekable() }

// HasVideo reports whether the current source has a video stream.
func (p *Player) HasVideo() bool { return p.c.HasVideo() }

// HasAudio reports whether the current source has an audio stream.
func (p *Player) HasAudio() bool { return p.c.HasAudio() }

// Duration returns the source duration in milliseconds, or 0 if unknown.
func (p *Player) Duration() int64 { return p.c.DurationMs() }

// Position returns the current playback position in milliseconds.
func (p *Player) Position() int64 { return p.c.PositionMs() }

// Speed returns the current playback speed multiplier.
func (p *Player) Speed() float64 { return p.c.Speed() }

// VideoFrameRate returns the source's video frame interval in seconds per
// frame, or 0 if unknown or there is no video stream.
func (p *Player) VideoFrameRate() float64 { return p.c.VideoFrameRate() }

// Error returns the last error kind and message. Kind is [NoError] if
// nothing has gone wrong.
func (p *Player) Error() (ErrorKind, string) { return p.c.Error() }
