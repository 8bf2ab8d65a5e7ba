package avplayer

// Option configures a [Player] at construction time.
type Option func(*options)

type options struct {
	demux       Demuxer
	logger      Logger
	ignoreAudio bool
}

// WithoutAudio configures the player to ignore any audio stream the source
// has, the same way the teacher's NewPlayerWithoutAudio does: no audio
// worker is started and no audioFrame notification is ever fired.
func WithoutAudio() Option {
	return func(o *options) { o.ignoreAudio = true }
}

// WithDemuxer overrides the production reisen-backed [Demuxer], mainly for
// tests that want to drive the controller without decoding real media.
// Passing a nil Demuxer panics with [ErrNilDemuxer]; omit the option
// entirely to use the default instead.
func WithDemuxer(d Demuxer) Option {
	if d == nil {
		panic(ErrNilDemuxer)
	}
	return func(o *options) { o.demux = d }
}

// WithLogger overrides the package-level logger, equivalent to calling
// [SetLogger] before construction.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}
