package avplayer

import "errors"

// Construction-time errors. Runtime load failures (bad URL, no decodable
// streams) don't use these: they're captured as [ErrorKind] + a human string
// and surfaced through errorOccurred/Error()/ErrorString(), never as a Go
// error returned from a command (commands are non-blocking and void).
//
// ErrNilDemuxer is raised (via panic, since [WithDemuxer] has no error
// return) by passing a nil [Demuxer] to [WithDemuxer] — that's a
// programming error, not a runtime condition. ErrClosed is logged through
// the package [Logger] whenever a command runs on a [Player] after
// [Player.Close]; commands stay void, so this is the closest equivalent to
// the teacher's "closed" sentinel without changing every command's
// signature.
var (
	ErrNilDemuxer = errors.New("avplayer: demuxer must not be nil")
	ErrClosed     = errors.New("avplayer: player already closed")
)

const errNoCodecsFound = "No codecs found"
