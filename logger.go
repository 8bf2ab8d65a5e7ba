package avplayer

import "log"

var pkgLogger Logger = log.Default()

// Logger is the minimal sink the controller writes trace and warning lines
// to. State transitions are logged at "DEBUG:", problems (a demuxer seek
// failure, a skipped packet decode failure, a resource error, a command on a
// closed player) at "WARNING:". Out-of-range seeks are rejected without a log
// line.
type Logger interface {
	Printf(format string, v ...any)
}

// SetLogger overrides the package-level logger. Not safe to call while a
// player is running workers.
func SetLogger(logger Logger) {
	pkgLogger = logger
}
