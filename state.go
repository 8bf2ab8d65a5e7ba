package avplayer

// State is the coarse playback state: [Stopped], [Playing] or [Paused].
//
// Notice that even when Playing, decoded frames are only ever delivered
// through the videoFrame/audioFrame notifications; the controller never
// touches a rendering surface or audio device itself.
type State uint8

const (
	Stopped State = iota
	Playing
	Paused
)

// Returns a string representation of the state ("Stopped", "Playing",
// "Paused", "Unknown").
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// MediaStatus tracks the lifecycle of the currently loaded source, separately
// from [State]. See spec §3/§4.4 for the full transition table.
type MediaStatus uint8

const (
	NoMedia MediaStatus = iota
	LoadingMedia
	LoadedMedia
	SeekingMedia
	PausingMedia
	SteppingMedia
	EndOfMedia
	InvalidMedia
)

func (s MediaStatus) String() string {
	switch s {
	case NoMedia:
		return "NoMedia"
	case LoadingMedia:
		return "LoadingMedia"
	case LoadedMedia:
		return "LoadedMedia"
	case SeekingMedia:
		return "SeekingMedia"
	case PausingMedia:
		return "PausingMedia"
	case SteppingMedia:
		return "SteppingMedia"
	case EndOfMedia:
		return "EndOfMedia"
	case InvalidMedia:
		return "InvalidMedia"
	default:
		return "Unknown"
	}
}

// ErrorKind distinguishes the handful of error classes the controller can
// surface through errorOccurred/Error(). There is no generic "decode error":
// per spec §7, decode failures are treated as "need next packet" and never
// surface.
type ErrorKind uint8

const (
	NoError ErrorKind = iota
	ResourceError
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "NoError"
	case ResourceError:
		return "ResourceError"
	default:
		return "Unknown"
	}
}
