package avplayer

import "github.com/hajimehoshi/ebiten/v2"

// VideoFrame is one decoded video frame, carrying its presentation
// timestamp in seconds from session start. The Image is reused by the
// codec between calls: copy out of it before the next decode if you need
// to keep it.
type VideoFrame struct {
	PTS   float64
	Image *ebiten.Image
}

// AudioFrame is one decoded audio frame: raw interleaved PCM plus the
// sample rate to play it back at. SampleRate already has the current
// playback speed folded in as a pitch-preserving-less resample hint (see
// spec §4.2's open question); the data itself is never resampled by this
// package.
type AudioFrame struct {
	PTS        float64
	SampleRate int
	Data       []byte
}

// Demuxer is the external collaborator contract from spec §6: opens a URL,
// reads packets, and seeks. The production implementation
// (reisenDemuxer, in reisen_demuxer.go) wraps github.com/erparts/reisen;
// tests inject a fake.
type Demuxer interface {
	Load(url string) error
	Unload()
	Abort(v bool)
	// Read returns the next packet, or (nil, nil) if none is available right
	// now (caller should check Eof to distinguish "wait and retry" from
	// "stream exhausted").
	Read() (*Packet, error)
	Seek(posSeconds float64) error
	Eof() bool
	Duration() float64
	Seekable() bool
	FrameRate() float64 // seconds per frame, 0 if unknown
	VideoStreamIndex() int
	AudioStreamIndex() int

	// VideoDecoder/AudioDecoder return the frame decoders bound to whatever
	// was opened by the most recent successful Load, or nil if that stream
	// doesn't exist. speed is consulted by AudioDecoder on every frame to
	// fold the current playback speed into the reported sample rate (spec
	// §4.2/§9's resample-hint open question).
	VideoDecoder() VideoDecoder
	AudioDecoder(speed func() float64) AudioDecoder
}

// VideoDecoder decodes a video packet into zero or one frame, per spec §6's
// FrameCodec contract ("given a packet ... returns true with a populated
// frame, or false to request the next packet").
type VideoDecoder interface {
	DecodeVideo(pkt *Packet) (*VideoFrame, bool, error)
}

// AudioDecoder is VideoDecoder's audio counterpart.
type AudioDecoder interface {
	DecodeAudio(pkt *Packet) (*AudioFrame, bool, error)
}
