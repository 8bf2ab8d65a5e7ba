package avplayer

import (
	"sync"
	"time"

	"github.com/erparts/reisen"
	"github.com/hajimehoshi/ebiten/v2"
)

// reisenDemuxer is the production [Demuxer] implementation, wrapping
// github.com/erparts/reisen the same way go-avebi's controllers do (see
// controller_no_audio.go / controller_yes_audio.go), but exposing the
// generic demux/seek/read contract spec §6 asks for instead of go-avebi's
// pull-by-position model.
type reisenDemuxer struct {
	mu      sync.Mutex
	media   *reisen.Media
	video   *reisen.VideoStream
	audio   *reisen.AudioStream
	aborted bool
	atEof   bool
}

// newReisenDemuxer returns an unopened demuxer; call Load to open a URL.
func newReisenDemuxer() *reisenDemuxer {
	return &reisenDemuxer{}
}

func (d *reisenDemuxer) Load(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	media, err := reisen.NewMedia(url)
	if err != nil {
		return err
	}

	videoStreams := media.VideoStreams()
	audioStreams := media.AudioStreams()
	if len(videoStreams) == 0 && len(audioStreams) == 0 {
		return errNoStreamsErr{}
	}

	if err := media.OpenDecode(); err != nil {
		return err
	}

	var video *reisen.VideoStream
	if len(videoStreams) > 0 {
		video = videoStreams[0]
		if err := video.Open(); err != nil {
			return err
		}
	}
	var audio *reisen.AudioStream
	if len(audioStreams) > 0 {
		audio = audioStreams[0]
		if err := audio.Open(); err != nil {
			return err
		}
	}

	d.media = media
	d.video = video
	d.audio = audio
	d.atEof = false
	return nil
}

func (d *reisenDemuxer) Unload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.media == nil {
		return
	}
	if d.video != nil {
		_ = d.video.Close()
	}
	if d.audio != nil {
		_ = d.audio.Close()
	}
	_ = d.media.CloseDecode()
	d.media.Close()
	d.media, d.video, d.audio = nil, nil, nil
}

func (d *reisenDemuxer) Abort(v bool) {
	d.mu.Lock()
	d.aborted = v
	d.mu.Unlock()
}

func (d *reisenDemuxer) Read() (*Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aborted || d.media == nil {
		return nil, nil
	}

	pkt, found, err := d.media.ReadPacket()
	if err != nil {
		return nil, err
	}
	if !found {
		d.atEof = true
		return nil, nil
	}

	streamIndex := -1
	switch pkt.Type() {
	case reisen.StreamVideo:
		if d.video != nil {
			streamIndex = d.video.Index()
		}
	case reisen.StreamAudio:
		if d.audio != nil {
			streamIndex = d.audio.Index()
		}
	}
	return &Packet{StreamIndex: streamIndex, Size: len(pkt.Data()), payload: pkt}, nil
}

func (d *reisenDemuxer) Seek(posSeconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pos := time.Duration(posSeconds * float64(time.Second))
	if d.video != nil {
		if err := d.video.Rewind(pos); err != nil {
			return err
		}
	}
	if d.audio != nil {
		if err := d.audio.Rewind(pos); err != nil {
			return err
		}
	}
	d.atEof = false
	return nil
}

func (d *reisenDemuxer) Eof() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.atEof
}

func (d *reisenDemuxer) Duration() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	var dur time.Duration
	if d.video != nil {
		if vd, err := d.video.Duration(); err == nil && vd > dur {
			dur = vd
		}
	}
	if d.audio != nil {
		if ad, err := d.audio.Duration(); err == nil && ad > dur {
			dur = ad
		}
	}
	return dur.Seconds()
}

func (d *reisenDemuxer) Seekable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.media != nil
}

func (d *reisenDemuxer) FrameRate() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.video == nil {
		return 0
	}
	num, denom := d.video.FrameRate()
	if num == 0 {
		return 0
	}
	return float64(denom) / float64(num)
}

func (d *reisenDemuxer) VideoStreamIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.video == nil {
		return -1
	}
	return d.video.Index()
}

func (d *reisenDemuxer) AudioStreamIndex() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.audio == nil {
		return -1
	}
	return d.audio.Index()
}

// VideoDecoder returns a [VideoDecoder] bound to the loaded video stream, or
// nil if the source has none. Must be called after a successful Load.
func (d *reisenDemuxer) VideoDecoder() VideoDecoder {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.video == nil {
		return nil
	}
	return newReisenVideoDecoder(d.video, &d.mu)
}

// AudioDecoder returns an [AudioDecoder] bound to the loaded audio stream,
// or nil if the source has none. speed is consulted on every decoded frame
// to fold the current playback speed into the reported sample rate.
func (d *reisenDemuxer) AudioDecoder(speed func() float64) AudioDecoder {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.audio == nil {
		return nil
	}
	return &reisenAudioDecoder{stream: d.audio, speed: speed, mu: &d.mu}
}

// reisenVideoDecoder implements [VideoDecoder] on top of a reisen video
// stream. One packet maps to zero or one frames, matching go-avebi's
// internalReadVideoFrame loop, but here just the single-packet step: the
// video worker is the one looping over the queue.
//
// The destination image is reused across calls, the same way go-avebi's
// Player.currentFrame is (in go-avebi's own player.go): callers that need
// to retain a frame must copy out of it before the next DecodeVideo call.
//
// mu is the demuxer's own lock, shared rather than copied: reisen's
// stream.ReadVideoFrame/ReadAudioFrame pull from the same underlying libav
// decode context that reisenDemuxer.Read's ReadPacket does, and the demux
// worker calls Read concurrently with the video/audio workers calling
// DecodeVideo/DecodeAudio on their own goroutines. Locking here serializes
// those calls against Read instead of assuming libav's context is safe for
// concurrent use across goroutines, which it is not.
type reisenVideoDecoder struct {
	stream *reisen.VideoStream
	img    *ebiten.Image
	mu     *sync.Mutex
}

func newReisenVideoDecoder(stream *reisen.VideoStream, mu *sync.Mutex) *reisenVideoDecoder {
	return &reisenVideoDecoder{
		stream: stream,
		img:    ebiten.NewImage(stream.Width(), stream.Height()),
		mu:     mu,
	}
}

func (c *reisenVideoDecoder) DecodeVideo(pkt *Packet) (*VideoFrame, bool, error) {
	if c.stream == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	frame, found, err := c.stream.ReadVideoFrame()
	c.mu.Unlock()
	if err != nil || !found || frame == nil {
		return nil, false, err
	}
	pts, err := frame.PresentationOffset()
	if err != nil {
		return nil, false, err
	}
	c.img.WritePixels(frame.Data())
	return &VideoFrame{PTS: pts.Seconds(), Image: c.img}, true, nil
}

// reisenAudioDecoder mirrors reisenVideoDecoder; see its doc comment for why
// mu is shared with the demuxer rather than private to the decoder.
type reisenAudioDecoder struct {
	stream *reisen.AudioStream
	speed  func() float64
	mu     *sync.Mutex
}

func (c *reisenAudioDecoder) DecodeAudio(pkt *Packet) (*AudioFrame, bool, error) {
	if c.stream == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	frame, found, err := c.stream.ReadAudioFrame()
	c.mu.Unlock()
	if err != nil || !found || frame == nil {
		return nil, false, err
	}
	pts, err := frame.PresentationOffset()
	if err != nil {
		return nil, false, err
	}
	rate := c.stream.SampleRate()
	if c.speed != nil {
		rate = int(float64(rate) * c.speed())
	}
	return &AudioFrame{PTS: pts.Seconds(), SampleRate: rate, Data: frame.Data()}, true, nil
}

type errNoStreamsErr struct{}

func (errNoStreamsErr) Error() string { return errNoCodecsFound }
