package avplayer

import (
	"errors"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
)

// fakeDemuxer is an in-memory [Demuxer] used by the controller/player tests
// so they never touch real media decoding. It emits a fixed, pre-built
// sequence of packets (small pts deltas, so pacing tests settle quickly)
// and supports the same load/seek/abort failure injection hooks a real
// session exercises.
type fakeDemuxer struct {
	mu sync.Mutex

	loadErr error

	hasVideo  bool
	hasAudio  bool
	seekable  bool
	duration  float64
	frameRate float64

	packets []*Packet // built once at construction, replayed front-to-back
	idx     int
	eof     bool
	aborted bool

	seekCount   int
	lastSeekPos float64
	seekErr     error
	readErr     error
}

const (
	fakeVideoStream = 0
	fakeAudioStream = 1
)

func newFakePacket(stream int, pts float64) *Packet {
	return &Packet{StreamIndex: stream, Size: 16, payload: pts}
}

func (d *fakeDemuxer) Load(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return d.loadErr
	}
	d.idx = 0
	d.eof = false
	d.aborted = false
	return nil
}

func (d *fakeDemuxer) Unload() {}

func (d *fakeDemuxer) Abort(v bool) {
	d.mu.Lock()
	d.aborted = v
	d.mu.Unlock()
}

func (d *fakeDemuxer) Read() (*Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aborted {
		return nil, nil
	}
	if d.readErr != nil {
		return nil, d.readErr
	}
	if d.idx >= len(d.packets) {
		d.eof = true
		return nil, nil
	}
	pkt := d.packets[d.idx]
	d.idx++
	return pkt, nil
}

// Seek repositions to the first packet at or after posSeconds across the
// whole pre-built sequence, the same way a real demuxer lands on the
// nearest keyframe at or after the requested target instead of producing
// packets out of thin air.
func (d *fakeDemuxer) Seek(posSeconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seekErr != nil {
		return d.seekErr
	}
	d.seekCount++
	d.lastSeekPos = posSeconds
	d.idx = len(d.packets)
	for i, pkt := range d.packets {
		if pkt.payload.(float64) >= posSeconds {
			d.idx = i
			break
		}
	}
	d.eof = false
	return nil
}

func (d *fakeDemuxer) Eof() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eof
}

func (d *fakeDemuxer) Duration() float64  { return d.duration }
func (d *fakeDemuxer) Seekable() bool     { return d.seekable }
func (d *fakeDemuxer) FrameRate() float64 { return d.frameRate }

func (d *fakeDemuxer) VideoStreamIndex() int {
	if d.hasVideo {
		return fakeVideoStream
	}
	return -1
}

func (d *fakeDemuxer) AudioStreamIndex() int {
	if d.hasAudio {
		return fakeAudioStream
	}
	return -1
}

func (d *fakeDemuxer) VideoDecoder() VideoDecoder {
	if !d.hasVideo {
		return nil
	}
	return &fakeVideoDecoder{}
}

func (d *fakeDemuxer) AudioDecoder(speed func() float64) AudioDecoder {
	if !d.hasAudio {
		return nil
	}
	return &fakeAudioDecoder{speed: speed}
}

type fakeVideoDecoder struct{}

func (fakeVideoDecoder) DecodeVideo(pkt *Packet) (*VideoFrame, bool, error) {
	pts := pkt.payload.(float64)
	return &VideoFrame{PTS: pts, Image: ebiten.NewImage(1, 1)}, true, nil
}

type fakeAudioDecoder struct{ speed func() float64 }

func (d fakeAudioDecoder) DecodeAudio(pkt *Packet) (*AudioFrame, bool, error) {
	pts := pkt.payload.(float64)
	rate := 44100
	if d.speed != nil {
		rate = int(float64(rate) * d.speed())
	}
	return &AudioFrame{PTS: pts, SampleRate: rate, Data: []byte{0, 0}}, true, nil
}

var errFakeLoad = errors.New("fake: load failed")
