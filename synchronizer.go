package avplayer

import (
	"sync"
	"time"
)

// avSyncTolerance is how far a video frame's pts may drift from the audio
// clock before the video worker drops it to reconverge, per spec §4.2.
const avSyncTolerance = 40 * time.Millisecond

// Synchronizer paces emission of decoded frames to wall time. One instance
// is owned by each stream worker (video, audio); it only does the timing
// math — dequeuing, decoding and popping packets is the worker's job, so
// the pacing logic here can be unit-tested without a queue or codec at all.
//
// Grounded on the wallBase/ptsBase anchoring in controller_stream.go's
// scheduleLoop, generalized from a fixed live-stream rate to an arbitrary,
// caller-adjustable playback speed.
type Synchronizer struct {
	mu         sync.Mutex
	haveAnchor bool
	anchorWall time.Time
	anchorPTS  float64
}

// NewSynchronizer returns a Synchronizer with no anchor yet; the first call
// to Due establishes one.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Reset drops the current anchor. The next call to Due re-anchors from
// scratch. Call after a seek or a stop/restart.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.haveAnchor = false
}

// Rebase pins the anchor so that pts is due "now", without forcing any
// frame backward in wall time. Call whenever speed changes mid-playback,
// using the pts of the most recently served frame.
func (s *Synchronizer) Rebase(pts float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchorWall = time.Now()
	s.anchorPTS = pts
	s.haveAnchor = true
}

// Due returns the wall-clock instant at which a frame with the given
// presentation timestamp (seconds) should be displayed, given the current
// playback speed. The first call establishes the anchor and returns "now".
func (s *Synchronizer) Due(pts, speed float64) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveAnchor {
		s.anchorWall = time.Now()
		s.anchorPTS = pts
		s.haveAnchor = true
		return s.anchorWall
	}
	if speed <= 0 {
		speed = 1
	}
	elapsed := (pts - s.anchorPTS) / speed
	return s.anchorWall.Add(time.Duration(elapsed * float64(time.Second)))
}

// VideoOutOfSync reports whether a video frame with the given pts has
// drifted far enough behind the audio clock (audioPTS) that it should be
// dropped rather than displayed, so the video worker can reconverge on the
// audio clock instead of falling further behind. A non-positive audioPTS
// means no audio stream is driving the clock, so video is never considered
// out of sync.
func VideoOutOfSync(pts, audioPTS float64) bool {
	if audioPTS <= 0 {
		return false
	}
	return audioPTS-pts > avSyncTolerance.Seconds()
}
