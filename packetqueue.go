package avplayer

import "sync"

// minEnoughPackets is the floor used by [PacketQueue.Enough], matching the
// original QAVPacketQueue::enough() heuristic.
const minEnoughPackets = 50

// Packet is one unit of compressed media read from the demuxer, carried
// opaque except for the bookkeeping the queue needs (stream routing and
// backpressure accounting).
type Packet struct {
	StreamIndex int
	Size        int
	payload     any // opaque demuxer-specific packet handle
}

// PacketQueue is a bounded producer/consumer FIFO of [Packet] for one stream
// (video or audio). There is exactly one producer (the demux worker) and one
// consumer (the stream's playback worker) per queue, so it's a Go-flavored
// rendering of QAVPacketQueue: a mutex-and-condvar FIFO rather than a
// channel, because a channel alone can't give us an O(1) byte accessor, an
// atomic clear, or the "still finishing the packet in hand" signal
// [PacketQueue.WaitForFinished] needs.
type PacketQueue struct {
	mu   sync.Mutex
	cond sync.Cond

	items []*Packet
	bytes int

	aborted bool
	serving bool // true while the consumer holds a packet it hasn't Pop()'d yet

	frameRateInv float64 // seconds per frame; 0 if unknown
	pts          float64 // pts of the most recently served frame
}

// NewPacketQueue returns an empty, non-aborted queue.
func NewPacketQueue() *PacketQueue {
	q := &PacketQueue{}
	q.cond.L = &q.mu
	return q
}

// Enqueue appends a packet and wakes any blocked consumer.
func (q *PacketQueue) Enqueue(pkt *Packet) {
	q.mu.Lock()
	q.items = append(q.items, pkt)
	q.bytes += pkt.Size
	q.mu.Unlock()
	q.cond.Signal()
}

// Dequeue blocks while the queue is empty and not aborted, then returns the
// front packet without removing it — the caller must call [PacketQueue.Pop]
// once it has finished decoding (or decided to skip) the packet, which is
// also what allows [PacketQueue.WaitForFinished] to unblock. If the queue is
// aborted, Dequeue returns (nil, true) immediately.
func (q *PacketQueue) Dequeue() (pkt *Packet, aborted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.aborted {
		q.cond.Wait()
	}
	if q.aborted {
		return nil, true
	}
	q.serving = true
	return q.items[0], false
}

// TryDequeue returns the front packet without blocking, or (nil, false) if
// the queue is currently empty or aborted. Workers that must also poll the
// wait gate, quit flag or a pending seek between packets use this instead of
// [PacketQueue.Dequeue], since a Dequeue blocked on an empty queue can't
// notice any of those. The returned packet must still be followed by a
// [PacketQueue.Pop] once consumed.
func (q *PacketQueue) TryDequeue() (pkt *Packet, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.aborted || len(q.items) == 0 {
		return nil, false
	}
	q.serving = true
	return q.items[0], true
}

// Pop discards the front packet after its frame has been delivered (or
// skipped) by the consumer.
func (q *PacketQueue) Pop() {
	q.mu.Lock()
	if len(q.items) > 0 {
		q.bytes -= q.items[0].Size
		q.items = q.items[1:]
	}
	q.serving = false
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Clear atomically discards all queued packets and resets the running
// byte/pts counters, while preserving the abort flag and frame-rate hint.
// It does not affect a packet currently being served (in flight between
// Dequeue and Pop): that's what [PacketQueue.WaitForFinished] waits out.
func (q *PacketQueue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.bytes = 0
	q.pts = 0
	q.mu.Unlock()
}

// Abort sets or clears the aborted flag and wakes all waiters. Called with
// no arguments, it aborts (matching the C++ default parameter).
func (q *PacketQueue) Abort(v ...bool) {
	val := true
	if len(v) > 0 {
		val = v[0]
	}
	q.mu.Lock()
	q.aborted = val
	q.mu.Unlock()
	q.cond.Broadcast()
}

// WakeAll wakes blocked consumers without changing any state. Used when the
// wait gate closes, so a consumer parked in Dequeue rechecks it.
func (q *PacketQueue) WakeAll() {
	q.cond.Broadcast()
}

// Bytes returns the sum of payload sizes currently queued. O(1).
func (q *PacketQueue) Bytes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.bytes
}

// IsEmpty reports whether the queue currently holds no packets.
func (q *PacketQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Enough reports whether the queue holds enough packets to satisfy roughly
// one second of playback (or 50 packets, whichever is larger), the signal
// the demux worker uses to throttle reading.
func (q *PacketQueue) Enough() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	want := minEnoughPackets
	if q.frameRateInv > 0 {
		if perSecond := int(1.0 / q.frameRateInv); perSecond > want {
			want = perSecond
		}
	}
	return len(q.items) >= want
}

// SetFrameRate records the stream's seconds-per-frame hint, used by Enough
// and by the synchronizer.
func (q *PacketQueue) SetFrameRate(secondsPerFrame float64) {
	q.mu.Lock()
	q.frameRateInv = secondsPerFrame
	q.mu.Unlock()
}

// SetPTS records the pts of the most recently served frame; read by the
// video worker through the audio queue's PTS to drive audio/video sync.
func (q *PacketQueue) SetPTS(pts float64) {
	q.mu.Lock()
	q.pts = pts
	q.mu.Unlock()
}

// PTS returns the pts of the most recently served frame (0 if none yet, or
// after Clear).
func (q *PacketQueue) PTS() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pts
}

// WaitForFinished blocks until the queue has been drained and its consumer
// is no longer holding an in-flight packet. This is the seek barrier: called
// after a successful demuxer seek + Clear, it guarantees no stale
// pre-seek frame can still be on its way out when the demux worker resumes
// reading post-seek packets.
func (q *PacketQueue) WaitForFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) > 0 || q.serving {
		q.cond.Wait()
	}
}
