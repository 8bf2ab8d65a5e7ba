package avplayer

import "sync"

// WaitGate is a single binary latch blocking the demux/video/audio workers
// at each loop head when the player should not advance (paused,
// seeking-but-not-yet-resumed, or stopped). Grounded on qavplayer.cpp's
// waitMutex/waitCond pair and doWait()/setWait().
type WaitGate struct {
	mu   sync.Mutex
	cond sync.Cond
	wait bool
}

// NewWaitGate returns a gate that is initially open (not waiting).
func NewWaitGate() *WaitGate {
	g := &WaitGate{}
	g.cond.L = &g.mu
	return g
}

// Wait blocks the calling worker if the gate is currently closed (wait ==
// true), until [WaitGate.SetWait](false) is called. Call at the head of
// every worker loop iteration.
func (g *WaitGate) Wait() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.wait {
		g.cond.Wait()
	}
}

// SetWait closes (true) or opens (false) the gate. Opening broadcasts to
// every worker parked in [WaitGate.Wait]. Idempotent: setting the same value
// twice has no extra effect beyond waking waiters again.
//
// Closing the gate does *not* wake queue consumers blocked in
// [PacketQueue.Dequeue] by itself — per spec §4.3, the caller (the
// controller) is responsible for also calling WakeAll on both packet queues
// when closing the gate, so that a consumer parked on an empty queue
// rechecks the gate instead of staying blocked on the queue condition
// forever. See controller.setWait.
func (g *WaitGate) SetWait(v bool) {
	g.mu.Lock()
	g.wait = v
	g.mu.Unlock()
	if !v {
		g.cond.Broadcast()
	}
}

// Waiting reports the current gate state.
func (g *WaitGate) Waiting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.wait
}
