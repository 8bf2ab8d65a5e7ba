package avplayer

import "sync"

// Dispatcher marshals notifications produced on worker goroutines onto the
// caller's event thread, per spec §4.5. Go has no built-in equivalent to
// QMetaObject::invokeMethod's queued-connection dispatch, so this models it
// as a plain function-object queue: workers call Post, and the caller
// drains it from wherever its own event loop lives (an ebiten Game.Update,
// a dedicated goroutine, a bubbletea tick — whatever owns "the caller's
// thread" for a given embedding).
//
// User-facing callbacks are never invoked directly from a worker goroutine;
// they only ever run inside Pump/PumpOne, so Player's notification
// callbacks never need their own synchronization.
type Dispatcher struct {
	mu    sync.Mutex
	queue []func()
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Post enqueues fn to run on the next Pump/PumpOne call. Safe to call from
// any goroutine.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

// Pump runs every currently queued notification, in order, on the calling
// goroutine. Notifications posted by a callback while Pump is running are
// not run until the next Pump call, so a slow or misbehaving callback can't
// starve the caller's loop indefinitely.
func (d *Dispatcher) Pump() {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// PumpOne runs at most one queued notification and reports whether it ran
// one, for callers that want to budget dispatch work per tick instead of
// draining everything at once.
func (d *Dispatcher) PumpOne() bool {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return false
	}
	fn := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	fn()
	return true
}
