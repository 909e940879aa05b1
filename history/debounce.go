package history

import "time"

// Debouncer collapses bursts of requests into one.  It is either idle or armed
// with a deadline.  A request while idle, or after the deadline has passed, fires
// and arms the debouncer.  A request before the deadline is suppressed and pushes
// the deadline back by the window, so a continuous gesture fires only once.
// Nothing fires when a window elapses.
type Debouncer struct {
	window time.Duration
	now    func() time.Time

	armed    bool
	deadline time.Time
}

// NewDebouncer returns an idle Debouncer.  If clock is nil, time.Now is used.
func NewDebouncer(window time.Duration, clock func() time.Time) *Debouncer {
	if clock == nil {
		clock = time.Now
	}
	return &Debouncer{window: window, now: clock}
}

// Request returns true if the caller should act now.
func (d *Debouncer) Request() bool {
	now := d.now()
	fire := !d.armed || !now.Before(d.deadline)
	d.armed = true
	d.deadline = now.Add(d.window)
	return fire
}

// Reset returns the debouncer to idle so the next request fires.
func (d *Debouncer) Reset() {
	d.armed = false
}
