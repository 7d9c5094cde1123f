package heading

import "time"

// TickSource delivers frame ticks to the smoothing loop. The service
// depends on this interface instead of a concrete timer so tests can
// drive the loop with synthetic ticks; production uses an interval
// ticker at the configured frame rate.
//
// Stop must be idempotent. After Stop returns no further ticks are
// delivered.
type TickSource interface {
	Ticks() <-chan time.Time
	Stop()
}

type intervalTicker struct {
	t *time.Ticker
}

// NewIntervalTicker returns a TickSource backed by time.Ticker. A
// non-positive interval defaults to ~60 frames per second.
func NewIntervalTicker(d time.Duration) TickSource {
	if d <= 0 {
		d = 16 * time.Millisecond
	}
	return &intervalTicker{t: time.NewTicker(d)}
}

func (it *intervalTicker) Ticks() <-chan time.Time { return it.t.C }

func (it *intervalTicker) Stop() { it.t.Stop() }
