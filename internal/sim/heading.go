// Package sim provides a deterministic synthetic heading source for
// development without sensor hardware.
package sim

import (
	"context"
	"math"
	"time"

	"compassdial/internal/heading"
)

type HeadingSim struct {
	// Period is the time for one full clockwise sweep of the dial.
	Period time.Duration
	// WobbleDeg superimposes a sinusoidal wobble so the smoother has
	// something to chew on. Defaults to 8 degrees.
	WobbleDeg float64
}

// HeadingAt returns the simulated heading for a point in time. Purely
// time-derived, so a given instant always maps to the same heading.
func (s HeadingSim) HeadingAt(now time.Time) float64 {
	period := s.Period
	if period <= 0 {
		period = 60 * time.Second
	}
	wobble := s.WobbleDeg
	if wobble == 0 {
		wobble = 8
	}

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	// Wobble runs at 7x the sweep so the two never stay in sync long.
	h := 360*phase + wobble*math.Sin(2*math.Pi*phase*7)
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// Source pushes simulated native-heading samples at a fixed rate.
type Source struct {
	Sim  HeadingSim
	Rate time.Duration
}

func (s *Source) Run(ctx context.Context, emit func(heading.Sample)) error {
	rate := s.Rate
	if rate <= 0 {
		rate = 50 * time.Millisecond
	}
	tick := time.NewTicker(rate)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick.C:
			emit(heading.Sample{
				Time:       now,
				CompassDeg: heading.Deg(s.Sim.HeadingAt(now)),
			})
		}
	}
}
