package heading

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"compassdial/internal/angle"
)

// Config controls the heading service.
//
// GainK and SnapEpsilonDeg are hand-tuned smoothing constants, not
// load-bearing invariants; the defaults match observed convergence
// behavior and can be overridden from the YAML config.
type Config struct {
	Policy Policy

	// GainK is the per-tick smoothing gain in (0,1). Default 0.15.
	GainK float64
	// SnapEpsilonDeg: once the remaining delta is at or below this,
	// the displayed heading snaps to the target exactly instead of
	// micro-converging forever. Default 0.05.
	SnapEpsilonDeg float64

	// OffsetDeg is an additive calibration offset applied to the
	// target before normalization. Read once from config at startup;
	// mutable at runtime, never persisted here.
	OffsetDeg float64

	// FrameInterval is the production tick rate. Default ~60 Hz.
	FrameInterval time.Duration
	// StaleAfter: with no accepted sample for this long the service
	// reports Receiving=false. Default 2s. The displayed heading holds
	// its last value (0 before any sample) rather than failing.
	StaleAfter time.Duration

	// Ticks overrides the tick source (tests). Nil means an interval
	// ticker at FrameInterval.
	Ticks TickSource

	// OnFrame is invoked after every smoothing tick, on the service
	// goroutine. It must not block.
	OnFrame func(Frame)
}

// Frame is the per-tick output of the smoothing loop.
type Frame struct {
	Time         time.Time
	DisplayedDeg float64
	TargetDeg    float64
	Receiving    bool
}

// Snapshot is a point-in-time view of the service state.
type Snapshot struct {
	Receiving       bool
	DisplayedDeg    float64
	TargetDeg       float64
	OffsetDeg       float64
	NativePreferred bool
	SamplesAccepted uint64
	SamplesRejected uint64
	LastSampleAt    time.Time
}

// Service owns the two shared scalars of the system: the target
// heading (written on sample ingestion) and the displayed heading
// (written on smoothing ticks). Both are only ever written from the
// run goroutine; readers take the snapshot lock.
type Service struct {
	cfg   Config
	est   *Estimator
	ticks TickSource

	sampleCh chan Sample

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu           sync.RWMutex
	running      bool
	target       float64
	displayed    float64
	offset       float64
	haveTarget   bool
	nativeSeen   bool
	accepted     uint64
	rejected     uint64
	lastSampleAt time.Time
}

func New(cfg Config) *Service {
	if cfg.GainK <= 0 || cfg.GainK >= 1 {
		cfg.GainK = 0.15
	}
	if cfg.SnapEpsilonDeg <= 0 {
		cfg.SnapEpsilonDeg = 0.05
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 2 * time.Second
	}
	s := &Service{
		cfg:      cfg,
		est:      NewEstimator(cfg.Policy),
		sampleCh: make(chan Sample, 8),
		stopCh:   make(chan struct{}),
	}
	if off, ok := angle.Normalize(cfg.OffsetDeg); ok {
		s.offset = off
	}
	return s
}

// Start launches the smoothing loop. Calling Start on a running
// service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("heading: service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("heading: ctx is nil")
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.ticks = s.cfg.Ticks
	if s.ticks == nil {
		s.ticks = NewIntervalTicker(s.cfg.FrameInterval)
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Close stops the smoothing loop and the tick source, then waits for
// the loop to exit. Idempotent; safe to call when never started.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.shutdown()
	s.wg.Wait()
}

func (s *Service) shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		if s.ticks != nil {
			s.ticks.Stop()
		}
		s.running = false
		s.mu.Unlock()
	})
}

// Offer pushes one raw sample into the service. Non-blocking: when the
// queue is full the sample is dropped, since the next one supersedes
// it anyway. Safe to call from any goroutine, including after Close.
func (s *Service) Offer(smp Sample) {
	if s == nil {
		return
	}
	select {
	case s.sampleCh <- smp:
	default:
	}
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Receiving:       s.receivingLocked(time.Now()),
		DisplayedDeg:    s.displayed,
		TargetDeg:       s.target,
		OffsetDeg:       s.offset,
		NativePreferred: s.nativeSeen,
		SamplesAccepted: s.accepted,
		SamplesRejected: s.rejected,
		LastSampleAt:    s.lastSampleAt,
	}
}

// SetOffset replaces the calibration offset (degrees; any finite
// value, normalized internally).
func (s *Service) SetOffset(deg float64) error {
	off, ok := angle.Normalize(deg)
	if !ok {
		return fmt.Errorf("heading: offset must be finite, got %v", deg)
	}
	s.mu.Lock()
	s.offset = off
	s.mu.Unlock()
	return nil
}

// Offset returns the current calibration offset in [0,360).
func (s *Service) Offset() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset
}

// Zero adjusts the calibration offset so the currently displayed
// heading reads 0. The smoother then converges the dial to north.
func (s *Service) Zero() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := angle.Normalize(s.offset - s.displayed)
	if !ok {
		return fmt.Errorf("heading: cannot zero (invalid state)")
	}
	s.offset = off
	return nil
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()
	ticks := s.ticks.Ticks()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-s.stopCh:
			return
		case smp := <-s.sampleCh:
			s.ingest(smp, time.Now())
		case now := <-ticks:
			s.step(now)
		}
	}
}

// ingest runs the estimator on one sample and updates the target
// heading. Rejected samples change nothing but a counter.
func (s *Service) ingest(smp Sample, now time.Time) {
	h, ok := s.est.Estimate(smp)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.rejected++
		return
	}
	s.target = h
	s.haveTarget = true
	s.nativeSeen = s.est.NativePreferred()
	s.accepted++
	if !smp.Time.IsZero() {
		s.lastSampleAt = smp.Time
	} else {
		s.lastSampleAt = now
	}
}

// step advances the displayed heading toward the (offset-adjusted)
// target by the shortest angular path: a fraction GainK of the
// remaining delta per tick, snapping exactly once within
// SnapEpsilonDeg. |delta·k| < |delta| ≤ 180, so it can never overshoot
// or spin the long way around.
func (s *Service) step(now time.Time) {
	s.mu.Lock()
	if s.haveTarget {
		target, ok := angle.Normalize(s.target + s.offset)
		if ok {
			delta := angle.ShortestSignedDelta(s.displayed, target)
			switch {
			case math.Abs(delta) > s.cfg.SnapEpsilonDeg:
				if d, ok := angle.Normalize(s.displayed + delta*s.cfg.GainK); ok {
					s.displayed = d
				}
			case delta != 0:
				s.displayed = target
			}
		}
	}
	frame := Frame{
		Time:         now,
		DisplayedDeg: s.displayed,
		TargetDeg:    s.target,
		Receiving:    s.receivingLocked(now),
	}
	onFrame := s.cfg.OnFrame
	s.mu.Unlock()

	if onFrame != nil {
		onFrame(frame)
	}
}

func (s *Service) receivingLocked(now time.Time) bool {
	if s.lastSampleAt.IsZero() {
		return false
	}
	return now.Sub(s.lastSampleAt) <= s.cfg.StaleAfter
}
