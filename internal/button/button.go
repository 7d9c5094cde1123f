// Package button wires a momentary push button to heading calibration:
// a press zeroes the dial so the current physical direction reads 0.
package button

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Zeroer is the calibration hook a press triggers.
type Zeroer interface {
	Zero() error
}

type Config struct {
	// Pin is the BCM GPIO number the button is on (active low, pulled
	// up, pressed = line falls).
	Pin int
	// Debounce suppresses repeat presses within the window. Defaults
	// to 200ms.
	Debounce time.Duration
}

// Service owns the GPIO line and forwards debounced presses to the
// calibrator.
type Service struct {
	cfg    Config
	target Zeroer

	mu        sync.Mutex
	lastPress time.Time

	line     lineCloser
	stopOnce sync.Once

	// now is swapped out by tests.
	now func() time.Time
}

type lineCloser interface {
	Close() error
}

func New(cfg Config, target Zeroer) (*Service, error) {
	if cfg.Pin <= 0 {
		return nil, fmt.Errorf("button: invalid gpio pin %d", cfg.Pin)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	if target == nil {
		return nil, fmt.Errorf("button: nil zero target")
	}
	return &Service{cfg: cfg, target: target, now: time.Now}, nil
}

// Start requests the GPIO line and begins delivering presses. It fails
// if the line cannot be found or is busy.
func (s *Service) Start() error {
	line, err := openLineFn(s.cfg.Pin, s.cfg.Debounce, s.press)
	if err != nil {
		return err
	}
	s.line = line
	log.Printf("button: zero button on GPIO%d (debounce %v)", s.cfg.Pin, s.cfg.Debounce)
	return nil
}

func (s *Service) Close() error {
	var err error
	s.stopOnce.Do(func() {
		if s.line != nil {
			err = s.line.Close()
			s.line = nil
		}
	})
	return err
}

// press is the edge handler. The kernel debounces the line too, but a
// second software window guards against chips that ignore the request.
func (s *Service) press() {
	s.mu.Lock()
	now := s.now()
	if !s.lastPress.IsZero() && now.Sub(s.lastPress) < s.cfg.Debounce {
		s.mu.Unlock()
		return
	}
	s.lastPress = now
	s.mu.Unlock()

	if err := s.target.Zero(); err != nil {
		log.Printf("button: zero failed: %v", err)
		return
	}
	log.Printf("button: heading zeroed")
}
