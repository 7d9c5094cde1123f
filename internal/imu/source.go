// Package imu feeds BNO055 readings into the heading service.
package imu

import (
	"context"
	"fmt"
	"log"
	"time"

	"compassdial/internal/angle"
	"compassdial/internal/heading"
	"compassdial/internal/i2c"
	"compassdial/internal/sensors/bno055"
)

type Config struct {
	I2CBus int
	Addr   uint16
	Rate   time.Duration
}

// Source polls the sensor at a fixed rate and pushes one sample per
// read into the heading service. Read errors are logged (rate-limited)
// and retried on the next poll; a sensor glitch must never take the
// service down.
type Source struct {
	cfg Config

	bus *i2c.Bus
	dev *bno055.Device
}

func NewSource(cfg Config) (*Source, error) {
	if cfg.I2CBus <= 0 {
		cfg.I2CBus = 1
	}
	if cfg.Addr == 0 {
		cfg.Addr = bno055.DefaultAddress()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 20 * time.Millisecond
	}

	busPath := fmt.Sprintf("/dev/i2c-%d", cfg.I2CBus)
	bus, err := i2c.Open(busPath)
	if err != nil {
		return nil, fmt.Errorf("imu: open %s: %w", busPath, err)
	}
	dev, err := bno055.New(bus.Dev(cfg.Addr))
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("imu: %w", err)
	}
	return &Source{cfg: cfg, bus: bus, dev: dev}, nil
}

// Run polls until ctx is cancelled, pushing samples through emit.
func (s *Source) Run(ctx context.Context, emit func(heading.Sample)) error {
	tick := time.NewTicker(s.cfg.Rate)
	defer tick.Stop()
	defer func() { _ = s.bus.Close() }()

	var lastErrLog time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			raw, err := s.dev.Read()
			if err != nil {
				if time.Since(lastErrLog) > 5*time.Second {
					log.Printf("imu read failed: %v", err)
					lastErrLog = time.Now()
				}
				continue
			}
			emit(toSample(raw))
		}
	}
}

// toSample maps a fused BNO055 reading onto the sample conventions the
// estimator understands: the fused heading is a native absolute
// compass heading, and the Euler block is also carried in
// deviceorientation convention (alpha = counterclockwise yaw) so the
// Euler path stays exercised on platforms where fusion is degraded.
func toSample(raw bno055.Sample) heading.Sample {
	smp := heading.Sample{
		Time:       raw.Time,
		CompassDeg: heading.Deg(raw.HeadingDeg),
		BetaDeg:    heading.Deg(raw.PitchDeg),
		GammaDeg:   heading.Deg(raw.RollDeg),
	}
	if alpha, ok := angle.Normalize(360 - raw.HeadingDeg); ok {
		smp.AlphaDeg = heading.Deg(alpha)
	}
	return smp
}
