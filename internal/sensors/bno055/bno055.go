// Package bno055 is a minimal driver for the Bosch BNO055 absolute
// orientation sensor.
//
// Focus: probe + fused Euler reads in NDOF mode. The on-chip fusion
// already references magnetic north, so the heading register is a
// native absolute compass heading; the raw Euler block doubles as the
// alpha/beta/gamma fallback for the estimator.
package bno055

import (
	"fmt"
	"time"

	"compassdial/internal/i2c"
)

var sleep = time.Sleep

const (
	addrDefault = 0x28

	regChipID = 0x00
	chipIDVal = 0xA0

	// Euler block: heading, roll, pitch; little-endian int16, 1/16 deg
	// per LSB in degree units.
	regEulerLSB = 0x1A

	regCalibStat  = 0x35
	regUnitSel    = 0x3B
	regOprMode    = 0x3D
	regPwrMode    = 0x3E
	regSysTrigger = 0x3F

	modeConfig = 0x00
	modeNDOF   = 0x0C

	pwrNormal = 0x00

	bitReset = 0x20

	eulerScale = 1.0 / 16.0
)

// Sample is one fused orientation reading.
type Sample struct {
	Time time.Time

	// HeadingDeg is the fused absolute heading, degrees clockwise from
	// magnetic north, [0, 360).
	HeadingDeg float64
	RollDeg    float64
	PitchDeg   float64

	// Calibration levels 0..3 (3 = fully calibrated), from CALIB_STAT.
	SysCal, GyroCal, AccelCal, MagCal byte
}

type regIO interface {
	ReadRegU8(reg byte) (byte, error)
	ReadReg(reg byte, dst []byte) error
	WriteReg(reg, value byte) error
}

type Device struct {
	dev regIO
}

func DefaultAddress() uint16 { return addrDefault }

func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("bno055: dev is nil")
	}
	return newWithIO(dev)
}

func newWithIO(dev regIO) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("bno055: dev is nil")
	}
	d := &Device{dev: dev}

	id, err := d.dev.ReadRegU8(regChipID)
	if err != nil {
		return nil, fmt.Errorf("bno055: chip id read failed: %w", err)
	}
	if id != chipIDVal {
		return nil, fmt.Errorf("bno055: chip id=0x%02X want 0x%02X", id, chipIDVal)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	// Config mode before touching anything else.
	if err := d.dev.WriteReg(regOprMode, modeConfig); err != nil {
		return fmt.Errorf("bno055: enter config mode failed: %w", err)
	}
	sleep(25 * time.Millisecond)

	if err := d.dev.WriteReg(regSysTrigger, bitReset); err != nil {
		return fmt.Errorf("bno055: reset failed: %w", err)
	}
	// Datasheet: POR time after reset is ~650ms.
	sleep(700 * time.Millisecond)

	if err := d.dev.WriteReg(regPwrMode, pwrNormal); err != nil {
		return fmt.Errorf("bno055: power mode failed: %w", err)
	}
	// Degrees for Euler output (chip default, be explicit).
	if err := d.dev.WriteReg(regUnitSel, 0x00); err != nil {
		return fmt.Errorf("bno055: unit select failed: %w", err)
	}

	// NDOF: 9-DOF fusion with magnetometer, absolute heading.
	if err := d.dev.WriteReg(regOprMode, modeNDOF); err != nil {
		return fmt.Errorf("bno055: enter ndof mode failed: %w", err)
	}
	sleep(20 * time.Millisecond)
	return nil
}

func (d *Device) Read() (Sample, error) {
	if d == nil {
		return Sample{}, fmt.Errorf("bno055: device is nil")
	}

	buf := make([]byte, 6)
	if err := d.dev.ReadReg(regEulerLSB, buf); err != nil {
		return Sample{}, fmt.Errorf("bno055: euler read failed: %w", err)
	}
	heading := int16(uint16(buf[0]) | uint16(buf[1])<<8)
	roll := int16(uint16(buf[2]) | uint16(buf[3])<<8)
	pitch := int16(uint16(buf[4]) | uint16(buf[5])<<8)

	calib, err := d.dev.ReadRegU8(regCalibStat)
	if err != nil {
		return Sample{}, fmt.Errorf("bno055: calib read failed: %w", err)
	}

	return Sample{
		Time:       time.Now(),
		HeadingDeg: float64(heading) * eulerScale,
		RollDeg:    float64(roll) * eulerScale,
		PitchDeg:   float64(pitch) * eulerScale,
		SysCal:     calib >> 6 & 0x03,
		GyroCal:    calib >> 4 & 0x03,
		AccelCal:   calib >> 2 & 0x03,
		MagCal:     calib & 0x03,
	}, nil
}
