//go:build !linux

package i2c

import "errors"

// Stubs so non-Linux development builds compile; the IMU source
// reports the bus as unavailable at runtime.

type Bus struct{}

type Dev struct{}

func Open(path string) (*Bus, error) {
	return nil, errors.New("i2c is only supported on linux")
}

func (b *Bus) Close() error { return nil }

func (b *Bus) Dev(addr uint16) *Dev { return nil }

func (d *Dev) ReadReg(reg byte, dst []byte) error { return errors.New("i2c unsupported") }

func (d *Dev) ReadRegU8(reg byte) (byte, error) { return 0, errors.New("i2c unsupported") }

func (d *Dev) WriteReg(reg, value byte) error { return errors.New("i2c unsupported") }
