//go:build !linux

package i2c

import "errors"

// Device is not available on non-Linux platforms.
type Device struct{}

// Open returns an error on non-Linux platforms.
func Open(path string, addr int) (*Device, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	return nil, errors.New("i2c: not supported on this platform (requires Linux)")
}

// ReadReg is not implemented on non-Linux platforms.
func (d *Device) ReadReg(reg byte) (byte, error) {
	return 0, errors.New("i2c: not supported")
}

// WriteReg is not implemented on non-Linux platforms.
func (d *Device) WriteReg(reg, val byte) error {
	return errors.New("i2c: not supported")
}

// Close is a no-op on non-Linux platforms.
func (d *Device) Close() error {
	return nil
}
