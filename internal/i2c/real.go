//go:build linux

package i2c

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctlSlave selects the target address for subsequent read/write calls
// (I2C_SLAVE from linux/i2c-dev.h).
const ioctlSlave = 0x0703

// Device is a peripheral on a Linux i2c-dev bus.
type Device struct {
	mu   sync.Mutex
	f    *os.File
	addr int
}

// Open opens path (e.g. /dev/i2c-1) and binds it to the 7-bit address addr.
func Open(path string, addr int) (*Device, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), ioctlSlave, addr); err != nil {
		f.Close()
		return nil, fmt.Errorf("select i2c address 0x%02X: %w", addr, err)
	}
	return &Device{f: f, addr: addr}, nil
}

// ReadReg writes the register pointer then reads one byte.
func (d *Device) ReadReg(reg byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.f.Write([]byte{reg}); err != nil {
		return 0, fmt.Errorf("i2c 0x%02X: set register 0x%02X: %w", d.addr, reg, err)
	}
	buf := make([]byte, 1)
	if _, err := d.f.Read(buf); err != nil {
		return 0, fmt.Errorf("i2c 0x%02X: read register 0x%02X: %w", d.addr, reg, err)
	}
	return buf[0], nil
}

// WriteReg writes one byte to reg.
func (d *Device) WriteReg(reg, val byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.f.Write([]byte{reg, val}); err != nil {
		return fmt.Errorf("i2c 0x%02X: write register 0x%02X: %w", d.addr, reg, err)
	}
	return nil
}

// Close releases the bus file.
func (d *Device) Close() error {
	return d.f.Close()
}
