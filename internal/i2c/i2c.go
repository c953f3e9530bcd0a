// Package i2c provides register access to a single I2C peripheral.
package i2c

import (
	"fmt"
	"sync"
)

// DefaultBus is the user-accessible I2C bus on a Raspberry Pi.
const DefaultBus = "/dev/i2c-1"

// Bus reads and writes 8-bit registers of one device.
type Bus interface {
	ReadReg(reg byte) (byte, error)
	WriteReg(reg, val byte) error
	Close() error
}

// FakeBus is an in-memory register file for tests. Safe for concurrent use.
type FakeBus struct {
	mu     sync.Mutex
	regs   map[byte]byte
	writes int
	closed bool

	// Err, if set, is returned by every ReadReg and WriteReg.
	Err error
}

// NewFakeBus creates a FakeBus with all registers zero.
func NewFakeBus() *FakeBus {
	return &FakeBus{regs: make(map[byte]byte)}
}

// ReadReg returns the stored register value.
func (f *FakeBus) ReadReg(reg byte) (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return f.regs[reg], nil
}

// WriteReg stores val.
func (f *FakeBus) WriteReg(reg, val byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.regs[reg] = val
	f.writes++
	return nil
}

// Reg returns a register value without counting as a bus read.
func (f *FakeBus) Reg(reg byte) byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[reg]
}

// SetReg sets a register value directly, e.g. to simulate an external change.
func (f *FakeBus) SetReg(reg, val byte) {
	f.mu.Lock()
	f.regs[reg] = val
	f.mu.Unlock()
}

// SetErr sets the error returned by every transaction.
func (f *FakeBus) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

// Writes returns the number of successful writes.
func (f *FakeBus) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Close marks the bus closed.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeBus) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func checkAddr(addr int) error {
	if addr < 0x03 || addr > 0x77 {
		return fmt.Errorf("i2c: address 0x%02X outside 7-bit range", addr)
	}
	return nil
}
