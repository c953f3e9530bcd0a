// Package actuator translates logical on/off/brightness intents into
// hardware writes for the power switch and the light.
package actuator

import (
	"errors"
	"sync"
)

// ErrDutyCycle is returned for a duty cycle outside 0-100.
var ErrDutyCycle = errors.New("actuator: duty cycle out of range 0-100")

// Switch is a digital power switch.
type Switch interface {
	On() error
	Off() error
	// State reports the switch's actual output state.
	State() (bool, error)
}

// Output is a dimmable light.
type Output interface {
	On() error
	Off() error
	// SetBrightness sets a linear duty cycle in percent (0-100).
	SetBrightness(pct int) error
}

// Digital adapts an on/off Switch to an Output. Any non-zero brightness
// turns it on.
type Digital struct {
	Switch Switch
}

// On turns the output on.
func (d Digital) On() error { return d.Switch.On() }

// Off turns the output off.
func (d Digital) Off() error { return d.Switch.Off() }

// SetBrightness turns the output on for pct > 0, off otherwise.
func (d Digital) SetBrightness(pct int) error {
	if pct < 0 || pct > 100 {
		return ErrDutyCycle
	}
	if pct == 0 {
		return d.Switch.Off()
	}
	return d.Switch.On()
}

// FakeSwitch records writes. Safe for concurrent use.
type FakeSwitch struct {
	mu     sync.Mutex
	on     bool
	ons    int
	offs   int
	reads  int
	err    error
	stateE error
}

// NewFakeSwitch creates a FakeSwitch in the off state.
func NewFakeSwitch() *FakeSwitch {
	return &FakeSwitch{}
}

// On records an on write.
func (f *FakeSwitch) On() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.on = true
	f.ons++
	return nil
}

// Off records an off write.
func (f *FakeSwitch) Off() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.on = false
	f.offs++
	return nil
}

// State returns the current state.
func (f *FakeSwitch) State() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.stateE != nil {
		return false, f.stateE
	}
	return f.on, nil
}

// Force sets the state without counting a write (an external change).
func (f *FakeSwitch) Force(on bool) {
	f.mu.Lock()
	f.on = on
	f.mu.Unlock()
}

// SetError makes On/Off fail with err.
func (f *FakeSwitch) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// SetStateError makes State fail with err.
func (f *FakeSwitch) SetStateError(err error) {
	f.mu.Lock()
	f.stateE = err
	f.mu.Unlock()
}

// Writes returns the number of successful On and Off calls.
func (f *FakeSwitch) Writes() (ons, offs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ons, f.offs
}

// IsOn returns the current state without counting a read.
func (f *FakeSwitch) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// FakeOutput records light commands. Safe for concurrent use.
type FakeOutput struct {
	mu    sync.Mutex
	calls []string
	duty  int
	err   error
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// On records "on".
func (f *FakeOutput) On() error { return f.record("on", 100) }

// Off records "off".
func (f *FakeOutput) Off() error { return f.record("off", 0) }

// SetBrightness records "pwm".
func (f *FakeOutput) SetBrightness(pct int) error { return f.record("pwm", pct) }

func (f *FakeOutput) record(call string, duty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, call)
	f.duty = duty
	return nil
}

// SetError makes every command fail with err.
func (f *FakeOutput) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Calls returns a copy of the recorded commands.
func (f *FakeOutput) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Duty returns the last brightness written.
func (f *FakeOutput) Duty() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duty
}
