// Package ht0740 drives the HT0740 power switch board, a relay and an
// indicator LED behind a TCA9554A I2C port expander.
package ht0740

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sweeney/letterbox-robot/internal/i2c"
)

// DefaultAddress is the board's factory I2C address (0x39 with the
// address jumper cut).
const DefaultAddress = 0x38

// TCA9554A registers.
const (
	regInput    = 0x00
	regOutput   = 0x01
	regPolarity = 0x02
	regConfig   = 0x03 // 1 = input, 0 = output
)

// Expander pins.
const (
	pinSwitch = 0
	pinLED    = 1
)

// Options configures a Device.
type Options struct {
	Logger *slog.Logger

	// FailureThreshold is the number of consecutive failed transactions
	// that opens the breaker. Default 3.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before letting a
	// trial transaction through. Default 5s.
	OpenTimeout time.Duration
}

// Device is an initialised HT0740 board.
type Device struct {
	bus     i2c.Bus
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger

	// mu serialises read-modify-write of the output register
	mu sync.Mutex
}

// New probes the board and configures the relay and LED pins as outputs,
// both off. An error means the peripheral is unreachable.
func New(bus i2c.Bus, opts Options) (*Device, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ht0740")

	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 3
	}
	timeout := opts.OpenTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cfg, err := bus.ReadReg(regConfig)
	if err != nil {
		return nil, fmt.Errorf("probe ht0740: %w", err)
	}
	out, err := bus.ReadReg(regOutput)
	if err != nil {
		return nil, fmt.Errorf("probe ht0740: %w", err)
	}

	const mask = 1<<pinSwitch | 1<<pinLED
	if err := bus.WriteReg(regOutput, out&^mask); err != nil {
		return nil, fmt.Errorf("init ht0740 outputs: %w", err)
	}
	if err := bus.WriteReg(regPolarity, 0); err != nil {
		return nil, fmt.Errorf("init ht0740 polarity: %w", err)
	}
	if err := bus.WriteReg(regConfig, cfg&^mask); err != nil {
		return nil, fmt.Errorf("init ht0740 config: %w", err)
	}

	d := &Device{bus: bus, log: logger}
	d.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ht0740",
		Timeout: timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("i2c breaker state change", "from", from.String(), "to", to.String())
		},
	})
	logger.Info("ready")
	return d, nil
}

// Switch returns the relay channel.
func (d *Device) Switch() *Channel {
	return &Channel{dev: d, bit: pinSwitch, name: "switch"}
}

// LED returns the indicator LED channel.
func (d *Device) LED() *Channel {
	return &Channel{dev: d, bit: pinLED, name: "led"}
}

// Close turns both channels off and releases the bus.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	if out, err := d.bus.ReadReg(regOutput); err != nil {
		firstErr = fmt.Errorf("read outputs: %w", err)
	} else if err := d.bus.WriteReg(regOutput, out&^(1<<pinSwitch|1<<pinLED)); err != nil {
		firstErr = fmt.Errorf("clear outputs: %w", err)
	}
	if err := d.bus.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close bus: %w", err)
	}
	return firstErr
}

func (d *Device) readBit(bit uint) (bool, error) {
	v, err := d.breaker.Execute(func() (interface{}, error) {
		return d.bus.ReadReg(regOutput)
	})
	if err != nil {
		return false, err
	}
	return v.(byte)&(1<<bit) != 0, nil
}

func (d *Device) writeBit(bit uint, on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.breaker.Execute(func() (interface{}, error) {
		out, err := d.bus.ReadReg(regOutput)
		if err != nil {
			return nil, err
		}
		if on {
			out |= 1 << bit
		} else {
			out &^= 1 << bit
		}
		return nil, d.bus.WriteReg(regOutput, out)
	})
	return err
}

// Channel is one output of the board.
type Channel struct {
	dev  *Device
	bit  uint
	name string
}

// On energises the channel.
func (c *Channel) On() error {
	if err := c.dev.writeBit(c.bit, true); err != nil {
		return fmt.Errorf("%s on: %w", c.name, err)
	}
	return nil
}

// Off de-energises the channel.
func (c *Channel) Off() error {
	if err := c.dev.writeBit(c.bit, false); err != nil {
		return fmt.Errorf("%s off: %w", c.name, err)
	}
	return nil
}

// State reads the channel's output latch from the device.
func (c *Channel) State() (bool, error) {
	on, err := c.dev.readBit(c.bit)
	if err != nil {
		return false, fmt.Errorf("%s state: %w", c.name, err)
	}
	return on, nil
}
