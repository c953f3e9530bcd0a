// Package pir runs the debounced actuator loop: a PIR motion sensor is
// polled on a fixed tick, smoothed by a hysteresis counter, and drives the
// power switch (and optionally the light) on threshold crossings.
package pir

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

// DefaultTick is the polling period.
const DefaultTick = time.Second

// Sensor is the polled PIR input. true = motion detected.
type Sensor interface {
	Value() (bool, error)
}

// Relay is the power switch.
type Relay interface {
	Enable() error
	Disable() error
	IsOn() (bool, error)
}

// Lamp is the light driven alongside the switch.
type Lamp interface {
	Enable() error
	Disable() error
}

// Options configures a Switch.
type Options struct {
	Tick  time.Duration
	Limit int
	Boost int

	// TieSwitchToLight makes the lamp follow the switch. When false the
	// lamp is lit while the loop is enabled, as a status indicator.
	TieSwitchToLight bool

	Logger *slog.Logger

	// Observer is called on the loop goroutine after every tick.
	Observer func(logic.Tick)

	// OnSwitch is called whenever the switch is turned on or off,
	// from whichever goroutine issued the change.
	OnSwitch func(logic.SwitchEvent)

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewTicker returns a tick channel and its stop function.
	// Defaults to a time.Ticker.
	NewTicker func(time.Duration) (<-chan time.Time, func())
}

// Switch owns the polling loop and the actuator pair.
type Switch struct {
	sensor Sensor
	relay  Relay
	lamp   Lamp
	opts   Options
	log    *slog.Logger

	// counter is only touched by the loop goroutine while running.
	counter *logic.Hysteresis

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	count  int // last count, readable from other goroutines
}

// New creates a Switch. The loop is not started until Enable.
func New(sensor Sensor, relay Relay, lamp Lamp, opts Options) *Switch {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Limit <= 0 {
		opts.Limit = logic.DefaultLimit
	}
	if opts.Boost <= 0 {
		opts.Boost = logic.DefaultBoost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewTicker == nil {
		opts.NewTicker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pir")

	s := &Switch{
		sensor:  sensor,
		relay:   relay,
		lamp:    lamp,
		opts:    opts,
		log:     logger,
		counter: logic.NewHysteresis(opts.Limit, opts.Boost),
	}
	logger.Info("ready", "tick", opts.Tick, "limit", s.counter.Limit(), "boost", s.counter.Boost(),
		"tied", opts.TieSwitchToLight)
	return s
}

// Enable starts the polling loop. Enabling a running loop logs a warning
// and has no other effect.
func (s *Switch) Enable() {
	s.log.Info("enabling pir switch")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.log.Warn("ignored: loop already started")
		return
	}
	if !s.opts.TieSwitchToLight {
		s.light(true)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.log.Debug("starting loop")
	go s.loop(ctx, s.done)
}

// Disable stops the polling loop and blocks until it has exited; no loop
// write happens after it returns. Disabling a stopped loop is a no-op.
func (s *Switch) Disable() {
	s.log.Info("disabling pir switch")
	if !s.opts.TieSwitchToLight {
		s.light(false)
	}
	s.stop()
}

func (s *Switch) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		s.log.Debug("ignored: loop not running")
		return
	}
	s.log.Info("stopping loop")
	cancel()
	<-done
	s.log.Info("loop ended")
}

// Close stops the loop, then forces the switch (and tied light) off. A
// switch that was already off reports no OnSwitch event. Safe to call
// more than once.
func (s *Switch) Close() error {
	s.Disable()
	var err error
	if on, rerr := s.relay.IsOn(); rerr != nil || on {
		err = s.TurnOffSwitch()
	} else {
		if err = s.relay.Disable(); err != nil {
			err = fmt.Errorf("switch off: %w", err)
		}
		if s.opts.TieSwitchToLight {
			s.light(false)
		}
	}
	s.log.Info("closed")
	return err
}

// Running reports whether the loop goroutine is active.
func (s *Switch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Count returns the hysteresis count after the most recent tick.
func (s *Switch) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// SwitchIsOn reads the switch state from the hardware.
func (s *Switch) SwitchIsOn() (bool, error) {
	return s.relay.IsOn()
}

// Triggered reads the PIR sensor.
func (s *Switch) Triggered() (bool, error) {
	return s.sensor.Value()
}

// TurnOnSwitch turns on the switch and, when tied, the light.
func (s *Switch) TurnOnSwitch() error {
	s.log.Info("switch ON")
	if err := s.relay.Enable(); err != nil {
		return fmt.Errorf("switch on: %w", err)
	}
	s.notify(true)
	if s.opts.TieSwitchToLight {
		if err := s.lamp.Enable(); err != nil {
			return fmt.Errorf("light on: %w", err)
		}
	}
	return nil
}

// TurnOffSwitch turns off the switch and, when tied, the light.
func (s *Switch) TurnOffSwitch() error {
	s.log.Info("switch OFF")
	if err := s.relay.Disable(); err != nil {
		return fmt.Errorf("switch off: %w", err)
	}
	s.notify(false)
	if s.opts.TieSwitchToLight {
		if err := s.lamp.Disable(); err != nil {
			return fmt.Errorf("light off: %w", err)
		}
	}
	return nil
}

func (s *Switch) notify(on bool) {
	if s.opts.OnSwitch != nil {
		s.opts.OnSwitch(logic.SwitchEvent{Timestamp: s.opts.Now(), On: on, Count: s.Count()})
	}
}

func (s *Switch) light(on bool) {
	var err error
	if on {
		err = s.lamp.Enable()
	} else {
		err = s.lamp.Disable()
	}
	if err != nil {
		s.log.Error("light write failed", "on", on, "err", err)
	}
}

func (s *Switch) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	tick, stopTicker := s.opts.NewTicker(s.opts.Tick)
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("loop complete")
			return
		default:
		}

		s.step()

		select {
		case <-ctx.Done():
			s.log.Info("loop complete")
			return
		case <-tick:
		}
	}
}

// step runs one iteration: read, count, compare against the hardware,
// and write at most once.
func (s *Switch) step() {
	t := logic.Tick{Timestamp: s.opts.Now()}
	defer func() {
		if s.opts.Observer != nil {
			s.opts.Observer(t)
		}
	}()

	triggered, err := s.sensor.Value()
	if err != nil {
		s.log.Error("pir read failed", "err", err)
		t.Err = err
		t.Count = s.counter.Count()
		t.On = s.counter.Active()
		return
	}
	t.Triggered = triggered

	count := s.counter.Step(triggered)
	s.mu.Lock()
	s.count = count
	s.mu.Unlock()
	t.Count = count
	t.On = count > 0
	s.log.Debug("pir sensor value", "triggered", triggered, "count", count)

	isOn, err := s.relay.IsOn()
	if err != nil {
		s.log.Error("switch state read failed", "err", err)
		t.Err = err
		return
	}

	switch {
	case t.On && !isOn:
		t.Changed = true
		t.Err = s.TurnOnSwitch()
	case !t.On && isOn:
		t.Changed = true
		t.Err = s.TurnOffSwitch()
	}
	if t.Err != nil {
		s.log.Error("switch write failed", "err", t.Err)
	}
}
