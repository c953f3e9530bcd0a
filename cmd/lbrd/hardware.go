package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sweeney/letterbox-robot/internal/actuator"
	"github.com/sweeney/letterbox-robot/internal/config"
	"github.com/sweeney/letterbox-robot/internal/daemon"
	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/ht0740"
	"github.com/sweeney/letterbox-robot/internal/hue"
	"github.com/sweeney/letterbox-robot/internal/i2c"
)

// hardware holds the opened devices until the daemon takes ownership.
type hardware struct {
	sensor  gpio.Input
	relay   *actuator.Relay
	light   *actuator.Light
	watcher gpio.Watcher
	doorPin int

	// closers are released in order after the relay and light.
	closers []io.Closer
}

func (h *hardware) daemonHardware() daemon.Hardware {
	return daemon.Hardware{
		Sensor:  h.sensor,
		Relay:   h.relay,
		Light:   h.light,
		Watcher: h.watcher,
		DoorPin: h.doorPin,
		Closers: h.closers,
	}
}

func (h *hardware) close() error {
	var errs []error
	if h.light != nil {
		errs = append(errs, h.light.Close())
	}
	if h.relay != nil {
		errs = append(errs, h.relay.Close())
	}
	for _, c := range h.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// openHardware opens the GPIO chip, the PIR line, the HT0740 board and
// the configured light. On failure everything opened so far is released.
func openHardware(cfg *config.Config, logger *slog.Logger) (hw *hardware, err error) {
	var opened []io.Closer
	defer func() {
		if err == nil {
			return
		}
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i].Close()
		}
	}()

	chip, err := gpio.OpenChip(cfg.GPIO.Chip)
	if err != nil {
		return nil, err
	}
	opened = append(opened, chip)

	sensor, err := chip.Input(*cfg.PIR.Pin)
	if err != nil {
		return nil, fmt.Errorf("pir: %w", err)
	}
	opened = append(opened, sensor)

	bus, err := i2c.Open(cfg.PIR.I2CBus, cfg.Address())
	if err != nil {
		return nil, err
	}
	board, err := ht0740.New(bus, ht0740.Options{Logger: logger})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ht0740 at 0x%02x: %w", cfg.Address(), err)
	}
	opened = append(opened, board)

	out, outCloser, err := newLightOutput(cfg.Light, board.LED(), func(pin int) (gpio.Level, error) {
		return chip.Output(pin)
	})
	if err != nil {
		return nil, err
	}
	if outCloser != nil {
		opened = append(opened, outCloser)
	}

	hw = &hardware{
		sensor: sensor,
		relay:  actuator.NewRelay(board.Switch(), logger),
		light:  actuator.NewLight(out, logger),
	}
	if cfg.DoorEnabled() {
		hw.watcher = chip
		hw.doorPin = *cfg.Door.Pin
	}

	// release order: lines before the devices that own them
	for i := len(opened) - 1; i >= 0; i-- {
		hw.closers = append(hw.closers, opened[i])
	}
	return hw, nil
}

// newLightOutput selects the light backend. led is the HT0740 indicator
// channel; output opens a GPIO line. The returned closer, if any, must be
// released with the hardware.
func newLightOutput(cfg config.Light, led actuator.Switch, output func(pin int) (gpio.Level, error)) (actuator.Output, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendHT0740:
		return actuator.Digital{Switch: led}, nil, nil
	case config.BackendGPIO:
		level, err := output(cfg.Pin)
		if err != nil {
			return nil, nil, fmt.Errorf("light: %w", err)
		}
		pwm := gpio.NewPWM(level, cfg.PWMPeriod, nil)
		return pwm, pwm, nil
	case config.BackendHue:
		return hue.New(cfg.Hue.Host, cfg.Hue.User, cfg.Hue.ID), nil, nil
	}
	return nil, nil, &config.Error{Key: "light.backend", Msg: fmt.Sprintf("unknown backend %q", cfg.Backend)}
}
