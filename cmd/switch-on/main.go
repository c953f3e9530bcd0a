// Command switch-on manually turns the HT0740 power switch (and its LED)
// on for a while, or off.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/letterbox-robot/internal/actuator"
	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/ht0740"
	"github.com/sweeney/letterbox-robot/internal/i2c"
	"github.com/sweeney/letterbox-robot/internal/pir"
)

func main() {
	fs := pflag.NewFlagSet("switch-on", pflag.ContinueOnError)
	chipName := fs.String("chip", gpio.DefaultChip, "GPIO chip")
	pin := fs.Int("pin", gpio.DefaultPinPIR, "BCM pin number of the PIR sensor")
	bus := fs.String("bus", i2c.DefaultBus, "I2C bus device")
	addr := fs.Int("address", ht0740.DefaultAddress, "HT0740 I2C address")
	hold := fs.Duration("hold", 10*time.Second, "How long to keep the switch on")
	off := fs.Bool("off", false, "Turn the switch off instead")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *chipName, *pin, *bus, *addr, *hold, *off, logger); err != nil {
		logger.Error("error turning switch on", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, chipName string, pin int, bus string, addr int, hold time.Duration, off bool, logger *slog.Logger) error {
	chip, err := gpio.OpenChip(chipName)
	if err != nil {
		return err
	}
	defer chip.Close()

	sensor, err := chip.Input(pin)
	if err != nil {
		return fmt.Errorf("pir: %w", err)
	}
	defer sensor.Close()

	dev, err := i2c.Open(bus, addr)
	if err != nil {
		return err
	}
	board, err := ht0740.New(dev, ht0740.Options{Logger: logger})
	if err != nil {
		dev.Close()
		return fmt.Errorf("ht0740 at 0x%02x: %w", addr, err)
	}
	defer board.Close()

	sw := pir.New(sensor,
		actuator.NewRelay(board.Switch(), logger),
		actuator.NewLight(actuator.Digital{Switch: board.LED()}, logger),
		pir.Options{TieSwitchToLight: true, Logger: logger})

	if off {
		return sw.TurnOffSwitch()
	}
	return holdOn(ctx, sw, hold)
}

// manual is the part of *pir.Switch used for manual control.
type manual interface {
	TurnOnSwitch() error
	TurnOffSwitch() error
}

// holdOn turns the switch on, waits for hold or ctx, then turns it off.
func holdOn(ctx context.Context, sw manual, hold time.Duration) error {
	if err := sw.TurnOnSwitch(); err != nil {
		return err
	}
	t := time.NewTimer(hold)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return sw.TurnOffSwitch()
}
