// Command door-watch prints letterbox door events until interrupted.
// It is a bench test for the magnetic contact switch.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/sweeney/letterbox-robot/internal/door"
	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/logic"
)

var (
	openColor   = color.New(color.FgYellow)
	closedColor = color.New(color.FgCyan)
	exitColor   = color.New(color.FgCyan, color.Bold)
)

func main() {
	fs := pflag.NewFlagSet("door-watch", pflag.ContinueOnError)
	chipName := fs.String("chip", gpio.DefaultChip, "GPIO chip")
	pin := fs.Int("pin", gpio.DefaultPinDoor, "BCM pin number of the contact switch")
	debounce := fs.Duration("debounce", logic.DefaultDebounce, "Minimum time between accepted edges")
	verbose := fs.BoolP("verbose", "v", false, "Log suppressed edges")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *chipName, *pin, *debounce, logger); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, chipName string, pin int, debounce time.Duration, logger *slog.Logger) error {
	chip, err := gpio.OpenChip(chipName)
	if err != nil {
		return err
	}
	defer chip.Close()

	return watch(ctx, chip, pin, debounce, os.Stdout, logger)
}

// watch prints each door event to w until ctx is done.
func watch(ctx context.Context, w gpio.Watcher, pin int, debounce time.Duration, out io.Writer, logger *slog.Logger) error {
	m, err := door.NewMonitor(w, pin, printer(out), door.Options{Debounce: debounce, Logger: logger})
	if err != nil {
		return err
	}
	defer m.Close()

	<-ctx.Done()
	exitColor.Fprintln(out, "caught signal; exiting...")
	return nil
}

func printer(out io.Writer) door.Callback {
	return func(state logic.DoorState, elapsed time.Duration) {
		if state == logic.DoorOpen {
			openColor.Fprintf(out, "door %s\n", state)
			return
		}
		closedColor.Fprintf(out, "door %s; elapsed: %5.2f sec.\n", state, elapsed.Seconds())
	}
}
