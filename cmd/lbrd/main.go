// Command lbrd runs the letterbox controller: the PIR-driven power switch,
// the door monitor, MQTT publishing and the HTTP status page.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/letterbox-robot/internal/config"
	"github.com/sweeney/letterbox-robot/internal/daemon"
	"github.com/sweeney/letterbox-robot/internal/door"
	"github.com/sweeney/letterbox-robot/internal/metrics"
	"github.com/sweeney/letterbox-robot/internal/mqtt"
	"github.com/sweeney/letterbox-robot/internal/pir"
	"github.com/sweeney/letterbox-robot/internal/status"
	"github.com/sweeney/letterbox-robot/internal/web"
)

const defaultConfigPath = "/etc/letterbox-robot/config.yaml"

type cliFlags struct {
	configPath string
	httpAddr   string
	broker     string
	logLevel   string
	printState bool

	fs *pflag.FlagSet
}

func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{fs: pflag.NewFlagSet("lbrd", pflag.ContinueOnError)}
	f.fs.StringVarP(&f.configPath, "config", "c", defaultConfigPath, "Path to the YAML configuration file")
	f.fs.StringVar(&f.httpAddr, "http", "", "HTTP status address, overrides http.addr (\"off\" disables)")
	f.fs.StringVar(&f.broker, "broker", "", "MQTT broker URL, overrides mqtt.broker (\"off\" disables)")
	f.fs.StringVar(&f.logLevel, "log-level", "", "Log level, overrides log.level")
	f.fs.BoolVar(&f.printState, "print-state", false, "Print sensor and switch state and exit")
	if err := f.fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overrides cfg with the flags given on the command line.
func (f *cliFlags) apply(cfg *config.Config) error {
	if f.fs.Changed("http") {
		cfg.HTTP.Addr = offToEmpty(f.httpAddr)
	}
	if f.fs.Changed("broker") {
		cfg.MQTT.Broker = offToEmpty(f.broker)
	}
	if f.fs.Changed("log-level") {
		if _, err := config.ParseLevel(f.logLevel); err != nil {
			return &config.Error{Key: "log.level", Msg: err.Error()}
		}
		cfg.Log.Level = f.logLevel
	}
	return nil
}

func offToEmpty(s string) string {
	if s == "off" {
		return ""
	}
	return s
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(flags); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	l, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func run(flags *cliFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if err := flags.apply(cfg); err != nil {
		return err
	}

	logger, err := newLogger(os.Stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	hw, err := openHardware(cfg, logger)
	if err != nil {
		return err
	}

	if flags.printState {
		defer hw.close()
		return printState(os.Stdout, hw)
	}

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	m := metrics.New()

	var publisher mqtt.Publisher
	if cfg.MQTT.Broker != "" {
		publisher = mqtt.NewRealPublisher(mqtt.Options{
			Broker:             cfg.MQTT.Broker,
			ClientID:           cfg.MQTT.ClientID,
			TopicPrefix:        cfg.MQTT.TopicPrefix,
			Logger:             logger,
			OnConnectionChange: tracker.SetMQTTConnected,
		})
	} else {
		logger.Info("mqtt publishing disabled")
	}

	d, err := daemon.New(hw.daemonHardware(), daemon.Options{
		PIR: pir.Options{
			Tick:             cfg.PIR.Tick,
			Limit:            cfg.PIR.Limit,
			Boost:            cfg.PIR.Boost,
			TieSwitchToLight: cfg.Tied(),
		},
		Door: door.Options{
			Debounce:     cfg.Door.Debounce,
			LineDebounce: cfg.Door.LineDebounce,
		},
		Publisher: publisher,
		Tracker:   tracker,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		return fmt.Errorf("start daemon: %w", err)
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, web.Options{
			Metrics:   m.Handler(),
			AccessLog: os.Stderr,
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	d.Start()
	logger.Info("started",
		"tick", cfg.PIR.Tick,
		"limit", cfg.PIR.Limit,
		"boost", cfg.PIR.Boost,
		"tied", cfg.Tied(),
		"light", cfg.Light.Backend,
		"door", cfg.DoorEnabled(),
		"broker", cfg.MQTT.Broker)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(d, sigCh, logger)
}

// stopper is the part of *daemon.Daemon the signal loop needs.
type stopper interface {
	Stop(reason string) error
}

// runLoop blocks until a shutdown signal arrives, then stops d.
func runLoop(d stopper, sig <-chan os.Signal, logger *slog.Logger) error {
	s := <-sig
	reason := signalName(s)
	logger.Info("shutting down", "signal", reason)
	if err := d.Stop(reason); err != nil {
		// hardware is already released as far as possible
		logger.Warn("errors during shutdown", "err", err)
	}
	return nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func statusConfig(cfg *config.Config) status.Config {
	return status.Config{
		TickMs:           cfg.PIR.Tick.Milliseconds(),
		Limit:            cfg.PIR.Limit,
		Boost:            cfg.PIR.Boost,
		DebounceMs:       cfg.Door.Debounce.Milliseconds(),
		TieSwitchToLight: cfg.Tied(),
		LightBackend:     cfg.Light.Backend,
		Broker:           cfg.MQTT.Broker,
		HTTPAddr:         cfg.HTTP.Addr,
	}
}

func printState(w io.Writer, hw *hardware) error {
	triggered, err := hw.sensor.Value()
	if err != nil {
		return fmt.Errorf("read pir: %w", err)
	}
	on, err := hw.relay.IsOn()
	if err != nil {
		return fmt.Errorf("read switch: %w", err)
	}
	fmt.Fprintf(w, "PIR: %s, switch: %s\n", triggeredString(triggered), onOff(on))
	return nil
}

func triggeredString(t bool) string {
	if t {
		return "MOTION"
	}
	return "IDLE"
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
