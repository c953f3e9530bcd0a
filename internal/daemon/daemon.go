// Package daemon assembles the letterbox controller: the PIR actuator
// loop, the door monitor and their outputs (MQTT, status, metrics).
package daemon

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/letterbox-robot/internal/actuator"
	"github.com/sweeney/letterbox-robot/internal/door"
	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/logic"
	"github.com/sweeney/letterbox-robot/internal/metrics"
	"github.com/sweeney/letterbox-robot/internal/mqtt"
	"github.com/sweeney/letterbox-robot/internal/pir"
	"github.com/sweeney/letterbox-robot/internal/status"
)

// Hardware is the set of devices the daemon drives. The daemon takes
// ownership and releases everything on Close.
type Hardware struct {
	Sensor pir.Sensor
	Relay  *actuator.Relay
	Light  *actuator.Light

	// Watcher supplies door edges. Nil disables the door monitor.
	Watcher gpio.Watcher
	DoorPin int

	// Closers are released last, in order (GPIO chip, I2C bus).
	Closers []io.Closer
}

// Options configures a Daemon.
type Options struct {
	// PIR configures the actuator loop. Observer and OnSwitch are chained
	// after the daemon's own hooks.
	PIR pir.Options

	Door door.Options

	// Publisher receives switch, door and system events. Nil disables
	// publishing. The daemon closes it on Close.
	Publisher mqtt.Publisher

	Tracker *status.Tracker
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Daemon owns the controller's components.
type Daemon struct {
	hw      Hardware
	sw      *pir.Switch
	monitor *door.Monitor
	pub     mqtt.Publisher
	tracker *status.Tracker
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// New builds the daemon. The PIR loop is not started until Enable; the
// door monitor runs from construction.
func New(hw Hardware, opts Options) (*Daemon, error) {
	if hw.Sensor == nil || hw.Relay == nil || hw.Light == nil {
		return nil, fmt.Errorf("daemon: sensor, relay and light are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = status.NewTracker(now(), status.Config{})
	}

	d := &Daemon{
		hw:      hw,
		pub:     opts.Publisher,
		tracker: tracker,
		metrics: opts.Metrics,
		log:     logger.With("component", "daemon"),
		now:     now,
	}

	po := opts.PIR
	userObserver, userOnSwitch := po.Observer, po.OnSwitch
	po.Observer = func(t logic.Tick) {
		d.onTick(t)
		if userObserver != nil {
			userObserver(t)
		}
	}
	po.OnSwitch = func(e logic.SwitchEvent) {
		d.onSwitch(e)
		if userOnSwitch != nil {
			userOnSwitch(e)
		}
	}
	if po.Logger == nil {
		po.Logger = logger
	}
	if po.Now == nil {
		po.Now = now
	}
	d.sw = pir.New(hw.Sensor, hw.Relay, hw.Light, po)

	if hw.Watcher != nil {
		do := opts.Door
		if do.Logger == nil {
			do.Logger = logger
		}
		m, err := door.NewMonitor(hw.Watcher, hw.DoorPin, d.onDoor, do)
		if err != nil {
			d.releaseHardware()
			return nil, err
		}
		d.monitor = m
	} else {
		d.log.Info("door monitor disabled")
	}
	return d, nil
}

// Start publishes the STARTUP system event and enables the PIR loop.
func (d *Daemon) Start() {
	d.publishSystem("STARTUP", "")
	d.Enable()
}

// Stop turns the switch off, publishes the SHUTDOWN system event with
// reason, then closes.
func (d *Daemon) Stop(reason string) error {
	err := d.sw.Close()
	d.tracker.SetEnabled(false)
	d.publishSystem("SHUTDOWN", reason)
	return errors.Join(err, d.Close())
}

// Enable starts the PIR loop.
func (d *Daemon) Enable() {
	d.sw.Enable()
	d.tracker.SetEnabled(true)
}

// Disable stops the PIR loop.
func (d *Daemon) Disable() {
	d.sw.Disable()
	d.tracker.SetEnabled(false)
}

// Switch exposes the PIR switch for manual control.
func (d *Daemon) Switch() *pir.Switch {
	return d.sw
}

// DoorState returns the last dispatched door state.
func (d *Daemon) DoorState() logic.DoorState {
	if d.monitor == nil {
		return logic.DoorUnknown
	}
	return d.monitor.State()
}

// Close turns everything off and releases all resources. Safe to call
// more than once.
func (d *Daemon) Close() error {
	d.closeOnce.Do(func() {
		var errs []error
		if err := d.sw.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pir switch: %w", err))
		}
		d.tracker.SetEnabled(false)
		if d.monitor != nil {
			if err := d.monitor.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close door monitor: %w", err))
			}
		}
		if err := d.releaseHardware(); err != nil {
			errs = append(errs, err)
		}
		if d.pub != nil {
			if err := d.pub.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher: %w", err))
			}
		}
		d.closeErr = errors.Join(errs...)
		d.log.Info("closed")
	})
	return d.closeErr
}

func (d *Daemon) releaseHardware() error {
	var errs []error
	if err := d.hw.Light.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close light: %w", err))
	}
	if err := d.hw.Relay.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close relay: %w", err))
	}
	for _, c := range d.hw.Closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Daemon) onTick(t logic.Tick) {
	d.tracker.ObserveTick(t)
	d.metrics.ObserveTick(t)
	if cs, ok := d.pub.(mqtt.ConnectionStatus); ok {
		d.tracker.SetMQTTConnected(cs.IsConnected())
	}
}

func (d *Daemon) onSwitch(e logic.SwitchEvent) {
	d.tracker.ObserveSwitch(e)
	d.metrics.ObserveSwitch(e)
	if d.pub == nil {
		return
	}
	if err := d.pub.PublishSwitch(e); err != nil {
		d.log.Error("publish switch event failed", "err", err)
	}
}

func (d *Daemon) onDoor(state logic.DoorState, elapsed time.Duration) {
	e := logic.DoorEvent{Timestamp: d.now(), State: state, Elapsed: elapsed}
	d.tracker.ObserveDoor(e)
	d.metrics.ObserveDoor(state, elapsed)
	if d.pub == nil {
		return
	}
	if err := d.pub.PublishDoor(e); err != nil {
		d.log.Error("publish door event failed", "err", err)
	}
}

func (d *Daemon) publishSystem(event, reason string) {
	if d.pub == nil {
		return
	}
	if cs, ok := d.pub.(mqtt.ConnectionStatus); ok {
		d.tracker.SetMQTTConnected(cs.IsConnected())
	}
	snap := d.tracker.Snapshot()
	err := d.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		d.log.Error("failed to publish system event", "event", event, "err", err)
		return
	}
	d.log.Info("published system event", "event", event)
}
