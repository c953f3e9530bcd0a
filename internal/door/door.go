// Package door monitors a magnetic contact switch and reports open/close
// transitions with the time the door stood open.
//
// The switch is wired between the pin and ground with the pin pulled up:
// the magnet holds the contact closed (pin low) and opening the door
// disconnects it (pin high).
package door

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/logic"
)

// Callback receives each settled transition. elapsed is zero for
// logic.DoorOpen. It runs on the monitor goroutine and is never invoked
// concurrently with itself; it should return quickly.
type Callback func(state logic.DoorState, elapsed time.Duration)

// Options configures a Monitor.
type Options struct {
	// Debounce discards edges closer than this to the previous accepted
	// edge. Default logic.DefaultDebounce.
	Debounce time.Duration

	// LineDebounce is passed to the GPIO line (kernel debounce). Zero
	// disables it.
	LineDebounce time.Duration

	Logger *slog.Logger

	// Observer receives every dispatched event after the callback.
	Observer func(logic.DoorEvent)
}

// Monitor is always active once constructed; there is no enable/disable.
type Monitor struct {
	pin      int
	cb       Callback
	observer func(logic.DoorEvent)
	log      *slog.Logger
	sub      gpio.Subscription

	// detector is owned by the run goroutine.
	detector *logic.DoorDetector

	mu    sync.Mutex
	state logic.DoorState

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewMonitor subscribes to edges on pin and starts dispatching to cb.
// It fails if the pin cannot be configured for edge detection.
func NewMonitor(w gpio.Watcher, pin int, cb Callback, opts Options) (*Monitor, error) {
	if cb == nil {
		return nil, fmt.Errorf("door: nil callback")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "door", "pin", pin)

	debounce := opts.Debounce
	if debounce == 0 {
		debounce = logic.DefaultDebounce
	}

	logger.Info("configuring magnetic contact switch")
	sub, err := w.Watch(pin, gpio.WatchOptions{
		Edges:    gpio.EdgeBoth,
		Pull:     gpio.PullUp,
		Debounce: opts.LineDebounce,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("door: configure edge detection: %w", err)
	}

	m := &Monitor{
		pin:      pin,
		cb:       cb,
		observer: opts.Observer,
		log:      logger,
		sub:      sub,
		detector: logic.NewDoorDetector(debounce),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.run()
	logger.Info("ready", "debounce", debounce)
	return m, nil
}

func (m *Monitor) run() {
	defer close(m.done)
	events := m.sub.Events()
	for {
		select {
		case <-m.stop:
			return
		case e := <-events:
			m.handle(e)
		}
	}
}

func (m *Monitor) handle(e gpio.Edge) {
	evt, ok := m.detector.Process(logic.Edge{Open: e.High, Time: e.Time})
	if !ok {
		m.log.Debug("edge suppressed", "high", e.High)
		return
	}

	m.mu.Lock()
	m.state = evt.State
	m.mu.Unlock()

	m.log.Info("door state change", "state", evt.State.String(), "elapsed", evt.Elapsed)
	m.cb(evt.State, evt.Elapsed)
	if m.observer != nil {
		m.observer(evt)
	}
}

// State returns the last dispatched state, or logic.DoorUnknown before
// the first notification.
func (m *Monitor) State() logic.DoorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close releases the edge subscription and waits for the dispatch
// goroutine to exit. No callback runs after Close returns.
func (m *Monitor) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.sub.Close()
		close(m.stop)
		<-m.done
		m.log.Info("closed")
	})
	return err
}
