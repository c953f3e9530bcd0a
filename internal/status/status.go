// Package status provides a thread-safe status tracker for the letterbox
// daemon. It is read by the HTTP handlers and the MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs           int64
	Limit            int
	Boost            int
	DebounceMs       int64
	TieSwitchToLight bool
	LightBackend     string
	Broker           string
	HTTPAddr         string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Enabled       bool
	SwitchOn      bool
	Count         int
	Door          logic.DoorState
	LastOpen      time.Duration
	LastDoorEvent time.Time
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetEnabled records whether the PIR loop is running.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.snap.Enabled = enabled
	t.mu.Unlock()
}

// ObserveTick records the count after a loop iteration.
func (t *Tracker) ObserveTick(tk logic.Tick) {
	t.mu.Lock()
	t.snap.Count = tk.Count
	t.mu.Unlock()
}

// ObserveSwitch records a switch transition and bumps its counter.
func (t *Tracker) ObserveSwitch(e logic.SwitchEvent) {
	t.mu.Lock()
	t.snap.SwitchOn = e.On
	t.snap.Count = e.Count
	if e.On {
		t.snap.Counts.SwitchOn++
	} else {
		t.snap.Counts.SwitchOff++
	}
	t.mu.Unlock()
}

// ObserveDoor records a door notification and bumps its counter.
func (t *Tracker) ObserveDoor(e logic.DoorEvent) {
	t.mu.Lock()
	t.snap.Door = e.State
	t.snap.LastDoorEvent = e.Timestamp
	switch e.State {
	case logic.DoorOpen:
		t.snap.Counts.DoorOpen++
	case logic.DoorClosed:
		t.snap.Counts.DoorClose++
		t.snap.LastOpen = e.Elapsed
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
