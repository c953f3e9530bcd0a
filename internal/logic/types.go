// Package logic contains the pure control logic of the letterbox controller.
// This package has NO external dependencies (no GPIO, I2C, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// DoorState represents the settled state of the magnetic contact switch.
type DoorState string

const (
	// DoorUnknown is the zero value before the first notification. It is
	// never dispatched.
	DoorUnknown DoorState = ""
	DoorOpen    DoorState = "OPEN"
	DoorClosed  DoorState = "CLOSED"
)

// String returns the state name, or "UNKNOWN" before the first notification.
func (s DoorState) String() string {
	if s == DoorUnknown {
		return "UNKNOWN"
	}
	return string(s)
}

// Edge is a single level change of the contact switch, already classified.
type Edge struct {
	Open bool // true = pin high (magnet disconnected)
	Time time.Time
}

// DoorEvent represents a settled door transition.
type DoorEvent struct {
	Timestamp time.Time
	State     DoorState
	// Elapsed is how long the door was open. Zero for DoorOpen events.
	Elapsed time.Duration
}

// ElapsedSeconds returns Elapsed as fractional seconds.
func (e DoorEvent) ElapsedSeconds() float64 {
	return e.Elapsed.Seconds()
}

// SwitchEvent is emitted when the actuator loop changes the switch state.
type SwitchEvent struct {
	Timestamp time.Time
	On        bool
	Count     int
}

// Tick summarises one iteration of the actuator loop.
type Tick struct {
	Timestamp time.Time
	Triggered bool
	Count     int
	On        bool // desired switch state after this tick
	Changed   bool // a switch write was issued this tick
	Err       error
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	DoorOpen  int
	DoorClose int
	SwitchOn  int
	SwitchOff int
}
