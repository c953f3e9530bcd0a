package mqtt

import (
	"sync"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

// FakePublisher records published events for test assertions. It is safe
// for concurrent use; read recordings through the accessor methods.
type FakePublisher struct {
	mu sync.Mutex

	switchEvents []logic.SwitchEvent
	doorEvents   []logic.DoorEvent
	systemEvents []SystemEvent
	payloads     [][]byte

	publishErr error
	closed     bool
	connected  bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishSwitch records the switch event.
func (f *FakePublisher) PublishSwitch(event logic.SwitchEvent) error {
	payload, err := FormatSwitchPayload(event)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.switchEvents = append(f.switchEvents, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// PublishDoor records the door event.
func (f *FakePublisher) PublishDoor(event logic.DoorEvent) error {
	payload, err := FormatDoorPayload(event)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.doorEvents = append(f.doorEvents, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.systemEvents = append(f.systemEvents, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected controls the return value of IsConnected.
func (f *FakePublisher) SetConnected(c bool) {
	f.mu.Lock()
	f.connected = c
	f.mu.Unlock()
}

// SetError makes every subsequent publish fail with err (nil clears it).
func (f *FakePublisher) SetError(err error) {
	f.mu.Lock()
	f.publishErr = err
	f.mu.Unlock()
}

// SwitchEvents returns the recorded switch events.
func (f *FakePublisher) SwitchEvents() []logic.SwitchEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.SwitchEvent(nil), f.switchEvents...)
}

// DoorEvents returns the recorded door events.
func (f *FakePublisher) DoorEvents() []logic.DoorEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.DoorEvent(nil), f.doorEvents...)
}

// SystemEvents returns the recorded system events.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// Payloads returns every recorded JSON payload in publish order.
func (f *FakePublisher) Payloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switchEvents = nil
	f.doorEvents = nil
	f.systemEvents = nil
	f.payloads = nil
	f.closed = false
	f.publishErr = nil
	f.connected = false
}
