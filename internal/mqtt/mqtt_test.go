package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

func TestNewTopics(t *testing.T) {
	tests := []struct {
		prefix string
		want   Topics
	}{
		{"home/letterbox", Topics{"home/letterbox/switch", "home/letterbox/door", "home/letterbox/system"}},
		{"home/letterbox/", Topics{"home/letterbox/switch", "home/letterbox/door", "home/letterbox/system"}},
		{"lbr", Topics{"lbr/switch", "lbr/door", "lbr/system"}},
		{"", Topics{"home/letterbox/switch", "home/letterbox/door", "home/letterbox/system"}},
	}
	for _, tt := range tests {
		if got := NewTopics(tt.prefix); got != tt.want {
			t.Errorf("NewTopics(%q): got %+v, want %+v", tt.prefix, got, tt.want)
		}
	}
}

func TestFormatSwitchPayload(t *testing.T) {
	event := logic.SwitchEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		On:        true,
		Count:     5,
	}

	payload, err := FormatSwitchPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"switch":{"timestamp":"2026-02-02T22:18:12Z","state":"ON","count":5}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSwitchPayloadOff(t *testing.T) {
	payload, err := FormatSwitchPayload(logic.SwitchEvent{Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SwitchPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Switch.State != "OFF" {
		t.Errorf("state: got %s, want OFF", parsed.Switch.State)
	}
	if parsed.Switch.Count != 0 {
		t.Errorf("count: got %d, want 0", parsed.Switch.Count)
	}
}

func TestFormatDoorPayload(t *testing.T) {
	tests := []struct {
		name  string
		event logic.DoorEvent
		want  string
	}{
		{
			name:  "open",
			event: logic.DoorEvent{Timestamp: time.Date(2026, 2, 2, 8, 0, 10, 0, time.UTC), State: logic.DoorOpen},
			want:  `{"door":{"timestamp":"2026-02-02T08:00:10Z","state":"OPEN","elapsed_seconds":0}}`,
		},
		{
			name: "closed",
			event: logic.DoorEvent{
				Timestamp: time.Date(2026, 2, 2, 8, 0, 13, 500000000, time.UTC),
				State:     logic.DoorClosed,
				Elapsed:   3500 * time.Millisecond,
			},
			want: `{"door":{"timestamp":"2026-02-02T08:00:13Z","state":"CLOSED","elapsed_seconds":3.5}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := FormatDoorPayload(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(payload) != tt.want {
				t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, tt.want)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("BST", 3600)
	event := logic.DoorEvent{
		Timestamp: time.Date(2026, 6, 1, 9, 0, 0, 0, loc),
		State:     logic.DoorOpen,
	}

	payload, err := FormatDoorPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed DoorPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Door.Timestamp != "2026-06-01T08:00:00Z" {
		t.Errorf("timestamp should be UTC, got %s", parsed.Door.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadReconnected(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishSwitch(logic.SwitchEvent{Timestamp: time.Now(), On: true, Count: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishDoor(logic.DoorEvent{Timestamp: time.Now(), State: logic.DoorOpen}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.SwitchEvents(); len(got) != 1 || !got[0].On {
		t.Errorf("switch events: got %+v", got)
	}
	if got := f.DoorEvents(); len(got) != 1 || got[0].State != logic.DoorOpen {
		t.Errorf("door events: got %+v", got)
	}
	sys := f.SystemEvents()
	if len(sys) != 1 || !sys[0].Retained {
		t.Errorf("system events: got %+v", sys)
	}
	if len(f.Payloads()) != 3 {
		t.Errorf("expected 3 payloads, got %d", len(f.Payloads()))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.SetError(errors.New("simulated error"))

	if err := f.PublishDoor(logic.DoorEvent{Timestamp: time.Now(), State: logic.DoorClosed}); err == nil {
		t.Error("expected error")
	}
	if err := f.PublishSwitch(logic.SwitchEvent{Timestamp: time.Now()}); err == nil {
		t.Error("expected error")
	}

	if len(f.DoorEvents()) != 0 || len(f.SwitchEvents()) != 0 {
		t.Error("expected no events recorded on error")
	}
}

func TestFakePublisherCloseAndReset(t *testing.T) {
	f := NewFakePublisher()

	if f.Closed() {
		t.Error("should not be closed initially")
	}
	f.PublishDoor(logic.DoorEvent{Timestamp: time.Now(), State: logic.DoorOpen})
	f.SetConnected(true)
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
	if !f.IsConnected() {
		t.Error("expected connected")
	}

	f.Reset()

	if len(f.DoorEvents()) != 0 || len(f.Payloads()) != 0 {
		t.Error("events should be cleared")
	}
	if f.Closed() {
		t.Error("closed should be reset")
	}
	if f.IsConnected() {
		t.Error("connected should be reset")
	}
}

func TestFakePublisherPreservesEventOrder(t *testing.T) {
	f := NewFakePublisher()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	states := []logic.DoorState{logic.DoorOpen, logic.DoorClosed, logic.DoorOpen, logic.DoorClosed}
	for i, s := range states {
		f.PublishDoor(logic.DoorEvent{Timestamp: base.Add(time.Duration(i) * time.Second), State: s})
	}

	got := f.DoorEvents()
	if len(got) != len(states) {
		t.Fatalf("expected %d events, got %d", len(states), len(got))
	}
	for i, s := range states {
		if got[i].State != s {
			t.Errorf("event %d: got %s, want %s", i, got[i].State, s)
		}
	}
}
