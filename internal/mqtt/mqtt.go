// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

// DefaultPrefix is the topic prefix when none is configured.
const DefaultPrefix = "home/letterbox"

// Topics are the per-daemon MQTT topics.
type Topics struct {
	Switch string
	Door   string
	System string
}

// NewTopics derives the topics under prefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Switch: prefix + "/switch",
		Door:   prefix + "/door",
		System: prefix + "/system",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishSwitch sends a power switch transition.
	// Returns error if publishing fails (should not crash the process).
	PublishSwitch(event logic.SwitchEvent) error

	// PublishDoor sends a door notification.
	PublishDoor(event logic.DoorEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SwitchPayload is the message body for a switch transition.
type SwitchPayload struct {
	Switch SwitchInner `json:"switch"`
}

// SwitchInner contains the switch event details.
type SwitchInner struct {
	Timestamp string `json:"timestamp"`
	State     string `json:"state"`
	Count     int    `json:"count"`
}

// DoorPayload is the message body for a door notification.
type DoorPayload struct {
	Door DoorInner `json:"door"`
}

// DoorInner contains the door event details.
type DoorInner struct {
	Timestamp      string  `json:"timestamp"`
	State          string  `json:"state"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// FormatSwitchPayload creates the JSON payload for a switch event.
func FormatSwitchPayload(event logic.SwitchEvent) ([]byte, error) {
	state := "OFF"
	if event.On {
		state = "ON"
	}
	return json.Marshal(SwitchPayload{
		Switch: SwitchInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			State:     state,
			Count:     event.Count,
		},
	})
}

// FormatDoorPayload creates the JSON payload for a door event.
func FormatDoorPayload(event logic.DoorEvent) ([]byte, error) {
	return json.Marshal(DoorPayload{
		Door: DoorInner{
			Timestamp:      event.Timestamp.UTC().Format(time.RFC3339),
			State:          event.State.String(),
			ElapsedSeconds: event.ElapsedSeconds(),
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
