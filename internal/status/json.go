package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Enabled       bool       `json:"enabled"`
	Switch        string     `json:"switch"`
	Count         int        `json:"count"`
	Door          DoorJSON   `json:"door"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// DoorJSON reports the door state and the duration of the last opening.
type DoorJSON struct {
	State           string  `json:"state"`
	LastOpenSeconds float64 `json:"last_open_seconds"`
	LastEvent       string  `json:"last_event,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	DoorOpen  int `json:"door_open"`
	DoorClose int `json:"door_close"`
	SwitchOn  int `json:"switch_on"`
	SwitchOff int `json:"switch_off"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs           int64  `json:"tick_ms"`
	Limit            int    `json:"limit"`
	Boost            int    `json:"boost"`
	DebounceMs       int64  `json:"debounce_ms"`
	TieSwitchToLight bool   `json:"tie_switch_to_light"`
	LightBackend     string `json:"light_backend"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Enabled:       snap.Enabled,
		Switch:        onOff(snap.SwitchOn),
		Count:         snap.Count,
		Door:          DoorJSON{State: snap.Door.String(), LastOpenSeconds: snap.LastOpen.Seconds()},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			DoorOpen:  snap.Counts.DoorOpen,
			DoorClose: snap.Counts.DoorClose,
			SwitchOn:  snap.Counts.SwitchOn,
			SwitchOff: snap.Counts.SwitchOff,
		},
		Config: ConfigJSON{
			TickMs:           snap.Config.TickMs,
			Limit:            snap.Config.Limit,
			Boost:            snap.Config.Boost,
			DebounceMs:       snap.Config.DebounceMs,
			TieSwitchToLight: snap.Config.TieSwitchToLight,
			LightBackend:     snap.Config.LightBackend,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}
	if !snap.LastDoorEvent.IsZero() {
		inner.Door.LastEvent = snap.LastDoorEvent.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
