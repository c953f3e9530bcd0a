package actuator

import "log/slog"

// Relay is the facade over the power switch.
type Relay struct {
	sw  Switch
	log *slog.Logger
}

// NewRelay wraps sw. A nil logger uses slog.Default().
func NewRelay(sw Switch, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{sw: sw, log: logger.With("component", "relay")}
}

// Enable energises the relay.
func (r *Relay) Enable() error {
	r.log.Debug("enable")
	return r.sw.On()
}

// Disable de-energises the relay.
func (r *Relay) Disable() error {
	r.log.Debug("disable")
	return r.sw.Off()
}

// IsOn reads the relay's state from the hardware.
func (r *Relay) IsOn() (bool, error) {
	return r.sw.State()
}

// Close turns the relay off.
func (r *Relay) Close() error {
	return r.sw.Off()
}
