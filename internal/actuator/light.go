package actuator

import (
	"log/slog"
	"sync"
)

// Mode is the light's drive mode.
type Mode int

const (
	ModeOff Mode = iota
	ModeFull
	ModePWM
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModePWM:
		return "pwm"
	default:
		return "off"
	}
}

// Light is the facade over a dimmable Output. Full-on and PWM modes are
// mutually exclusive: a request for one while the other is active is
// logged and ignored. Changing the duty cycle requires Disable first.
type Light struct {
	out Output
	log *slog.Logger

	mu   sync.Mutex
	mode Mode
	duty int
}

// NewLight wraps out. A nil logger uses slog.Default().
func NewLight(out Output, logger *slog.Logger) *Light {
	if logger == nil {
		logger = slog.Default()
	}
	return &Light{out: out, log: logger.With("component", "light")}
}

// Enable turns the light fully on.
func (l *Light) Enable() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mode == ModePWM {
		l.log.Warn("ignored: light is in pwm mode; disable first", "duty", l.duty)
		return nil
	}
	l.log.Info("enable")
	if err := l.out.On(); err != nil {
		return err
	}
	l.mode = ModeFull
	return nil
}

// PWM sets proportional brightness. A second call while PWM is active is
// rejected with a warning, as is a call while fully on.
func (l *Light) PWM(duty int) error {
	if duty < 0 || duty > 100 {
		return ErrDutyCycle
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.mode {
	case ModePWM:
		l.log.Warn("ignored: pwm already active; disable first", "duty", l.duty, "requested", duty)
		return nil
	case ModeFull:
		l.log.Warn("ignored: light is fully on; disable first", "requested", duty)
		return nil
	}
	l.log.Info("pwm", "duty", duty)
	if err := l.out.SetBrightness(duty); err != nil {
		return err
	}
	l.mode = ModePWM
	l.duty = duty
	return nil
}

// Disable turns the light off in any mode and clears the PWM marker.
func (l *Light) Disable() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.log.Info("disable")
	l.mode = ModeOff
	l.duty = 0
	return l.out.Off()
}

// Close is equivalent to Disable.
func (l *Light) Close() error {
	err := l.Disable()
	l.log.Info("closed")
	return err
}

// Mode returns the current drive mode.
func (l *Light) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Duty returns the active duty cycle, or 0 outside PWM mode.
func (l *Light) Duty() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.duty
}
