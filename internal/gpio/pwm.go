package gpio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultPWMPeriod is the software PWM period (100 Hz).
const DefaultPWMPeriod = 10 * time.Millisecond

// PWM drives a Level as a dimmable light. Full on and off are plain
// writes; intermediate brightness runs a software PWM goroutine.
type PWM struct {
	level  Level
	period time.Duration
	log    *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
	duty int

	faultMu sync.Mutex
	fault   error
}

// NewPWM wraps level. A non-positive period uses DefaultPWMPeriod and a
// nil logger uses slog.Default.
func NewPWM(level Level, period time.Duration, logger *slog.Logger) *PWM {
	if period <= 0 {
		period = DefaultPWMPeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PWM{level: level, period: period, log: logger.With("component", "pwm")}
}

// On drives the line high continuously.
func (p *PWM) On() error {
	return p.SetBrightness(100)
}

// Off drives the line low.
func (p *PWM) Off() error {
	return p.SetBrightness(0)
}

// SetBrightness sets the duty cycle in percent (0-100).
func (p *PWM) SetBrightness(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("pwm: duty cycle %d out of range 0-100", pct)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.halt()
	p.duty = pct
	p.setFault(nil)

	switch pct {
	case 0:
		return p.level.Set(false)
	case 100:
		return p.level.Set(true)
	}

	high := p.period * time.Duration(pct) / 100
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(high, p.period-high, p.stop, p.done)
	return nil
}

// Err returns the write error that stopped the PWM goroutine, if any.
// It is cleared by the next SetBrightness.
func (p *PWM) Err() error {
	p.faultMu.Lock()
	defer p.faultMu.Unlock()
	return p.fault
}

func (p *PWM) setFault(err error) {
	p.faultMu.Lock()
	p.fault = err
	p.faultMu.Unlock()
}

// Duty returns the last duty cycle set.
func (p *PWM) Duty() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty
}

// Close stops any running PWM and releases the line.
func (p *PWM) Close() error {
	p.mu.Lock()
	p.halt()
	p.duty = 0
	p.mu.Unlock()
	return p.level.Close()
}

// halt stops the PWM goroutine and waits for it. Caller holds mu.
func (p *PWM) halt() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
}

func (p *PWM) run(high, low time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()
	on := false
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}
		on = !on
		if err := p.level.Set(on); err != nil {
			p.log.Error("pwm write failed; stopping", "high", on, "err", err)
			p.setFault(fmt.Errorf("pwm: %w", err))
			return
		}
		if on {
			timer.Reset(high)
		} else {
			timer.Reset(low)
		}
	}
}
