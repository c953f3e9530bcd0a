//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Chip opens lines on an actual GPIO chip using the Linux GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip (e.g. "gpiochip0").
func OpenChip(name string) (*Chip, error) {
	c, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: c}, nil
}

// Close releases the chip. Lines already requested stay valid until closed.
func (c *Chip) Close() error {
	return c.chip.Close()
}

// InputLine is a polled input line.
type InputLine struct {
	line *gpiocdev.Line
}

// Input requests pin as an input with pull-down, matching the PIR
// sensor's push-pull output idling low.
func (c *Chip) Input(pin int) (*InputLine, error) {
	l, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	return &InputLine{line: l}, nil
}

// Value returns true when the line is high.
func (i *InputLine) Value() (bool, error) {
	v, err := i.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin: %w", err)
	}
	return v == 1, nil
}

// Close reconfigures the line to input with pull-down (Pi boot default)
// and releases it.
func (i *InputLine) Close() error {
	var errs []error
	if err := i.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure: %w", err))
	}
	if err := i.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	return errors.Join(errs...)
}

// OutputLine is a digital output line.
type OutputLine struct {
	line *gpiocdev.Line
}

// Output requests pin as an output driven low.
func (c *Chip) Output(pin int) (*OutputLine, error) {
	l, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &OutputLine{line: l}, nil
}

// Set drives the line.
func (o *OutputLine) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Close drives the line low, returns it to an input and releases it.
func (o *OutputLine) Close() error {
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("drive low: %w", err))
	}
	if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure: %w", err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	return errors.Join(errs...)
}

// EdgeLine is an edge subscription on a chip line. The kernel delivers
// events to a gpiocdev handler goroutine which forwards them to Events.
type EdgeLine struct {
	pin   int
	line  *gpiocdev.Line
	queue *edgeQueue

	mu     sync.Mutex
	closed bool
}

// Watch requests pin as an input with edge detection.
func (c *Chip) Watch(pin int, opts WatchOptions) (Subscription, error) {
	e := &EdgeLine{
		pin:   pin,
		queue: newEdgeQueue(pin, opts.Logger),
	}

	lineOpts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithEventHandler(e.handle),
	}
	switch opts.Edges {
	case EdgeRising:
		lineOpts = append(lineOpts, gpiocdev.WithRisingEdge)
	case EdgeFalling:
		lineOpts = append(lineOpts, gpiocdev.WithFallingEdge)
	default:
		lineOpts = append(lineOpts, gpiocdev.WithBothEdges)
	}
	switch opts.Pull {
	case PullUp:
		lineOpts = append(lineOpts, gpiocdev.WithPullUp)
	case PullDown:
		lineOpts = append(lineOpts, gpiocdev.WithPullDown)
	}
	if opts.Debounce > 0 {
		lineOpts = append(lineOpts, gpiocdev.WithDebounce(opts.Debounce))
	}

	l, err := c.chip.RequestLine(pin, lineOpts...)
	if err != nil {
		return nil, fmt.Errorf("request edge detection on pin %d: %w", pin, err)
	}
	e.line = l
	return e, nil
}

func (e *EdgeLine) handle(evt gpiocdev.LineEvent) {
	edge := Edge{
		Pin:  evt.Offset,
		High: evt.Type == gpiocdev.LineEventRisingEdge,
		Time: time.Now(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.queue.push(edge)
}

// Events returns the edge channel.
func (e *EdgeLine) Events() <-chan Edge {
	return e.queue.events
}

// Close releases the line. Handler invocations racing with Close are
// discarded.
func (e *EdgeLine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if err := e.line.Close(); err != nil {
		return fmt.Errorf("close edge line %d: %w", e.pin, err)
	}
	return nil
}
