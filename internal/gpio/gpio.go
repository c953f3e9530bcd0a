// Package gpio provides GPIO inputs, edge notifications and outputs with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"log/slog"
	"time"
)

// Default pin assignments (BCM numbering).
const (
	DefaultPinPIR   = 24 // PIR sensor output
	DefaultPinDoor  = 7  // magnetic contact switch
	DefaultPinLight = 18 // white LED
)

// DefaultChip is the GPIO character device used on a Raspberry Pi.
const DefaultChip = "gpiochip0"

var (
	// ErrClosed is returned when using a line after Close.
	ErrClosed = errors.New("gpio: line closed")
	// ErrUnsupported is returned by the stub on non-Linux platforms.
	ErrUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")
)

// Input reads a polled digital input.
type Input interface {
	// Value returns true when the line is at logic high.
	Value() (bool, error)

	// Close releases the line.
	Close() error
}

// Level drives a digital output.
type Level interface {
	// Set drives the line high (true) or low (false).
	Set(high bool) error

	// Close releases the line.
	Close() error
}

// EdgeKind selects which transitions are reported.
type EdgeKind int

const (
	EdgeBoth EdgeKind = iota
	EdgeRising
	EdgeFalling
)

// Pull selects the input bias.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// WatchOptions configures an edge subscription.
type WatchOptions struct {
	Edges EdgeKind
	Pull  Pull
	// Debounce is applied by the kernel before an edge is reported.
	// Zero disables line-level debounce.
	Debounce time.Duration

	// Logger reports edges dropped on a full buffer. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// Edge is a level change reported by a subscription.
type Edge struct {
	Pin  int
	High bool // level after the edge
	Time time.Time
}

// Subscription delivers edges for one pin.
type Subscription interface {
	// Events returns the channel edges are delivered on.
	Events() <-chan Edge

	// Close releases the line. No edges are delivered after it returns.
	Close() error
}

// Watcher creates edge subscriptions.
type Watcher interface {
	Watch(pin int, opts WatchOptions) (Subscription, error)
}

// eventBuffer is the capacity of subscription channels. Edges arriving
// while the buffer is full are dropped.
const eventBuffer = 16

// edgeQueue hands edges to a consumer without ever blocking the producer.
// A run of drops is logged once when it starts and once when delivery
// resumes. Not safe for concurrent push; callers serialise.
type edgeQueue struct {
	events  chan Edge
	log     *slog.Logger
	dropped int
}

func newEdgeQueue(pin int, logger *slog.Logger) *edgeQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &edgeQueue{
		events: make(chan Edge, eventBuffer),
		log:    logger.With("pin", pin),
	}
}

// push queues e and reports whether it was accepted.
func (q *edgeQueue) push(e Edge) bool {
	select {
	case q.events <- e:
		if q.dropped > 0 {
			q.log.Warn("edge delivery resumed", "dropped", q.dropped)
			q.dropped = 0
		}
		return true
	default:
		if q.dropped == 0 {
			q.log.Warn("edge buffer full; dropping edges", "capacity", cap(q.events))
		}
		q.dropped++
		return false
	}
}
