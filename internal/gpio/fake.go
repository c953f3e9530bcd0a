package gpio

import (
	"errors"
	"sync"
)

// FakeInput is a test double that returns scripted input values.
// Safe for concurrent use.
type FakeInput struct {
	mu sync.Mutex

	// samples contains scripted values to return.
	// Each call to Value() consumes the next sample.
	samples []bool

	// index tracks current position in samples
	index int

	// reads counts calls to Value
	reads int

	closed bool

	// readErr, if set, will be returned by Value()
	readErr error
}

// NewFakeInput creates a FakeInput with the given samples.
func NewFakeInput(samples ...bool) *FakeInput {
	return &FakeInput{samples: samples}
}

// Value returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInput) Value() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.readErr != nil {
		return false, f.readErr
	}
	if len(f.samples) == 0 {
		return false, errors.New("no samples configured")
	}

	v := f.samples[f.index]
	if f.index < len(f.samples)-1 {
		f.index++
	}
	return v, nil
}

// SetError makes subsequent reads fail with err (nil clears it).
func (f *FakeInput) SetError(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// Reads returns the number of Value calls.
func (f *FakeInput) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Close marks the input as closed.
func (f *FakeInput) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeInput) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset rewinds the input to the beginning of samples.
func (f *FakeInput) Reset() {
	f.mu.Lock()
	f.index = 0
	f.reads = 0
	f.closed = false
	f.mu.Unlock()
}

// FakeLevel records output writes.
type FakeLevel struct {
	mu     sync.Mutex
	high   bool
	writes []bool
	closed bool
	setErr error
}

// NewFakeLevel creates a FakeLevel driven low.
func NewFakeLevel() *FakeLevel {
	return &FakeLevel{}
}

// Set records the write.
func (f *FakeLevel) Set(high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.high = high
	f.writes = append(f.writes, high)
	return nil
}

// SetError makes subsequent writes fail with err.
func (f *FakeLevel) SetError(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

// High returns the current level.
func (f *FakeLevel) High() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.high
}

// Writes returns a copy of all recorded writes.
func (f *FakeLevel) Writes() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.writes...)
}

// Close marks the output as closed.
func (f *FakeLevel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeLevel) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeWatcher hands out FakeSubscriptions and lets tests inject edges.
type FakeWatcher struct {
	mu   sync.Mutex
	subs map[int]*FakeSubscription

	// WatchError, if set, is returned by Watch.
	WatchError error
}

// NewFakeWatcher creates an empty FakeWatcher.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{subs: make(map[int]*FakeSubscription)}
}

// Watch registers a subscription for pin.
func (w *FakeWatcher) Watch(pin int, opts WatchOptions) (Subscription, error) {
	if w.WatchError != nil {
		return nil, w.WatchError
	}
	s := &FakeSubscription{
		Pin:     pin,
		Options: opts,
		events:  make(chan Edge, eventBuffer),
	}
	w.mu.Lock()
	w.subs[pin] = s
	w.mu.Unlock()
	return s, nil
}

// Subscription returns the subscription for pin, or nil.
func (w *FakeWatcher) Subscription(pin int) *FakeSubscription {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subs[pin]
}

// FakeSubscription is a Subscription fed by Emit.
type FakeSubscription struct {
	Pin     int
	Options WatchOptions

	mu     sync.Mutex
	events chan Edge
	closed bool
}

// Emit delivers an edge. It blocks if the buffer is full and returns
// ErrClosed after Close.
func (s *FakeSubscription) Emit(e Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	e.Pin = s.Pin
	s.events <- e
	return nil
}

// Events returns the edge channel.
func (s *FakeSubscription) Events() <-chan Edge {
	return s.events
}

// Close marks the subscription closed.
func (s *FakeSubscription) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (s *FakeSubscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
