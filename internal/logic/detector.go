package logic

import "time"

// DefaultDebounce is the suppression window applied to door edges.
const DefaultDebounce = 300 * time.Millisecond

// DoorDetector classifies edges into settled door transitions.
// Not safe for concurrent use; the door monitor calls it from one goroutine.
type DoorDetector struct {
	window       time.Duration
	state        DoorState
	openedAt     time.Time
	lastAccepted time.Time
	accepted     bool
	counts       EventCounts
}

// NewDoorDetector creates a detector with the given suppression window.
// A negative window is treated as zero (no suppression).
func NewDoorDetector(window time.Duration) *DoorDetector {
	if window < 0 {
		window = 0
	}
	return &DoorDetector{window: window}
}

// Process takes a raw edge and returns the event to dispatch, if any.
//
// Edges arriving within the window after the previously accepted edge are
// discarded without touching state. An edge stamped before the previous
// one (clock stepped back) is never suppressed. An accepted edge that reports the
// state we are already in produces no event. The first notification is
// authoritative: a first Closed reports zero elapsed time.
func (d *DoorDetector) Process(edge Edge) (DoorEvent, bool) {
	if d.accepted {
		if dt := edge.Time.Sub(d.lastAccepted); dt >= 0 && dt < d.window {
			return DoorEvent{}, false
		}
	}
	d.accepted = true
	d.lastAccepted = edge.Time

	if edge.Open {
		if d.state == DoorOpen {
			return DoorEvent{}, false
		}
		d.state = DoorOpen
		d.openedAt = edge.Time
		d.counts.DoorOpen++
		return DoorEvent{Timestamp: edge.Time, State: DoorOpen}, true
	}

	if d.state == DoorClosed {
		return DoorEvent{}, false
	}
	var elapsed time.Duration
	if d.state == DoorOpen {
		elapsed = edge.Time.Sub(d.openedAt)
		if elapsed < 0 {
			elapsed = 0
		}
	}
	d.state = DoorClosed
	d.counts.DoorClose++
	return DoorEvent{Timestamp: edge.Time, State: DoorClosed, Elapsed: elapsed}, true
}

// State returns the current settled state.
func (d *DoorDetector) State() DoorState {
	return d.state
}

// OpenedAt returns the time of the most recent Open transition.
func (d *DoorDetector) OpenedAt() time.Time {
	return d.openedAt
}

// Counts returns the number of dispatched door events so far.
func (d *DoorDetector) Counts() EventCounts {
	return d.counts
}
