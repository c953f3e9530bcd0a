package logic

// Default hysteresis parameters.
const (
	DefaultLimit = 10
	DefaultBoost = 5
)

// Hysteresis is a bounded counter that jumps to Boost on the first
// detection, climbs by one per triggered step up to Limit, and decays by
// one per quiet step. The output is active while the count is above zero.
//
// Invariant: 0 <= count <= limit.
type Hysteresis struct {
	count int
	limit int
	boost int
}

// NewHysteresis creates a counter at zero. A limit below 1 is replaced by
// DefaultLimit and boost is clamped into [1, limit].
func NewHysteresis(limit, boost int) *Hysteresis {
	if limit < 1 {
		limit = DefaultLimit
	}
	if boost < 1 {
		boost = 1
	}
	if boost > limit {
		boost = limit
	}
	return &Hysteresis{limit: limit, boost: boost}
}

// Step applies one sensor reading and returns the new count.
func (h *Hysteresis) Step(triggered bool) int {
	switch {
	case triggered && h.count == 0:
		h.count = h.boost
	case triggered && h.count < h.limit:
		h.count++
	case !triggered && h.count > 0:
		h.count--
	}
	return h.count
}

// Count returns the current count.
func (h *Hysteresis) Count() int {
	return h.count
}

// Active reports whether the output should be on.
func (h *Hysteresis) Active() bool {
	return h.count > 0
}

// Limit returns the upper bound.
func (h *Hysteresis) Limit() int {
	return h.limit
}

// Boost returns the value jumped to on first detection.
func (h *Hysteresis) Boost() int {
	return h.boost
}

// Reset sets the count back to zero.
func (h *Hysteresis) Reset() {
	h.count = 0
}
