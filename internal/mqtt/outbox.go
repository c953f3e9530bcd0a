package mqtt

// message is a serialized publish, held for replay while offline.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues messages published while the broker is unreachable.
// When full the oldest message is overwritten. Callers synchronize.
type outbox struct {
	slots   []message
	start   int // index of the oldest message
	n       int
	dropped int // overwritten since the last flush
}

func newOutbox(size int) *outbox {
	if size < 1 {
		size = 1
	}
	return &outbox{slots: make([]message, size)}
}

// add queues m. It reports true only for the first overwrite since the
// last flush, so callers can warn once per outage.
func (o *outbox) add(m message) bool {
	size := len(o.slots)
	if o.n < size {
		o.slots[(o.start+o.n)%size] = m
		o.n++
		return false
	}
	o.slots[o.start] = m
	o.start = (o.start + 1) % size
	o.dropped++
	return o.dropped == 1
}

// flush empties the outbox and returns its messages oldest first.
func (o *outbox) flush() []message {
	if o.n == 0 {
		return nil
	}
	out := make([]message, o.n)
	for i := range out {
		out[i] = o.slots[(o.start+i)%len(o.slots)]
	}
	clear(o.slots)
	o.start, o.n, o.dropped = 0, 0, 0
	return out
}

func (o *outbox) len() int {
	return o.n
}

func (o *outbox) size() int {
	return len(o.slots)
}
