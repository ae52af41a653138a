package command

// Resender repeats a discrete value for a fixed number of cycles after
// every change, to ride out lossy delivery.
type Resender struct {
	count     int
	remaining int
	memo      Memo[int]
}

// NewResender creates a Resender that sends each new value count times.
func NewResender(count int) *Resender {
	return &Resender{count: count}
}

// Offer presents this cycle's value. It returns true when the value should
// be sent now and consumes one send.
func (r *Resender) Offer(v int) bool {
	if r.memo.Changed(v) {
		r.memo.Store(v)
		r.remaining = r.count
	}
	if r.remaining <= 0 {
		return false
	}
	r.remaining--
	return true
}

// Remaining returns the sends left for the current value.
func (r *Resender) Remaining() int { return r.remaining }
