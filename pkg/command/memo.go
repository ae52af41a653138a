package command

// Memo remembers the last sent value so unchanged commands are suppressed.
type Memo[T comparable] struct {
	last T
	set  bool
}

// Changed reports whether v differs from the stored value. An empty memo
// treats everything as changed.
func (m *Memo[T]) Changed(v T) bool {
	return !m.set || v != m.last
}

// Store records v as sent.
func (m *Memo[T]) Store(v T) {
	m.last, m.set = v, true
}

// Last returns the stored value and whether one is set.
func (m *Memo[T]) Last() (T, bool) {
	return m.last, m.set
}

// Clear forgets the stored value.
func (m *Memo[T]) Clear() {
	var zero T
	m.last, m.set = zero, false
}
