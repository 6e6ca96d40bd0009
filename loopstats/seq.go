package loopstats

import "go.uber.org/atomic"

// Sequence hands out loop IDs 0, 1, 2, ... It is safe for concurrent use.
// The zero value is ready to use.
type Sequence struct {
	n atomic.Int64
}

// Next returns the next ID.
func (s *Sequence) Next() int64 {
	return s.n.Inc() - 1
}

// Reset restarts the sequence from 0.
func (s *Sequence) Reset() {
	s.n.Store(0)
}
