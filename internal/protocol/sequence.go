package protocol

import "sync/atomic"

// Sequence hands out monotonically increasing frame sequence numbers. One
// instance is shared by every component that originates server-side frames;
// it is safe for concurrent use.
type Sequence struct {
	n atomic.Uint32
}

func NewSequence() *Sequence { return &Sequence{} }

// Next returns the next sequence number, starting at 1.
func (s *Sequence) Next() uint32 { return s.n.Add(1) }
