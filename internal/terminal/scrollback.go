package terminal

import "sync"

// DefaultScrollbackBytes is the per-session retention cap.
const DefaultScrollbackBytes = 10 * 1024

// Scrollback keeps the trailing cap bytes written to it.
type Scrollback struct {
	mu  sync.Mutex
	buf []byte
	cap int
}

// NewScrollback returns a buffer holding at most capacity bytes.
// Non-positive capacity uses DefaultScrollbackBytes.
func NewScrollback(capacity int) *Scrollback {
	if capacity <= 0 {
		capacity = DefaultScrollbackBytes
	}
	return &Scrollback{cap: capacity}
}

// Write appends p, discarding the oldest bytes beyond the cap. It never fails.
func (s *Scrollback) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(p) >= s.cap {
		s.buf = append(s.buf[:0], p[len(p)-s.cap:]...)
		return len(p), nil
	}
	if overflow := len(s.buf) + len(p) - s.cap; overflow > 0 {
		n := copy(s.buf, s.buf[overflow:])
		s.buf = s.buf[:n]
	}
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Snapshot returns a copy of the retained bytes.
func (s *Scrollback) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

func (s *Scrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

func (s *Scrollback) Cap() int {
	return s.cap
}
