package window

import "sync"

// WakeSender is the producing half of a wake channel. Sends never block:
// payloads queue up and the receiver is signalled at most once per drain,
// so one wake may stand for several sends.
type WakeSender[T any] struct {
	q *wakeQueue[T]
}

// WakeReceiver is the consuming half of a wake channel. It is owned by the
// event loop.
type WakeReceiver[T any] struct {
	q *wakeQueue[T]
}

type wakeQueue[T any] struct {
	mu      sync.Mutex
	pending []T
	signal  chan struct{}
}

// NewWakeChannel returns the two halves of an unbounded wake channel.
func NewWakeChannel[T any]() (*WakeSender[T], *WakeReceiver[T]) {
	q := &wakeQueue[T]{signal: make(chan struct{}, 1)}
	return &WakeSender[T]{q: q}, &WakeReceiver[T]{q: q}
}

// Send queues v and wakes the receiver. A nil sender drops v.
func (s *WakeSender[T]) Send(v T) {
	if s == nil {
		return
	}
	s.q.mu.Lock()
	s.q.pending = append(s.q.pending, v)
	s.q.mu.Unlock()

	select {
	case s.q.signal <- struct{}{}:
	default:
	}
}

// C fires when at least one payload is waiting.
func (r *WakeReceiver[T]) C() <-chan struct{} {
	return r.q.signal
}

// Drain returns every queued payload in send order.
func (r *WakeReceiver[T]) Drain() []T {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	out := r.q.pending
	r.q.pending = nil
	return out
}
