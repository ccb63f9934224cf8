package bridge

import (
	"sync"
)

// Stream is a push subscription handed out by the engine. The consumer reads
// Events until it is closed, then inspects Err to distinguish completion from
// failure. Stop cancels the subscription from the consumer side; after Stop
// the consumer must treat the stream as silently dead and draw no conclusion
// from how it terminates.
//
// Producer methods (Send, Complete, Fail) must be driven from a single
// goroutine. Complete and Fail are terminal; Send must not be called after
// either.
type Stream[T any] struct {
	events chan T

	stopOnce sync.Once
	stopCh   chan struct{}

	endOnce sync.Once

	mu  sync.Mutex
	err error
}

func NewStream[T any]() *Stream[T] {
	return &Stream[T]{
		events: make(chan T, 16),
		stopCh: make(chan struct{}),
	}
}

// Events is the delivery channel. It is closed when the producer completes or
// fails the stream.
func (s *Stream[T]) Events() <-chan T {
	return s.events
}

// Done is closed when the consumer stops the stream. Consumers select on it
// alongside Events so a stopped stream never blocks them.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.stopCh
}

// Err reports why the stream ended. It is nil after a normal completion and
// nil while the stream is live.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop cancels the subscription. Idempotent.
func (s *Stream[T]) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Stopped reports whether the consumer stopped the stream.
func (s *Stream[T]) Stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Send delivers one event. It returns false without delivering when the
// consumer has stopped the stream.
func (s *Stream[T]) Send(v T) bool {
	select {
	case <-s.stopCh:
		return false
	default:
	}

	select {
	case s.events <- v:
		return true
	case <-s.stopCh:
		return false
	}
}

// Complete ends the stream normally.
func (s *Stream[T]) Complete() {
	s.endOnce.Do(func() {
		close(s.events)
	})
}

// Fail ends the stream with err.
func (s *Stream[T]) Fail(err error) {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.events)
	})
}
