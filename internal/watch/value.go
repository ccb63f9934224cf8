package watch

import (
	"sync"
)

// Value holds the latest snapshot of one piece of state and fans it out to
// subscribers. Every observable surface of the daemon (active job, queue,
// automation flag, settings) is published through a Value.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	set     bool
	closed  bool
	subs    map[*Subscription[T]]struct{}
}

// Subscription delivers values through a capacity-1 channel. A slow consumer
// only ever sees the most recent value: stale intermediate snapshots are
// overwritten before delivery.
type Subscription[T any] struct {
	ch    chan T
	once  sync.Once
	unsub func(*Subscription[T])
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Set stores val as the current value and notifies all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}

	v.current = val
	v.set = true

	for s := range v.subs {
		s.deliver(val)
	}
}

// Get returns the current value. The second return is false until the first Set.
func (v *Value[T]) Get() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.set
}

// Subscribe registers a new subscriber. If a value has already been set it is
// delivered immediately, so late subscribers never miss the current state.
func (v *Value[T]) Subscribe() *Subscription[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := &Subscription[T]{
		ch:    make(chan T, 1),
		unsub: v.remove,
	}

	if v.closed {
		close(s.ch)
		return s
	}

	v.subs[s] = struct{}{}
	if v.set {
		s.deliver(v.current)
	}
	return s
}

// Close terminates all subscriptions. Further Set calls are ignored.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true

	for s := range v.subs {
		close(s.ch)
		delete(v.subs, s)
	}
}

func (v *Value[T]) remove(s *Subscription[T]) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.subs[s]; ok {
		delete(v.subs, s)
		close(s.ch)
	}
}

// Updates returns the delivery channel. It is closed when the subscription is
// cancelled or the Value is closed.
func (s *Subscription[T]) Updates() <-chan T {
	return s.ch
}

// Cancel detaches the subscription and closes its channel. Safe to call more
// than once.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.unsub(s)
	})
}

// deliver replaces any undrained value so the subscriber always observes the
// newest snapshot. Callers hold v.mu, which serializes all sends.
func (s *Subscription[T]) deliver(val T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- val
}
