package relay

import (
	"context"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/views"
	"github.com/compactd/compactd/internal/watch"
	"github.com/compactd/compactd/pkg/metrics"
)

const defaultResubscribeInterval = 5 * time.Second

// SubscribeFunc opens one engine event stream.
type SubscribeFunc[T any] func(ctx context.Context) (*bridge.Stream[T], error)

// Relay pumps a single engine event stream into a watch.Value so local
// consumers always observe the latest event without holding their own
// engine subscription. Whenever the stream ends, or subscribing fails,
// the relay waits for a jittered tick and subscribes again.
type Relay[T any] struct {
	name      string
	subscribe SubscribeFunc[T]
	observe   func(T)
	interval  time.Duration
	out       *watch.Value[T]
}

// New builds a relay for one stream.
func New[T any](name string, subscribe SubscribeFunc[T], opts ...Option) *Relay[T] {
	cfg := &config{interval: defaultResubscribeInterval}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Relay[T]{
		name:      name,
		subscribe: subscribe,
		interval:  cfg.interval,
		out:       watch.NewValue[T](),
	}
}

// Output carries the most recent relayed event once the first one arrived.
func (r *Relay[T]) Output() *watch.Value[T] {
	return r.out
}

// Run blocks until ctx is cancelled, forwarding events and resubscribing
// as needed.
func (r *Relay[T]) Run(ctx context.Context) {
	log := zap.S().Named("relay")

	// jitter spreads resubscribe storms when several relays lose the engine
	// at the same time
	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 10, Mean: 0})
	defer ticker.Stop()

	for {
		stream, err := r.subscribe(ctx)
		if err != nil {
			log.Warnw("subscribe failed", "stream", r.name, "error", err)
		} else if !r.pump(ctx, stream) {
			return
		}

		metrics.IncStreamRestart(r.name)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// pump forwards events until the stream ends. It returns false when ctx
// was cancelled and the relay should exit instead of resubscribing.
func (r *Relay[T]) pump(ctx context.Context, stream *bridge.Stream[T]) bool {
	log := zap.S().Named("relay")

	for {
		select {
		case <-ctx.Done():
			stream.Stop()
			return false
		case ev, ok := <-stream.Events():
			if !ok {
				if err := stream.Err(); err != nil {
					log.Warnw("stream ended", "stream", r.name, "error", err)
				} else {
					log.Debugw("stream completed", "stream", r.name)
				}
				return true
			}
			r.out.Set(ev)
			if r.observe != nil {
				r.observe(ev)
			}
		}
	}
}

// Relays bundles the engine streams the daemon mirrors locally.
type Relays struct {
	Queue             *Relay[[]bridge.QueueEntry]
	AutomationRunning *Relay[bool]
	Scheduler         *Relay[bridge.SchedulerState]
	Watcher           *Relay[bridge.WatcherEvent]
}

// NewRelays wires one relay per engine stream. The queue and automation
// relays also publish their latest event to the daemon gauges.
func NewRelays(engine bridge.Engine, opts ...Option) *Relays {
	queue := New("queue", engine.SubscribeQueue, opts...)
	queue.observe = func(entries []bridge.QueueEntry) {
		metrics.SetQueuePending(views.PendingCount(entries))
	}

	running := New("automation_running", engine.SubscribeAutomationRunning, opts...)
	running.observe = func(on bool) {
		metrics.SetAutomationRunning(on)
	}

	return &Relays{
		Queue:             queue,
		AutomationRunning: running,
		Scheduler:         New("scheduler", engine.SubscribeSchedulerState, opts...),
		Watcher:           New("watcher", engine.SubscribeWatcherEvents, opts...),
	}
}

// Run starts every relay and blocks until ctx is cancelled, then closes
// the outputs so downstream subscribers unblock.
func (r *Relays) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, run := range []func(context.Context){
		r.Queue.Run,
		r.AutomationRunning.Run,
		r.Scheduler.Run,
		r.Watcher.Run,
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}
	wg.Wait()

	r.Queue.Output().Close()
	r.AutomationRunning.Output().Close()
	r.Scheduler.Output().Close()
	r.Watcher.Output().Close()
}

type config struct {
	interval time.Duration
}

// Option tweaks relay construction.
type Option func(*config)

// WithResubscribeInterval overrides the delay between resubscribe attempts.
func WithResubscribeInterval(d time.Duration) Option {
	return func(c *config) {
		c.interval = d
	}
}
