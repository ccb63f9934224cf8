package views

import (
	"sync"
	"time"

	"github.com/compactd/compactd/internal/watch"
)

// DefaultDebounce is the quiet period applied to search keystrokes.
const DefaultDebounce = 220 * time.Millisecond

// SearchDebouncer turns raw keystroke input into a committed query. A commit
// happens once the input has been quiet for the configured delay; clearing
// the input commits immediately so an emptied search box reacts instantly.
type SearchDebouncer struct {
	mu     sync.Mutex
	timer  *time.Timer
	delay  time.Duration
	value  *watch.Value[string]
	closed bool
}

func NewSearchDebouncer(delay time.Duration) *SearchDebouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	d := &SearchDebouncer{
		delay: delay,
		value: watch.NewValue[string](),
	}
	d.value.Set("")
	return d
}

// Input feeds the current raw input value.
func (d *SearchDebouncer) Input(raw string) {
	normalized := Normalize(raw)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	// a pending timer is always cancelled before arming a new one
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if normalized == "" {
		d.value.Set("")
		return
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.closed {
			return
		}
		d.timer = nil
		d.value.Set(normalized)
	})
}

// Committed returns the query in effect.
func (d *SearchDebouncer) Committed() string {
	q, _ := d.value.Get()
	return q
}

// Subscribe observes committed queries. The current one is delivered
// immediately.
func (d *SearchDebouncer) Subscribe() *watch.Subscription[string] {
	return d.value.Subscribe()
}

func (d *SearchDebouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.value.Close()
}
