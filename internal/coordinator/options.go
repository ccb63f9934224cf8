package coordinator

import (
	"time"

	"github.com/compactd/compactd/internal/bridge"
)

type Option func(*Coordinator)

// WithArchiver persists every demoted job through a.
func WithArchiver(a Archiver) Option {
	return func(c *Coordinator) {
		c.archiver = a
	}
}

// WithDefaultAlgorithm supplies the algorithm applied when a start request
// does not name one.
func WithDefaultAlgorithm(fn func() bridge.Algorithm) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.defaultAlgorithm = fn
		}
	}
}

// WithTerminalLinger overrides how long Failed and Cancelled jobs stay in the
// active slot before demotion.
func WithTerminalLinger(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.linger = d
		}
	}
}
