package library

import (
	"sync"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/watch"
)

// Catalog holds the current library list. The stored slice is handed out
// without copying: downstream projections compare slice identity to decide
// whether anything changed, so Catalog only swaps the slice when content
// actually did change.
type Catalog struct {
	mu      sync.Mutex
	games   []bridge.Game
	value   *watch.Value[[]bridge.Game]
	refresh chan struct{}
}

func NewCatalog() *Catalog {
	return &Catalog{
		value:   watch.NewValue[[]bridge.Game](),
		refresh: make(chan struct{}, 1),
	}
}

// Replace swaps in a freshly listed library. Callers must not mutate the
// slice afterwards.
func (c *Catalog) Replace(games []bridge.Game) {
	c.mu.Lock()
	c.games = games
	c.mu.Unlock()

	c.value.Set(games)
}

// Games returns the current list. The same slice is returned until the list
// changes.
func (c *Catalog) Games() []bridge.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.games
}

// Find looks a game up by path.
func (c *Catalog) Find(path string) (bridge.Game, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.games {
		if c.games[i].Path == path {
			return c.games[i], true
		}
	}
	return bridge.Game{}, false
}

// Upsert replaces the entry matching g.Path, or appends when it is new. The
// list slice is rebuilt so observers see a changed identity.
func (c *Catalog) Upsert(g bridge.Game) {
	c.mu.Lock()

	next := make([]bridge.Game, len(c.games), len(c.games)+1)
	copy(next, c.games)

	replaced := false
	for i := range next {
		if next[i].Path == g.Path {
			next[i] = g
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, g)
	}
	c.games = next
	c.mu.Unlock()

	c.value.Set(next)
}

// RequestRefresh signals that the library should be listed again. Signals
// coalesce; a pending request absorbs later ones.
func (c *Catalog) RequestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// RefreshRequests is consumed by whatever component performs the actual
// listing.
func (c *Catalog) RefreshRequests() <-chan struct{} {
	return c.refresh
}

// Subscribe observes list replacements.
func (c *Catalog) Subscribe() *watch.Subscription[[]bridge.Game] {
	return c.value.Subscribe()
}

func (c *Catalog) Close() {
	c.value.Close()
}
