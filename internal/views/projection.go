package views

import (
	"sort"
	"strings"
	"sync"

	"github.com/compactd/compactd/internal/bridge"
)

// SortField selects the listing sort key.
type SortField string

const (
	SortByName     SortField = "name"
	SortBySize     SortField = "size"
	SortBySavings  SortField = "savings"
	SortByPlatform SortField = "platform"
)

func StringToSortField(s string) SortField {
	switch s {
	case string(SortBySize):
		return SortBySize
	case string(SortBySavings):
		return SortBySavings
	case string(SortByPlatform):
		return SortByPlatform
	default:
		return SortByName
	}
}

// SortDirection is the listing order.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

func StringToSortDirection(s string) SortDirection {
	if s == string(SortDescending) {
		return SortDescending
	}
	return SortAscending
}

// Normalize trims and lowercases a search input.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// LibraryProjection is the memoized filtered and sorted listing. Repeating a
// projection with the same list identity, query, sort field and direction
// returns the previously computed slice itself, so downstream consumers can
// use identity comparison to skip re-rendering.
type LibraryProjection struct {
	mu     sync.Mutex
	input  []bridge.Game
	query  string
	field  SortField
	dir    SortDirection
	result []bridge.Game
	valid  bool
}

func NewLibraryProjection() *LibraryProjection {
	return &LibraryProjection{}
}

// Project filters games by case-insensitive substring match on the name and
// sorts by the selected field. query is normalized internally.
func (p *LibraryProjection) Project(games []bridge.Game, query string, field SortField, dir SortDirection) []bridge.Game {
	normalized := Normalize(query)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.valid && sameSlice(p.input, games) && p.query == normalized && p.field == field && p.dir == dir {
		return p.result
	}

	result := project(games, normalized, field, dir)

	p.input = games
	p.query = normalized
	p.field = field
	p.dir = dir
	p.result = result
	p.valid = true
	return result
}

// sameSlice reports whether a and b are the same slice view: equal length
// and, when non-empty, the same backing array start. Content is deliberately
// not compared; list producers swap the slice when content changes.
func sameSlice(a, b []bridge.Game) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func project(games []bridge.Game, query string, field SortField, dir SortDirection) []bridge.Game {
	out := make([]bridge.Game, 0, len(games))
	for _, g := range games {
		if query == "" || strings.Contains(strings.ToLower(g.Name), query) {
			out = append(out, g)
		}
	}

	less := lessFor(field)
	if dir == SortDescending {
		asc := less
		less = func(a, b *bridge.Game) bool { return asc(b, a) }
	}

	// ties keep input order
	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

func lessFor(field SortField) func(a, b *bridge.Game) bool {
	switch field {
	case SortBySize:
		return func(a, b *bridge.Game) bool { return a.OriginalSize < b.OriginalSize }
	case SortBySavings:
		return func(a, b *bridge.Game) bool { return a.SavingsPercent() < b.SavingsPercent() }
	case SortByPlatform:
		return func(a, b *bridge.Game) bool { return a.Platform < b.Platform }
	default:
		return func(a, b *bridge.Game) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
}
