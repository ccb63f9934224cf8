package estimation

import (
	"fmt"

	"github.com/compactd/compactd/internal/bridge"
)

// Engine orchestrates Estimator objects and aggregates their results
type Engine struct {
	estimators []Estimator
}

// NewEngine creates a new Engine with no estimators registered.
func NewEngine() *Engine {
	return &Engine{
		estimators: make([]Estimator, 0),
	}
}

// Register adds an Estimator to participate in the projection.
// Estimators are consulted in the order they are registered; the first one
// that prices a game wins. Register panics if an estimator with the same
// Name() is already registered, as duplicates would make the chain order
// ambiguous.
func (e *Engine) Register(est Estimator) {
	for _, existing := range e.estimators {
		if existing.Name() == est.Name() {
			panic(fmt.Sprintf("estimation: estimator %q already registered", est.Name()))
		}
	}
	e.estimators = append(e.estimators, est)
}

// Project walks the library and forecasts the disk savings of compressing
// every game that is not compressed yet. A game no estimator can price keeps
// its current size, which keeps the forecast conservative.
func (e *Engine) Project(games []bridge.Game, algorithm bridge.Algorithm) Projection {
	p := Projection{Algorithm: algorithm}

	for i := range games {
		g := &games[i]
		if g.Compressed {
			p.AlreadyCompressed++
			continue
		}

		p.GamesConsidered++
		p.TotalBytes += g.SizeOnDisk

		projected := g.SizeOnDisk
		for _, est := range e.estimators {
			if v, ok := est.Estimate(*g, algorithm); ok {
				projected = v
				break
			}
		}
		p.ProjectedBytes += projected
	}

	p.SavedBytes = p.TotalBytes - p.ProjectedBytes
	if p.TotalBytes > 0 {
		p.SavingsPercent = float64(p.SavedBytes) / float64(p.TotalBytes) * 100
	}
	return p
}
