package estimators

import (
	"github.com/compactd/compactd/internal/bridge"

	"github.com/compactd/compactd/internal/estimation"
)

// Compile-time assertion that Observed implements the Estimator interface.
var _ estimation.Estimator = (*Observed)(nil)

// Observed derives per-algorithm ratios from the games in the library that
// are already compressed, on the theory that one user's library compresses
// about the same everywhere. It declines to price algorithms it has not
// seen yet.
type Observed struct {
	ratios map[bridge.Algorithm]float64
}

// NewObserved builds an Observed estimator from a library snapshot. A game
// contributes to its algorithm's ratio when both of its sizes are known.
func NewObserved(games []bridge.Game) *Observed {
	sums := make(map[bridge.Algorithm]float64)
	counts := make(map[bridge.Algorithm]int)

	for i := range games {
		g := &games[i]
		if !g.Compressed || g.OriginalSize <= 0 || g.SizeOnDisk <= 0 {
			continue
		}
		sums[g.Algorithm] += float64(g.SizeOnDisk) / float64(g.OriginalSize)
		counts[g.Algorithm]++
	}

	ratios := make(map[bridge.Algorithm]float64, len(sums))
	for alg, sum := range sums {
		ratios[alg] = sum / float64(counts[alg])
	}

	return &Observed{ratios: ratios}
}

// Name returns the human-readable name of this estimator.
func (o *Observed) Name() string {
	return "observed"
}

// Estimate prices the game with the average ratio measured for the
// algorithm, or declines when the library holds no sample for it.
func (o *Observed) Estimate(game bridge.Game, algorithm bridge.Algorithm) (int64, bool) {
	ratio, ok := o.ratios[algorithm]
	if !ok {
		return 0, false
	}
	return int64(float64(game.SizeOnDisk) * ratio), true
}
