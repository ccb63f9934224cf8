package estimation

import (
	"github.com/compactd/compactd/internal/bridge"
)

// Estimator prices the on-disk size of one game after compression with a
// given algorithm.
type Estimator interface {
	// Name returns the human-readable name of this estimator, used as the
	// registration key in the Engine.
	Name() string
	// Estimate returns the projected size in bytes. ok is false when the
	// estimator has no basis for this game and the next one should be asked.
	Estimate(game bridge.Game, algorithm bridge.Algorithm) (projected int64, ok bool)
}

// Projection aggregates per-game estimates into a library-wide savings
// forecast for one algorithm.
type Projection struct {
	Algorithm         bridge.Algorithm `json:"algorithm"`
	TotalBytes        int64            `json:"totalBytes"`
	ProjectedBytes    int64            `json:"projectedBytes"`
	SavedBytes        int64            `json:"savedBytes"`
	SavingsPercent    float64          `json:"savingsPercent"`
	GamesConsidered   int              `json:"gamesConsidered"`
	AlreadyCompressed int              `json:"alreadyCompressed"`
}
