package estimators

import (
	"github.com/compactd/compactd/internal/bridge"

	"github.com/compactd/compactd/internal/estimation"
)

// Default ratios are compressed-to-original size ratios measured on typical
// mixed game data, where texture and audio assets dominate the install.
const (
	DefaultXpress4KRatio  = 0.78
	DefaultXpress8KRatio  = 0.70
	DefaultXpress16KRatio = 0.65
	DefaultLZXRatio       = 0.58
)

// Compile-time assertion that Baseline implements the Estimator interface.
var _ estimation.Estimator = (*Baseline)(nil)

// Baseline prices every game with a fixed per-algorithm ratio. It is meant
// to sit last in the chain as the estimate of last resort.
type Baseline struct {
	ratios map[bridge.Algorithm]float64
}

// BaselineOption is a functional option for configuring a Baseline estimator.
type BaselineOption func(*Baseline)

// WithRatio overrides the ratio used for one algorithm. Ratios outside the
// (0, 1] interval are ignored and the default is kept.
func WithRatio(algorithm bridge.Algorithm, ratio float64) BaselineOption {
	return func(b *Baseline) {
		if ratio > 0 && ratio <= 1 {
			b.ratios[algorithm] = ratio
		}
	}
}

// NewBaseline creates a Baseline estimator with default ratios.
// Optional BaselineOption values can be supplied to override the defaults.
func NewBaseline(opts ...BaselineOption) *Baseline {
	b := &Baseline{
		ratios: map[bridge.Algorithm]float64{
			bridge.AlgorithmXpress4K:  DefaultXpress4KRatio,
			bridge.AlgorithmXpress8K:  DefaultXpress8KRatio,
			bridge.AlgorithmXpress16K: DefaultXpress16KRatio,
			bridge.AlgorithmLZX:       DefaultLZXRatio,
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Name returns the human-readable name of this estimator.
func (b *Baseline) Name() string {
	return "baseline"
}

// Estimate always prices the game; unknown algorithms fall back to the
// default algorithm's ratio.
func (b *Baseline) Estimate(game bridge.Game, algorithm bridge.Algorithm) (int64, bool) {
	ratio, ok := b.ratios[algorithm]
	if !ok {
		ratio = b.ratios[bridge.DefaultAlgorithm]
	}
	return int64(float64(game.SizeOnDisk) * ratio), true
}
