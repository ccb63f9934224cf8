package estimation

import (
	"testing"

	"github.com/compactd/compactd/internal/bridge"
)

// mockEstimator is a test double implementing the Estimator interface.
type mockEstimator struct {
	name  string
	ratio float64
	ok    bool
	// calls counts how often Estimate was consulted.
	calls int
}

func (m *mockEstimator) Name() string { return m.name }
func (m *mockEstimator) Estimate(game bridge.Game, algorithm bridge.Algorithm) (int64, bool) {
	m.calls++
	if !m.ok {
		return 0, false
	}
	return int64(float64(game.SizeOnDisk) * m.ratio), true
}

func TestNewEngine(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	if e == nil {
		t.Fatal("expected non-nil Engine")
	}
	if len(e.estimators) != 0 {
		t.Errorf("expected 0 estimators, got %d", len(e.estimators))
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	e.Register(&mockEstimator{name: "A"})
	e.Register(&mockEstimator{name: "B"})
	if len(e.estimators) != 2 {
		t.Errorf("expected 2 estimators, got %d", len(e.estimators))
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	e.Register(&mockEstimator{name: "A"})
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate estimator name, got none")
		}
	}()
	e.Register(&mockEstimator{name: "A"})
}

func TestProject_FirstEstimatorWins(t *testing.T) {
	t.Parallel()
	first := &mockEstimator{name: "first", ratio: 0.5, ok: true}
	second := &mockEstimator{name: "second", ratio: 0.9, ok: true}

	e := NewEngine()
	e.Register(first)
	e.Register(second)

	p := e.Project([]bridge.Game{{Path: "/g/a", SizeOnDisk: 1000}}, bridge.AlgorithmLZX)

	if p.ProjectedBytes != 500 {
		t.Errorf("expected projection from the first estimator (500), got %d", p.ProjectedBytes)
	}
	if second.calls != 0 {
		t.Errorf("expected the second estimator to stay unconsulted, got %d calls", second.calls)
	}
}

func TestProject_FallsThroughDecliningEstimators(t *testing.T) {
	t.Parallel()
	declining := &mockEstimator{name: "declining", ok: false}
	pricing := &mockEstimator{name: "pricing", ratio: 0.6, ok: true}

	e := NewEngine()
	e.Register(declining)
	e.Register(pricing)

	p := e.Project([]bridge.Game{{Path: "/g/a", SizeOnDisk: 1000}}, bridge.AlgorithmLZX)

	if declining.calls != 1 {
		t.Errorf("expected the declining estimator to be consulted once, got %d", declining.calls)
	}
	if p.ProjectedBytes != 600 {
		t.Errorf("expected 600 projected bytes, got %d", p.ProjectedBytes)
	}
}

func TestProject_SkipsCompressedGames(t *testing.T) {
	t.Parallel()
	est := &mockEstimator{name: "any", ratio: 0.5, ok: true}
	e := NewEngine()
	e.Register(est)

	games := []bridge.Game{
		{Path: "/g/a", SizeOnDisk: 1000},
		{Path: "/g/b", SizeOnDisk: 400, OriginalSize: 800, Compressed: true},
	}
	p := e.Project(games, bridge.AlgorithmXpress8K)

	if p.GamesConsidered != 1 {
		t.Errorf("expected 1 game considered, got %d", p.GamesConsidered)
	}
	if p.AlreadyCompressed != 1 {
		t.Errorf("expected 1 game already compressed, got %d", p.AlreadyCompressed)
	}
	if p.TotalBytes != 1000 {
		t.Errorf("expected compressed game excluded from totals, got %d", p.TotalBytes)
	}
}

func TestProject_UnpricedGameKeepsSize(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	e.Register(&mockEstimator{name: "declining", ok: false})

	p := e.Project([]bridge.Game{{Path: "/g/a", SizeOnDisk: 1000}}, bridge.AlgorithmLZX)

	if p.ProjectedBytes != 1000 {
		t.Errorf("expected unpriced game to keep its size, got %d", p.ProjectedBytes)
	}
	if p.SavedBytes != 0 {
		t.Errorf("expected zero savings, got %d", p.SavedBytes)
	}
}

func TestProject_SavingsPercent(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	e.Register(&mockEstimator{name: "half", ratio: 0.5, ok: true})

	games := []bridge.Game{
		{Path: "/g/a", SizeOnDisk: 600},
		{Path: "/g/b", SizeOnDisk: 400},
	}
	p := e.Project(games, bridge.AlgorithmLZX)

	if p.TotalBytes != 1000 || p.ProjectedBytes != 500 {
		t.Fatalf("unexpected totals: %d -> %d", p.TotalBytes, p.ProjectedBytes)
	}
	if p.SavingsPercent != 50 {
		t.Errorf("expected 50%% savings, got %v", p.SavingsPercent)
	}
}

func TestProject_EmptyLibrary(t *testing.T) {
	t.Parallel()
	e := NewEngine()
	p := e.Project(nil, bridge.AlgorithmXpress8K)
	if p.SavingsPercent != 0 || p.TotalBytes != 0 {
		t.Errorf("expected zero projection for empty library, got %+v", p)
	}
}
