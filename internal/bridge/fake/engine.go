package fake

import (
	"context"
	"sync"

	"github.com/compactd/compactd/internal/bridge"
)

// StartCall records one StartCompression invocation.
type StartCall struct {
	Path      string
	Name      string
	Algorithm bridge.Algorithm
}

// Engine is a test double for bridge.Engine. Behavior is overridden per test
// through the *Fn fields; unset fields fall back to a recording no-op that
// hands out streams the test drives directly. All recorded state is read
// through accessors so assertions can run concurrently with the code under
// test.
type Engine struct {
	StartCompressionFn             func(ctx context.Context, path, name string, algorithm bridge.Algorithm) error
	SubscribeCompressionProgressFn func(ctx context.Context) (*bridge.Stream[bridge.Progress], error)
	CancelCompressionFn            func(ctx context.Context) error
	DecompressFn                   func(ctx context.Context, path string) error
	HydrateFn                      func(ctx context.Context, path, name, platform string) (*bridge.Game, error)
	PushAutomationConfigFn         func(ctx context.Context, cfg bridge.AutomationConfig) error
	StartAutomationFn              func(ctx context.Context) error
	StopAutomationFn               func(ctx context.Context) error

	mu sync.Mutex

	progress  *bridge.Stream[bridge.Progress]
	queue     *bridge.Stream[[]bridge.QueueEntry]
	running   *bridge.Stream[bool]
	scheduler *bridge.Stream[bridge.SchedulerState]
	watcher   *bridge.Stream[bridge.WatcherEvent]

	games map[string]bridge.Game

	started       []StartCall
	cancels       int
	decompressed  []string
	hydrated      []string
	pushedConfigs []bridge.AutomationConfig
	automationOn  int
	automationOff int
}

var _ bridge.Engine = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{games: make(map[string]bridge.Game)}
}

// SetGame seeds the default Hydrate reply for a path.
func (e *Engine) SetGame(g bridge.Game) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.games[g.Path] = g
}

func (e *Engine) StartCompression(ctx context.Context, path, name string, algorithm bridge.Algorithm) error {
	e.mu.Lock()
	e.started = append(e.started, StartCall{Path: path, Name: name, Algorithm: algorithm})
	e.mu.Unlock()

	if e.StartCompressionFn != nil {
		return e.StartCompressionFn(ctx, path, name, algorithm)
	}
	return nil
}

func (e *Engine) SubscribeCompressionProgress(ctx context.Context) (*bridge.Stream[bridge.Progress], error) {
	if e.SubscribeCompressionProgressFn != nil {
		return e.SubscribeCompressionProgressFn(ctx)
	}

	s := bridge.NewStream[bridge.Progress]()
	e.mu.Lock()
	e.progress = s
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) CancelCompression(ctx context.Context) error {
	e.mu.Lock()
	e.cancels++
	e.mu.Unlock()

	if e.CancelCompressionFn != nil {
		return e.CancelCompressionFn(ctx)
	}
	return nil
}

func (e *Engine) Decompress(ctx context.Context, path string) error {
	e.mu.Lock()
	e.decompressed = append(e.decompressed, path)
	e.mu.Unlock()

	if e.DecompressFn != nil {
		return e.DecompressFn(ctx, path)
	}
	return nil
}

func (e *Engine) Hydrate(ctx context.Context, path, name, platform string) (*bridge.Game, error) {
	e.mu.Lock()
	e.hydrated = append(e.hydrated, path)
	game, ok := e.games[path]
	e.mu.Unlock()

	if e.HydrateFn != nil {
		return e.HydrateFn(ctx, path, name, platform)
	}
	if !ok {
		return nil, nil
	}
	return &game, nil
}

func (e *Engine) PushAutomationConfig(ctx context.Context, cfg bridge.AutomationConfig) error {
	e.mu.Lock()
	e.pushedConfigs = append(e.pushedConfigs, cfg)
	e.mu.Unlock()

	if e.PushAutomationConfigFn != nil {
		return e.PushAutomationConfigFn(ctx, cfg)
	}
	return nil
}

func (e *Engine) StartAutomation(ctx context.Context) error {
	e.mu.Lock()
	e.automationOn++
	e.mu.Unlock()

	if e.StartAutomationFn != nil {
		return e.StartAutomationFn(ctx)
	}
	return nil
}

func (e *Engine) StopAutomation(ctx context.Context) error {
	e.mu.Lock()
	e.automationOff++
	e.mu.Unlock()

	if e.StopAutomationFn != nil {
		return e.StopAutomationFn(ctx)
	}
	return nil
}

func (e *Engine) SubscribeQueue(ctx context.Context) (*bridge.Stream[[]bridge.QueueEntry], error) {
	s := bridge.NewStream[[]bridge.QueueEntry]()
	e.mu.Lock()
	e.queue = s
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) SubscribeAutomationRunning(ctx context.Context) (*bridge.Stream[bool], error) {
	s := bridge.NewStream[bool]()
	e.mu.Lock()
	e.running = s
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) SubscribeSchedulerState(ctx context.Context) (*bridge.Stream[bridge.SchedulerState], error) {
	s := bridge.NewStream[bridge.SchedulerState]()
	e.mu.Lock()
	e.scheduler = s
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) SubscribeWatcherEvents(ctx context.Context) (*bridge.Stream[bridge.WatcherEvent], error) {
	s := bridge.NewStream[bridge.WatcherEvent]()
	e.mu.Lock()
	e.watcher = s
	e.mu.Unlock()
	return s, nil
}

func (e *Engine) ProgressStream() *bridge.Stream[bridge.Progress] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

func (e *Engine) QueueStream() *bridge.Stream[[]bridge.QueueEntry] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue
}

func (e *Engine) RunningStream() *bridge.Stream[bool] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) SchedulerStream() *bridge.Stream[bridge.SchedulerState] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scheduler
}

func (e *Engine) WatcherStream() *bridge.Stream[bridge.WatcherEvent] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watcher
}

func (e *Engine) StartCalls() []StartCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]StartCall, len(e.started))
	copy(out, e.started)
	return out
}

func (e *Engine) CancelCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancels
}

func (e *Engine) DecompressedPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.decompressed...)
}

func (e *Engine) HydratedPaths() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.hydrated...)
}

func (e *Engine) PushedConfigs() []bridge.AutomationConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]bridge.AutomationConfig, len(e.pushedConfigs))
	copy(out, e.pushedConfigs)
	return out
}

func (e *Engine) AutomationStarts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.automationOn
}

func (e *Engine) AutomationStops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.automationOff
}
