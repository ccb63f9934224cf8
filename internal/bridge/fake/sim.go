package fake

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/compactd/compactd/internal/bridge"
)

const (
	defaultProgressTick = 400 * time.Millisecond
	defaultSettleTick   = 2 * time.Second

	// ticks an automated queue entry spends in the compressing state
	compressingTicks = 3
)

// ratio of the original size left on disk per algorithm
var simRatios = map[bridge.Algorithm]float64{
	bridge.AlgorithmXpress4K:  0.74,
	bridge.AlgorithmXpress8K:  0.66,
	bridge.AlgorithmXpress16K: 0.61,
	bridge.AlgorithmLZX:       0.52,
}

func ratioFor(algorithm bridge.Algorithm) float64 {
	if r, ok := simRatios[algorithm]; ok {
		return r
	}
	return simRatios[bridge.DefaultAlgorithm]
}

// Simulator is a self-driving Engine for running the daemon without a real
// engine. It seeds a small library, ticks synthetic progress for manual
// compressions, and settles automation queue entries over time. Run drives
// the automation side; everything else reacts to calls.
type Simulator struct {
	progressTick time.Duration
	settleTick   time.Duration

	mu        sync.Mutex
	games     map[string]bridge.Game
	order     []string
	progress  *bridge.Stream[bridge.Progress]
	queue     *bridge.Stream[[]bridge.QueueEntry]
	running   *bridge.Stream[bool]
	scheduler *bridge.Stream[bridge.SchedulerState]
	watcher   *bridge.Stream[bridge.WatcherEvent]

	cfg          bridge.AutomationConfig
	automation   bool
	entries      []bridge.QueueEntry
	settleCount  int
	compressing  bool
	cancelManual chan struct{}
}

var _ bridge.Engine = (*Simulator)(nil)

type SimOption func(*Simulator)

// WithSimTicks shortens the synthetic timing, mainly for tests.
func WithSimTicks(progress, settle time.Duration) SimOption {
	return func(s *Simulator) {
		s.progressTick = progress
		s.settleTick = settle
	}
}

func NewSimulator(opts ...SimOption) *Simulator {
	s := &Simulator{
		progressTick: defaultProgressTick,
		settleTick:   defaultSettleTick,
		games:        make(map[string]bridge.Game),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, g := range seedLibrary() {
		s.games[g.Path] = g
		s.order = append(s.order, g.Path)
	}
	return s
}

func seedLibrary() []bridge.Game {
	return []bridge.Game{
		{Path: "/library/steam/Hades", Name: "Hades", Platform: "steam", OriginalSize: 6_800_000_000, SizeOnDisk: 6_800_000_000},
		{Path: "/library/steam/Celeste", Name: "Celeste", Platform: "steam", OriginalSize: 1_200_000_000, SizeOnDisk: 1_200_000_000},
		{Path: "/library/steam/Baldurs Gate 3", Name: "Baldur's Gate 3", Platform: "steam", OriginalSize: 122_000_000_000, SizeOnDisk: 122_000_000_000},
		{Path: "/library/steam/Factorio", Name: "Factorio", Platform: "steam", OriginalSize: 2_100_000_000, SizeOnDisk: 1_390_000_000, Compressed: true, Algorithm: bridge.AlgorithmXpress8K},
		{Path: "/library/epic/Control", Name: "Control", Platform: "epic", OriginalSize: 42_000_000_000, SizeOnDisk: 42_000_000_000},
		{Path: "/library/gog/Stardew Valley", Name: "Stardew Valley", Platform: "gog", OriginalSize: 900_000_000, SizeOnDisk: 900_000_000},
	}
}

// ListGames returns the library in a stable order. The caller owns the slice.
func (s *Simulator) ListGames() []bridge.Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]bridge.Game, 0, len(s.order))
	for _, path := range s.order {
		out = append(out, s.games[path])
	}
	return out
}

// Run animates the automation side until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	ticker := time.NewTicker(s.settleTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *Simulator) StartCompression(ctx context.Context, path, name string, algorithm bridge.Algorithm) error {
	s.mu.Lock()
	if s.compressing {
		s.mu.Unlock()
		return fmt.Errorf("a compression is already running")
	}
	if _, ok := s.games[path]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("unknown library path %q", path)
	}

	s.compressing = true
	cancel := make(chan struct{})
	s.cancelManual = cancel
	stream := s.progress
	s.mu.Unlock()

	go s.driveCompression(path, algorithm, stream, cancel)
	return nil
}

func (s *Simulator) driveCompression(path string, algorithm bridge.Algorithm, stream *bridge.Stream[bridge.Progress], cancel chan struct{}) {
	ticker := time.NewTicker(s.progressTick)
	defer ticker.Stop()

	percent := 0.0
	for percent < 100 {
		select {
		case <-cancel:
			s.mu.Lock()
			s.compressing = false
			s.mu.Unlock()
			return
		case <-ticker.C:
		}

		percent += 5 + rand.Float64()*12
		if percent > 100 {
			percent = 100
		}
		if stream != nil {
			stream.Send(bridge.Progress{Percent: percent, CurrentPath: path, ReceivedAt: time.Now()})
		}
	}

	s.mu.Lock()
	s.applyCompressionLocked(path, algorithm)
	s.compressing = false
	s.cancelManual = nil
	s.mu.Unlock()

	if stream != nil {
		stream.Complete()
	}
}

// applyCompressionLocked rewrites the library record after a finished
// compression. Callers hold s.mu.
func (s *Simulator) applyCompressionLocked(path string, algorithm bridge.Algorithm) {
	g, ok := s.games[path]
	if !ok {
		return
	}
	g.Compressed = true
	g.Algorithm = algorithm
	g.SizeOnDisk = int64(float64(g.OriginalSize) * ratioFor(algorithm))
	g.LastChecked = time.Now()
	s.games[path] = g
}

func (s *Simulator) SubscribeCompressionProgress(ctx context.Context) (*bridge.Stream[bridge.Progress], error) {
	stream := bridge.NewStream[bridge.Progress]()
	s.mu.Lock()
	s.progress = stream
	s.mu.Unlock()
	return stream, nil
}

func (s *Simulator) CancelCompression(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancelManual
	s.cancelManual = nil
	s.mu.Unlock()

	if cancel != nil {
		close(cancel)
	}
	return nil
}

func (s *Simulator) Decompress(ctx context.Context, path string) error {
	s.mu.Lock()
	g, ok := s.games[path]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown library path %q", path)
	}
	if !g.Compressed {
		return fmt.Errorf("%q is not compressed", path)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(3 * s.progressTick):
	}

	s.mu.Lock()
	g = s.games[path]
	g.Compressed = false
	g.Algorithm = ""
	g.SizeOnDisk = g.OriginalSize
	g.LastChecked = time.Now()
	s.games[path] = g
	s.mu.Unlock()
	return nil
}

func (s *Simulator) Hydrate(ctx context.Context, path, name, platform string) (*bridge.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[path]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *Simulator) PushAutomationConfig(ctx context.Context, cfg bridge.AutomationConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *Simulator) StartAutomation(ctx context.Context) error {
	s.mu.Lock()
	s.automation = true
	s.rebuildQueueLocked()
	running := s.running
	s.mu.Unlock()

	if running != nil {
		running.Send(true)
	}
	s.publishQueue()
	return nil
}

func (s *Simulator) StopAutomation(ctx context.Context) error {
	s.mu.Lock()
	s.automation = false
	running := s.running
	s.mu.Unlock()

	if running != nil {
		running.Send(false)
	}
	return nil
}

// rebuildQueueLocked queues every uncompressed game under the configured
// watch paths. Callers hold s.mu.
func (s *Simulator) rebuildQueueLocked() {
	s.entries = nil
	s.settleCount = 0
	for _, path := range s.order {
		g := s.games[path]
		if g.Compressed || !s.watchedLocked(path) {
			continue
		}
		s.entries = append(s.entries, bridge.QueueEntry{
			Path:   g.Path,
			Name:   g.Name,
			Status: bridge.QueueStatusPending,
		})
	}
}

func (s *Simulator) watchedLocked(path string) bool {
	for _, excluded := range s.cfg.ExcludedPaths {
		if strings.HasPrefix(path, excluded) {
			return false
		}
	}
	for _, watched := range s.cfg.WatchPaths {
		if strings.HasPrefix(path, watched) {
			return true
		}
	}
	return false
}

// step advances the automated queue by one stage and reports the scheduler
// phase that goes with it.
func (s *Simulator) step() {
	s.mu.Lock()
	if !s.automation {
		s.mu.Unlock()
		return
	}

	phase := "scanning"
	changed := false
	for i := range s.entries {
		entry := &s.entries[i]
		switch entry.Status {
		case bridge.QueueStatusPending:
			entry.Status = bridge.QueueStatusWaitingForIdle
			phase = "waitingForIdle"
			changed = true
		case bridge.QueueStatusWaitingForIdle:
			entry.Status = bridge.QueueStatusCompressing
			s.settleCount = 0
			phase = "compressing"
			changed = true
		case bridge.QueueStatusCompressing:
			s.settleCount++
			phase = "compressing"
			if s.settleCount >= compressingTicks {
				entry.Status = bridge.QueueStatusCompleted
				s.applyCompressionLocked(entry.Path, s.cfg.Algorithm)
				changed = true
			}
		default:
			continue
		}
		break
	}

	scheduler := s.scheduler
	watcherStream := s.watcher
	s.mu.Unlock()

	if changed {
		s.publishQueue()
	}
	if scheduler != nil {
		scheduler.Send(bridge.SchedulerState{Phase: phase, UpdatedAt: time.Now()})
	}
	if watcherStream != nil && rand.Intn(10) == 0 {
		watcherStream.Send(bridge.WatcherEvent{Path: "/library/steam", Op: "write", At: time.Now()})
	}
}

func (s *Simulator) publishQueue() {
	s.mu.Lock()
	queue := s.queue
	snapshot := append([]bridge.QueueEntry{}, s.entries...)
	s.mu.Unlock()

	if queue != nil {
		queue.Send(snapshot)
	}
}

func (s *Simulator) SubscribeQueue(ctx context.Context) (*bridge.Stream[[]bridge.QueueEntry], error) {
	stream := bridge.NewStream[[]bridge.QueueEntry]()
	s.mu.Lock()
	s.queue = stream
	snapshot := append([]bridge.QueueEntry{}, s.entries...)
	s.mu.Unlock()

	stream.Send(snapshot)
	return stream, nil
}

func (s *Simulator) SubscribeAutomationRunning(ctx context.Context) (*bridge.Stream[bool], error) {
	stream := bridge.NewStream[bool]()
	s.mu.Lock()
	s.running = stream
	on := s.automation
	s.mu.Unlock()

	stream.Send(on)
	return stream, nil
}

func (s *Simulator) SubscribeSchedulerState(ctx context.Context) (*bridge.Stream[bridge.SchedulerState], error) {
	stream := bridge.NewStream[bridge.SchedulerState]()
	s.mu.Lock()
	s.scheduler = stream
	s.mu.Unlock()
	return stream, nil
}

func (s *Simulator) SubscribeWatcherEvents(ctx context.Context) (*bridge.Stream[bridge.WatcherEvent], error) {
	stream := bridge.NewStream[bridge.WatcherEvent]()
	s.mu.Lock()
	s.watcher = stream
	s.mu.Unlock()
	return stream, nil
}
