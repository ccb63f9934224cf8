package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/library"
	"github.com/compactd/compactd/internal/watch"
	"github.com/compactd/compactd/pkg/metrics"
)

const (
	// HistoryLimit bounds the in-memory history; the oldest entry is evicted
	// when a new terminal job would exceed it.
	HistoryLimit = 10

	// terminalLinger is how long Failed and Cancelled jobs stay visible in the
	// active slot before demotion. Completed jobs demote immediately.
	terminalLinger = 3 * time.Second
)

// Archiver persists demoted jobs. Archiving is best effort and never blocks
// or fails a demotion.
type Archiver interface {
	ArchiveJob(ctx context.Context, job Job) error
}

// Coordinator owns the single active job slot. All engine work runs through
// it: it enforces single-flight execution, ingests pushed progress, applies
// the cancel ordering that keeps late events from reviving finished jobs, and
// maintains the bounded history of demoted jobs.
type Coordinator struct {
	engine  bridge.Engine
	catalog *library.Catalog

	mu          sync.Mutex
	active      *Job
	history     []Job
	generation  uint64
	stream      *bridge.Stream[bridge.Progress]
	demoteTimer *time.Timer
	closed      bool

	value *watch.Value[Snapshot]

	archiver         Archiver
	defaultAlgorithm func() bridge.Algorithm
	linger           time.Duration
}

func New(engine bridge.Engine, catalog *library.Catalog, opts ...Option) *Coordinator {
	c := &Coordinator{
		engine:           engine,
		catalog:          catalog,
		value:            watch.NewValue[Snapshot](),
		defaultAlgorithm: func() bridge.Algorithm { return bridge.DefaultAlgorithm },
		linger:           terminalLinger,
	}
	for _, o := range opts {
		o(c)
	}

	c.value.Set(Snapshot{History: []Job{}})
	return c
}

// Subscribe observes slot snapshots. The current snapshot is delivered
// immediately.
func (c *Coordinator) Subscribe() *watch.Subscription[Snapshot] {
	return c.value.Subscribe()
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Active returns a copy of the job occupying the slot, or nil when idle.
func (c *Coordinator) Active() *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyJob(c.active)
}

// History returns the demoted jobs, newest first.
func (c *Coordinator) History() []Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Job, len(c.history))
	copy(out, c.history)
	return out
}

// StartCompression occupies the slot with a compression job for path. The
// request is silently ignored while another job is running; callers observe
// the outcome through the snapshot.
func (c *Coordinator) StartCompression(path, name string, algorithm bridge.Algorithm) {
	logger := zap.S().Named("coordinator")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.active != nil && c.active.Status == JobStatusRunning {
		busy := c.active.Path
		c.mu.Unlock()
		logger.Debugf("compression request for %q ignored: slot busy with %q", path, busy)
		return
	}
	c.demoteNowLocked()

	if algorithm == "" {
		algorithm = c.defaultAlgorithm()
	}

	job := &Job{
		ID:        uuid.New(),
		Kind:      JobKindCompression,
		Path:      path,
		Name:      name,
		Algorithm: algorithm,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
	}
	if g, ok := c.catalog.Find(path); ok {
		job.Platform = g.Platform
		if job.Name == "" {
			job.Name = g.Name
		}
	}

	c.generation++
	gen := c.generation
	c.active = job
	c.publishLocked()
	c.mu.Unlock()

	metrics.IncJobStarted(string(JobKindCompression))
	logger.Infof("compression started: path=%s algorithm=%s", path, algorithm)

	go c.runCompression(gen, path, name, algorithm)
}

// StartDecompression occupies the slot with a decompression job. There is no
// progress stream for this kind; the engine call is awaited directly.
func (c *Coordinator) StartDecompression(path, name string) {
	logger := zap.S().Named("coordinator")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.active != nil && c.active.Status == JobStatusRunning {
		busy := c.active.Path
		c.mu.Unlock()
		logger.Debugf("decompression request for %q ignored: slot busy with %q", path, busy)
		return
	}
	c.demoteNowLocked()

	job := &Job{
		ID:        uuid.New(),
		Kind:      JobKindDecompression,
		Path:      path,
		Name:      name,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
	}
	if g, ok := c.catalog.Find(path); ok {
		job.Platform = g.Platform
		if job.Name == "" {
			job.Name = g.Name
		}
	}

	c.generation++
	gen := c.generation
	c.active = job
	c.publishLocked()
	c.mu.Unlock()

	metrics.IncJobStarted(string(JobKindDecompression))
	logger.Infof("decompression started: path=%s", path)

	go func() {
		if err := c.engine.Decompress(context.Background(), path); err != nil {
			c.fail(gen, err)
			return
		}
		c.complete(gen)
	}()
}

// CancelActive cancels the running compression. The progress subscription is
// stopped before anything else so a late event cannot revive the job, then
// the engine is notified best effort, then the job transitions to Cancelled.
// The local transition never depends on the engine call outcome.
func (c *Coordinator) CancelActive() {
	logger := zap.S().Named("coordinator")

	c.mu.Lock()
	if c.closed || c.active == nil || c.active.Status != JobStatusRunning {
		c.mu.Unlock()
		logger.Debug("cancel requested with no running job")
		return
	}
	if c.active.Kind != JobKindCompression {
		kind := c.active.Kind
		c.mu.Unlock()
		logger.Warnf("cancel ignored: a running %s cannot be cancelled", kind)
		return
	}
	gen := c.generation
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	if err := c.engine.CancelCompression(context.Background()); err != nil {
		logger.Warnf("engine cancel call failed: %s", err)
	}

	c.mu.Lock()
	if c.closed || c.generation != gen || c.active == nil || c.active.Status != JobStatusRunning {
		c.mu.Unlock()
		return
	}
	c.active.Status = JobStatusCancelled
	c.active.FinishedAt = time.Now()
	path := c.active.Path
	c.publishLocked()
	c.armDemotionLocked(gen)
	c.mu.Unlock()

	metrics.IncJobTerminal(string(JobStatusCancelled))
	logger.Infof("compression cancelled: path=%s", path)
}

// Close tears the coordinator down: the demotion timer is stopped, the live
// progress subscription is cancelled and every in-flight async completion
// becomes a no-op.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.demoteTimer != nil {
		c.demoteTimer.Stop()
		c.demoteTimer = nil
	}
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
	c.value.Close()
	zap.S().Named("coordinator").Info("coordinator closed")
}

func (c *Coordinator) runCompression(gen uint64, path, name string, algorithm bridge.Algorithm) {
	stream, err := c.engine.SubscribeCompressionProgress(context.Background())
	if err != nil {
		c.fail(gen, fmt.Errorf("progress subscription failed: %w", err))
		return
	}

	c.mu.Lock()
	if c.closed || c.generation != gen || c.active == nil || c.active.Status != JobStatusRunning {
		c.mu.Unlock()
		stream.Stop()
		return
	}
	// never keep two live subscriptions
	if prev := c.stream; prev != nil && prev != stream {
		prev.Stop()
	}
	c.stream = stream
	c.mu.Unlock()

	if err := c.engine.StartCompression(context.Background(), path, name, algorithm); err != nil {
		c.detachStream(stream)
		stream.Stop()
		c.fail(gen, err)
		return
	}

	c.consumeProgress(gen, stream)
}

// consumeProgress is the only writer of the running job's progress field. It
// exits silently when the stream was stopped from our side and converts a
// producer termination into the matching job transition.
func (c *Coordinator) consumeProgress(gen uint64, stream *bridge.Stream[bridge.Progress]) {
	for {
		select {
		case <-stream.Done():
			return
		case p, ok := <-stream.Events():
			if !ok {
				c.detachStream(stream)
				if err := stream.Err(); err != nil {
					c.fail(gen, err)
					return
				}
				c.complete(gen)
				return
			}
			c.applyProgress(gen, p)
		}
	}
}

func (c *Coordinator) applyProgress(gen uint64, p bridge.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.generation != gen || c.active == nil || c.active.Status != JobStatusRunning {
		return
	}
	prog := p
	c.active.Progress = &prog
	c.publishLocked()
}

func (c *Coordinator) complete(gen uint64) {
	c.mu.Lock()
	if c.closed || c.generation != gen || c.active == nil || c.active.Status != JobStatusRunning {
		c.mu.Unlock()
		return
	}
	c.active.Status = JobStatusCompleted
	c.active.FinishedAt = time.Now()
	finished := *c.active
	c.publishLocked()
	c.mu.Unlock()

	metrics.IncJobTerminal(string(JobStatusCompleted))
	zap.S().Named("coordinator").Infof("%s completed: path=%s", finished.Kind, finished.Path)

	// reconciliation is dispatched, never awaited; demotion does not wait on it
	go c.reconcile(finished)

	c.mu.Lock()
	if !c.closed && c.generation == gen {
		c.demoteNowLocked()
		c.publishLocked()
	}
	c.mu.Unlock()
}

func (c *Coordinator) fail(gen uint64, jobErr error) {
	c.mu.Lock()
	if c.closed || c.generation != gen || c.active == nil || c.active.Status != JobStatusRunning {
		c.mu.Unlock()
		return
	}
	c.active.Status = JobStatusFailed
	c.active.Error = jobErr.Error()
	c.active.FinishedAt = time.Now()
	kind := c.active.Kind
	path := c.active.Path
	c.publishLocked()
	c.armDemotionLocked(gen)
	c.mu.Unlock()

	metrics.IncJobTerminal(string(JobStatusFailed))
	zap.S().Named("coordinator").Warnf("%s failed: path=%s error=%s", kind, path, jobErr)
}

// reconcile refreshes the library entry touched by a finished job. Hydration
// is best effort: when it fails or the engine no longer knows the path, a
// full listing refresh is requested instead, so the list is never left stale.
func (c *Coordinator) reconcile(job Job) {
	if c.isClosed() {
		return
	}

	platform := job.Platform
	if g, ok := c.catalog.Find(job.Path); ok && g.Platform != "" {
		platform = g.Platform
	}

	game, err := c.engine.Hydrate(context.Background(), job.Path, job.Name, platform)
	if c.isClosed() {
		return
	}
	if err != nil || game == nil {
		if err != nil {
			zap.S().Named("coordinator").Warnf("hydrate failed for %q, requesting full refresh: %s", job.Path, err)
		}
		c.catalog.RequestRefresh()
		return
	}
	c.catalog.Upsert(*game)
}

// demoteNowLocked moves a terminal active job into history. No-op while the
// slot is empty or still running.
func (c *Coordinator) demoteNowLocked() {
	if c.active == nil || !c.active.Status.Terminal() {
		return
	}
	if c.demoteTimer != nil {
		c.demoteTimer.Stop()
		c.demoteTimer = nil
	}

	job := *c.active
	c.active = nil
	c.history = append([]Job{job}, c.history...)
	if len(c.history) > HistoryLimit {
		c.history = c.history[:HistoryLimit]
	}

	if c.archiver != nil {
		go c.archive(job)
	}
}

// armDemotionLocked schedules the delayed demotion of a Failed or Cancelled
// job. A newer generation disarms the pending demotion.
func (c *Coordinator) armDemotionLocked(gen uint64) {
	if c.demoteTimer != nil {
		c.demoteTimer.Stop()
	}
	c.demoteTimer = time.AfterFunc(c.linger, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.generation != gen {
			return
		}
		c.demoteNowLocked()
		c.publishLocked()
	})
}

func (c *Coordinator) detachStream(stream *bridge.Stream[bridge.Progress]) {
	c.mu.Lock()
	if c.stream == stream {
		c.stream = nil
	}
	c.mu.Unlock()
}

func (c *Coordinator) archive(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.archiver.ArchiveJob(ctx, job); err != nil {
		zap.S().Named("coordinator").Warnf("failed to archive job %s: %s", job.ID, err)
	}
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) publishLocked() {
	c.value.Set(c.snapshotLocked())
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{History: make([]Job, len(c.history))}
	copy(snap.History, c.history)
	snap.Active = copyJob(c.active)
	return snap
}

func copyJob(j *Job) *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Progress != nil {
		p := *j.Progress
		out.Progress = &p
	}
	return &out
}
