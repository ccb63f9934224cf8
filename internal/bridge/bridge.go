package bridge

import (
	"context"
)

// Engine is the boundary to the process that actually performs compression
// work and runs the automation scheduler. The daemon core never assumes a
// transport; everything it needs is a request call or a Stream subscription.
//
// Request calls may fail synchronously. Long-running work reports through the
// subscription streams instead of the call's return value.
type Engine interface {
	// StartCompression asks the engine to begin compressing the directory at
	// path with the given algorithm. Progress and termination arrive on the
	// compression progress stream, not here.
	StartCompression(ctx context.Context, path, name string, algorithm Algorithm) error

	// SubscribeCompressionProgress opens a stream of progress updates for the
	// compression started by StartCompression. The stream completes when the
	// engine finishes the job and fails when the job errors out.
	SubscribeCompressionProgress(ctx context.Context) (*Stream[Progress], error)

	// CancelCompression asks the engine to abort the in-flight compression.
	CancelCompression(ctx context.Context) error

	// Decompress restores the directory at path. It blocks until the engine
	// acknowledges completion; there is no progress stream.
	Decompress(ctx context.Context, path string) error

	// Hydrate fetches the refreshed record for a single game after a job
	// finished. A nil game with a nil error means the engine no longer knows
	// the path.
	Hydrate(ctx context.Context, path, name, platform string) (*Game, error)

	// PushAutomationConfig replaces the engine's automation configuration.
	PushAutomationConfig(ctx context.Context, cfg AutomationConfig) error

	StartAutomation(ctx context.Context) error
	StopAutomation(ctx context.Context) error

	// SubscribeQueue streams full snapshots of the automation queue.
	SubscribeQueue(ctx context.Context) (*Stream[[]QueueEntry], error)

	// SubscribeAutomationRunning streams the engine's automation on/off state.
	SubscribeAutomationRunning(ctx context.Context) (*Stream[bool], error)

	// SubscribeSchedulerState streams scheduler phase changes. The payload is
	// relayed to observers as is.
	SubscribeSchedulerState(ctx context.Context) (*Stream[SchedulerState], error)

	// SubscribeWatcherEvents streams filesystem watcher notifications from the
	// engine's automation watcher.
	SubscribeWatcherEvents(ctx context.Context) (*Stream[WatcherEvent], error)
}
