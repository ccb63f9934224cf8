package bridge

import (
	"time"
)

// Algorithm selects the transparent compression algorithm the engine applies.
type Algorithm string

const (
	AlgorithmXpress4K  Algorithm = "xpress4k"
	AlgorithmXpress8K  Algorithm = "xpress8k"
	AlgorithmXpress16K Algorithm = "xpress16k"
	AlgorithmLZX       Algorithm = "lzx"

	// DefaultAlgorithm is the balance point between ratio and speed and is
	// used whenever no explicit choice was made.
	DefaultAlgorithm = AlgorithmXpress8K
)

func StringToAlgorithm(s string) Algorithm {
	switch s {
	case string(AlgorithmXpress4K):
		return AlgorithmXpress4K
	case string(AlgorithmXpress8K):
		return AlgorithmXpress8K
	case string(AlgorithmXpress16K):
		return AlgorithmXpress16K
	case string(AlgorithmLZX):
		return AlgorithmLZX
	default:
		return DefaultAlgorithm
	}
}

// Progress is one push update for the in-flight compression.
type Progress struct {
	// Percent is the engine's completion estimate in [0, 100].
	Percent float64 `json:"percent"`
	// CurrentPath is the file the compressor is working on.
	CurrentPath string    `json:"currentPath,omitempty"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

// Game is the engine's record of one library entry.
type Game struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Platform     string    `json:"platform"`
	SizeOnDisk   int64     `json:"sizeOnDisk"`
	OriginalSize int64     `json:"originalSize"`
	Compressed   bool      `json:"compressed"`
	Algorithm    Algorithm `json:"algorithm,omitempty"`
	LastChecked  time.Time `json:"lastChecked,omitempty"`
}

// SavingsPercent is the share of the original size reclaimed by compression.
func (g *Game) SavingsPercent() float64 {
	if g.OriginalSize <= 0 {
		return 0
	}
	saved := g.OriginalSize - g.SizeOnDisk
	if saved <= 0 {
		return 0
	}
	return float64(saved) / float64(g.OriginalSize) * 100
}

// QueueStatus is the engine-side lifecycle stage of an automation queue entry.
type QueueStatus string

const (
	QueueStatusPending          QueueStatus = "pending"
	QueueStatusWaitingForSettle QueueStatus = "waitingForSettle"
	QueueStatusWaitingForIdle   QueueStatus = "waitingForIdle"
	QueueStatusCompressing      QueueStatus = "compressing"
	QueueStatusCompleted        QueueStatus = "completed"
	QueueStatusFailed           QueueStatus = "failed"
	QueueStatusSkipped          QueueStatus = "skipped"
)

func StringToQueueStatus(s string) QueueStatus {
	switch s {
	case string(QueueStatusPending):
		return QueueStatusPending
	case string(QueueStatusWaitingForSettle):
		return QueueStatusWaitingForSettle
	case string(QueueStatusWaitingForIdle):
		return QueueStatusWaitingForIdle
	case string(QueueStatusCompressing):
		return QueueStatusCompressing
	case string(QueueStatusCompleted):
		return QueueStatusCompleted
	case string(QueueStatusFailed):
		return QueueStatusFailed
	case string(QueueStatusSkipped):
		return QueueStatusSkipped
	default:
		return QueueStatusPending
	}
}

// QueueEntry is one item of the automation queue snapshot.
type QueueEntry struct {
	Path   string      `json:"path"`
	Name   string      `json:"name"`
	Status QueueStatus `json:"status"`
}

// AutomationConfig is the complete configuration document pushed to the
// engine's automation scheduler. It always carries every field; the engine
// does not merge partial updates.
type AutomationConfig struct {
	CPUThresholdPercent int       `json:"cpuThresholdPercent"`
	IdleDurationSeconds int       `json:"idleDurationSeconds"`
	CooldownSeconds     int       `json:"cooldownSeconds"`
	WatchPaths          []string  `json:"watchPaths"`
	ExcludedPaths       []string  `json:"excludedPaths"`
	Algorithm           Algorithm `json:"algorithm"`
}

// SchedulerState is an opaque scheduler phase report. The daemon relays it
// without interpreting the payload.
type SchedulerState struct {
	Phase     string    `json:"phase"`
	Detail    string    `json:"detail,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WatcherEvent is a filesystem notification from the engine's library watcher.
type WatcherEvent struct {
	Path string    `json:"path"`
	Op   string    `json:"op"`
	At   time.Time `json:"at"`
}
