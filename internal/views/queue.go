package views

import (
	"github.com/thoas/go-funk"

	"github.com/compactd/compactd/internal/bridge"
)

// pendingStatuses are the queue stages still waiting for compression to
// begin.
var pendingStatuses = []bridge.QueueStatus{
	bridge.QueueStatusPending,
	bridge.QueueStatusWaitingForSettle,
	bridge.QueueStatusWaitingForIdle,
}

// ActiveQueueEntry returns the first entry the automation is compressing
// right now. An empty queue or no compressing entry is a normal "none", not
// an error.
func ActiveQueueEntry(entries []bridge.QueueEntry) (bridge.QueueEntry, bool) {
	for _, e := range entries {
		if e.Status == bridge.QueueStatusCompressing {
			return e, true
		}
	}
	return bridge.QueueEntry{}, false
}

// PendingCount counts the entries still waiting to be compressed.
func PendingCount(entries []bridge.QueueEntry) int {
	count := 0
	for _, e := range entries {
		if funk.Contains(pendingStatuses, e.Status) {
			count++
		}
	}
	return count
}
