package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/views"
)

type AutomationEvent struct {
	Running bool `json:"running"`
}

type SearchEvent struct {
	Query string `json:"query"`
}

// streamEvents pushes state snapshots over server-sent events. Every
// subscription delivers its current value on attach, so a reconnecting UI is
// repainted in full without polling. Slow consumers only ever see the newest
// snapshot of each surface.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	jobs := h.jobs.Subscribe()
	defer jobs.Cancel()
	queue := h.relays.Queue.Output().Subscribe()
	defer queue.Cancel()
	running := h.relays.AutomationRunning.Output().Subscribe()
	defer running.Cancel()
	scheduler := h.relays.Scheduler.Output().Subscribe()
	defer scheduler.Cancel()
	catalog := h.catalog.Subscribe()
	defer catalog.Cancel()
	search := h.search.Subscribe()
	defer search.Cancel()

	logger := zap.S().Named("rest")
	send := func(event string, payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Errorf("failed to marshal %s event: %s", event, err)
			return true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-jobs.Updates():
			if !ok || !send("jobs", snap) {
				return
			}
		case entries, ok := <-queue.Updates():
			if !ok {
				return
			}
			if entries == nil {
				entries = []bridge.QueueEntry{}
			}
			payload := QueueReply{Entries: entries, Pending: views.PendingCount(entries)}
			if active, found := views.ActiveQueueEntry(entries); found {
				payload.Active = &active
			}
			if !send("queue", payload) {
				return
			}
		case on, ok := <-running.Updates():
			if !ok || !send("automation", AutomationEvent{Running: on}) {
				return
			}
		case state, ok := <-scheduler.Updates():
			if !ok || !send("scheduler", state) {
				return
			}
		case games, ok := <-catalog.Updates():
			if !ok {
				return
			}
			if games == nil {
				games = []bridge.Game{}
			}
			if !send("library", LibraryReply{Games: games, Query: h.search.Committed()}) {
				return
			}
		case query, ok := <-search.Updates():
			if !ok || !send("search", SearchEvent{Query: query}) {
				return
			}
		}
	}
}
