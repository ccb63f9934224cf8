package server

import (
	"net/http"
	"time"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/estimation"
	"github.com/compactd/compactd/internal/settings"
)

// StatusReply is the one-call overview the UI polls right after attaching.
type StatusReply struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	Busy              bool   `json:"busy"`
	AutomationRunning bool   `json:"automationRunning"`
	QueuePending      int    `json:"queuePending"`
	SchedulerPhase    string `json:"schedulerPhase,omitempty"`
}

type VersionReply struct {
	Version string `json:"version"`
}

type JobReply struct {
	coordinator.Job
}

type HistoryReply struct {
	Jobs []coordinator.Job `json:"jobs"`
}

// ArchivedJob is the wire form of one persisted history record.
type ArchivedJob struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Algorithm  string    `json:"algorithm,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Percent    float64   `json:"percent,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

type ArchiveReply struct {
	Jobs []ArchivedJob `json:"jobs"`
}

type AcceptedReply struct {
	Status string `json:"status"`
}

type QueueReply struct {
	Entries []bridge.QueueEntry `json:"entries"`
	Active  *bridge.QueueEntry  `json:"active,omitempty"`
	Pending int                 `json:"pending"`
}

type LibraryReply struct {
	Games []bridge.Game `json:"games"`
	Query string        `json:"query"`
}

type EstimateReply struct {
	estimation.Projection
}

type SettingsReply struct {
	settings.Settings
}

func (s StatusReply) Render(w http.ResponseWriter, r *http.Request) error   { return nil }
func (v VersionReply) Render(w http.ResponseWriter, r *http.Request) error  { return nil }
func (j JobReply) Render(w http.ResponseWriter, r *http.Request) error      { return nil }
func (h HistoryReply) Render(w http.ResponseWriter, r *http.Request) error  { return nil }
func (a ArchiveReply) Render(w http.ResponseWriter, r *http.Request) error  { return nil }
func (a AcceptedReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }
func (q QueueReply) Render(w http.ResponseWriter, r *http.Request) error    { return nil }
func (l LibraryReply) Render(w http.ResponseWriter, r *http.Request) error  { return nil }
func (e EstimateReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }
func (s SettingsReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }
