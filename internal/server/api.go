package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/compactd/compactd/internal/bridge"
	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/estimation"
	"github.com/compactd/compactd/internal/estimation/estimators"
	"github.com/compactd/compactd/internal/library"
	"github.com/compactd/compactd/internal/relay"
	"github.com/compactd/compactd/internal/settings"
	"github.com/compactd/compactd/internal/store"
	"github.com/compactd/compactd/internal/views"
)

const defaultArchivePageSize = 50

// Handler exposes the daemon state over the local API. The search debouncer
// and the library projection live here because the query the UI types is
// server-side state: the committed query survives webview reloads.
type Handler struct {
	version    string
	jobs       *coordinator.Coordinator
	catalog    *library.Catalog
	settings   *settings.Store
	relays     *relay.Relays
	archive    store.Store
	projection *views.LibraryProjection
	search     *views.SearchDebouncer
}

func NewHandler(
	version string,
	jobs *coordinator.Coordinator,
	catalog *library.Catalog,
	settingsStore *settings.Store,
	relays *relay.Relays,
	archive store.Store,
) *Handler {
	return &Handler{
		version:    version,
		jobs:       jobs,
		catalog:    catalog,
		settings:   settingsStore,
		relays:     relays,
		archive:    archive,
		projection: views.NewLibraryProjection(),
		search:     views.NewSearchDebouncer(views.DefaultDebounce),
	}
}

// Close stops the search debouncer.
func (h *Handler) Close() {
	h.search.Close()
}

func RegisterApi(router chi.Router, h *Handler) {
	router.Get("/api/v1/status", h.getStatus)
	router.Get("/api/v1/version", h.getVersion)
	router.Get("/api/v1/jobs/active", h.getActiveJob)
	router.Delete("/api/v1/jobs/active", h.cancelActiveJob)
	router.Get("/api/v1/jobs/history", h.getHistory)
	router.Get("/api/v1/jobs/archive", h.getArchive)
	router.Post("/api/v1/jobs/compression", h.startCompression)
	router.Post("/api/v1/jobs/decompression", h.startDecompression)
	router.Get("/api/v1/queue", h.getQueue)
	router.Get("/api/v1/library", h.getLibrary)
	router.Get("/api/v1/library/estimate", h.getLibraryEstimate)
	router.Put("/api/v1/library/search", h.putSearch)
	router.Get("/api/v1/settings", h.getSettings)
	router.Put("/api/v1/settings", h.putSettings)
	router.Get("/api/v1/events", h.streamEvents)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	running, _ := h.relays.AutomationRunning.Output().Get()
	entries, _ := h.relays.Queue.Output().Get()

	phase := ""
	if state, ok := h.relays.Scheduler.Output().Get(); ok {
		phase = state.Phase
	}

	active := h.jobs.Active()
	_ = render.Render(w, r, StatusReply{
		Status:            "running",
		Version:           h.version,
		Busy:              active != nil && active.Status == coordinator.JobStatusRunning,
		AutomationRunning: running,
		QueuePending:      views.PendingCount(entries),
		SchedulerPhase:    phase,
	})
}

func (h *Handler) getVersion(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, VersionReply{Version: h.version})
}

func (h *Handler) getActiveJob(w http.ResponseWriter, r *http.Request) {
	job := h.jobs.Active()
	if job == nil {
		http.Error(w, "no active job", http.StatusNotFound)
		return
	}
	_ = render.Render(w, r, JobReply{Job: *job})
}

// cancelActiveJob is idempotent: cancelling an empty or already finished slot
// is accepted and does nothing.
func (h *Handler) cancelActiveJob(w http.ResponseWriter, r *http.Request) {
	h.jobs.CancelActive()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, HistoryReply{Jobs: h.jobs.History()})
}

func (h *Handler) getArchive(w http.ResponseWriter, r *http.Request) {
	filter := store.NewArchiveQueryFilter()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter = filter.ByKind(kind)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter = filter.ByStatus(status)
	}

	limit := defaultArchivePageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	opts := store.NewArchiveQueryOptions().WithLimit(limit)
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		opts = opts.WithOffset(parsed)
	}

	records, err := h.archive.Archive().List(r.Context(), filter, opts)
	if err != nil {
		zap.S().Named("rest").Errorf("failed to list archive: %s", err)
		http.Error(w, fmt.Sprintf("failed to list archive: %v", err), http.StatusInternalServerError)
		return
	}

	jobs := make([]ArchivedJob, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, ArchivedJob{
			ID:         rec.JobID,
			Kind:       rec.Kind,
			Path:       rec.Path,
			Name:       rec.Name,
			Algorithm:  rec.Algorithm,
			Status:     rec.Status,
			Error:      rec.Error,
			Percent:    rec.Percent,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
		})
	}
	_ = render.Render(w, r, ArchiveReply{Jobs: jobs})
}

type startJobRequest struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Algorithm string `json:"algorithm"`
}

func (r *startJobRequest) validAlgorithm() bool {
	if r.Algorithm == "" {
		return true
	}
	return bridge.StringToAlgorithm(r.Algorithm) == bridge.Algorithm(r.Algorithm)
}

func (h *Handler) startCompression(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	if !req.validAlgorithm() {
		http.Error(w, fmt.Sprintf("unknown algorithm %q", req.Algorithm), http.StatusBadRequest)
		return
	}

	if active := h.jobs.Active(); active != nil && active.Status == coordinator.JobStatusRunning {
		http.Error(w, fmt.Sprintf("a %s job is already running", active.Kind), http.StatusConflict)
		return
	}

	h.jobs.StartCompression(req.Path, req.Name, bridge.Algorithm(req.Algorithm))
	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, AcceptedReply{Status: "accepted"})
}

func (h *Handler) startDecompression(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	if active := h.jobs.Active(); active != nil && active.Status == coordinator.JobStatusRunning {
		http.Error(w, fmt.Sprintf("a %s job is already running", active.Kind), http.StatusConflict)
		return
	}

	h.jobs.StartDecompression(req.Path, req.Name)
	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, AcceptedReply{Status: "accepted"})
}

func (h *Handler) getQueue(w http.ResponseWriter, r *http.Request) {
	entries, _ := h.relays.Queue.Output().Get()
	if entries == nil {
		entries = []bridge.QueueEntry{}
	}

	reply := QueueReply{
		Entries: entries,
		Pending: views.PendingCount(entries),
	}
	if active, ok := views.ActiveQueueEntry(entries); ok {
		reply.Active = &active
	}
	_ = render.Render(w, r, reply)
}

func (h *Handler) getLibrary(w http.ResponseWriter, r *http.Request) {
	field := views.StringToSortField(r.URL.Query().Get("sort"))
	dir := views.StringToSortDirection(r.URL.Query().Get("dir"))
	query := h.search.Committed()

	games := h.projection.Project(h.catalog.Games(), query, field, dir)
	if games == nil {
		games = []bridge.Game{}
	}
	_ = render.Render(w, r, LibraryReply{Games: games, Query: query})
}

// getLibraryEstimate forecasts the savings of compressing the rest of the
// library, priced by ratios observed on already compressed games and a fixed
// baseline as fallback.
func (h *Handler) getLibraryEstimate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("algorithm")
	if raw != "" && bridge.StringToAlgorithm(raw) != bridge.Algorithm(raw) {
		http.Error(w, fmt.Sprintf("unknown algorithm %q", raw), http.StatusBadRequest)
		return
	}
	algorithm := bridge.Algorithm(raw)
	if algorithm == "" {
		algorithm = bridge.StringToAlgorithm(h.settings.Current().Algorithm)
	}

	games := h.catalog.Games()

	engine := estimation.NewEngine()
	engine.Register(estimators.NewObserved(games))
	engine.Register(estimators.NewBaseline())

	_ = render.Render(w, r, EstimateReply{Projection: engine.Project(games, algorithm)})
}

type searchRequest struct {
	Input string `json:"input"`
}

func (h *Handler) putSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.search.Input(req.Input)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	if !h.settings.Loaded() {
		http.Error(w, "settings not loaded yet", http.StatusServiceUnavailable)
		return
	}
	_ = render.Render(w, r, SettingsReply{Settings: h.settings.Current()})
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	doc := settings.NewDefault()
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := doc.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("invalid settings: %v", err), http.StatusBadRequest)
		return
	}

	updated, err := h.settings.Update(func(s *settings.Settings) {
		*s = doc
	})
	if err != nil {
		zap.S().Named("rest").Errorf("failed to update settings: %s", err)
		http.Error(w, fmt.Sprintf("failed to update settings: %v", err), http.StatusInternalServerError)
		return
	}
	_ = render.Render(w, r, SettingsReply{Settings: updated})
}
