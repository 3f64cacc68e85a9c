package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/smetzlaff/epgrec/internal/application/services"
	"github.com/smetzlaff/epgrec/internal/domain"
)

// TaskStore is the slice of the task store the API exposes.
type TaskStore interface {
	Create(task domain.Task) (domain.Task, error)
	List() ([]domain.Task, error)
	Get(id string) (domain.Task, error)
	Update(task domain.Task) (domain.Task, error)
	Delete(id string) error
	Toggle(id string) (domain.Task, error)
}

// Handler bundles the services behind the JSON API.
type Handler struct {
	logger    *slog.Logger
	epg       *services.EPGService
	timers    *services.TimerService
	scheduler *services.TaskScheduler
	tasks     TaskStore
	channels  services.ChannelDirectory
}

// NewHandler creates a new HTTP handler
func NewHandler(logger *slog.Logger, epg *services.EPGService, timers *services.TimerService, scheduler *services.TaskScheduler, tasks TaskStore, channels services.ChannelDirectory) *Handler {
	return &Handler{
		logger:    logger,
		epg:       epg,
		timers:    timers,
		scheduler: scheduler,
		tasks:     tasks,
		channels:  channels,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type timerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnmappedChannel):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFetch):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// EPGList handles GET /api/epg
func (h *Handler) EPGList(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel")
	if channelID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "channel parameter required"})
		return
	}

	day := 0
	if d := r.URL.Query().Get("day"); d != "" {
		var err error
		day, err = strconv.Atoi(d)
		if err != nil || day < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "day must be a non-negative integer"})
			return
		}
	}

	page, err := h.epg.GetEPG(r.Context(), channelID, day, r.URL.Query().Get("segment"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// EPGSearch handles GET /api/epg/search
func (h *Handler) EPGSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := services.SearchOptions{
		Genre:   q.Get("genre"),
		Segment: q.Get("segment"),
	}
	if cs := q.Get("channels"); cs != "" {
		opts.Channels = strings.Split(cs, ",")
	}
	if ds := q.Get("days"); ds != "" {
		for _, d := range strings.Split(ds, ",") {
			day, err := strconv.Atoi(strings.TrimSpace(d))
			if err != nil || day < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "days must be non-negative integers"})
				return
			}
			opts.Days = append(opts.Days, day)
		}
	}

	programs, err := h.epg.SearchPrograms(r.Context(), q.Get("q"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if programs == nil {
		programs = []domain.Program{}
	}

	writeJSON(w, http.StatusOK, programs)
}

// EPGDetails handles GET /api/epg/details
func (h *Handler) EPGDetails(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "id parameter required"})
		return
	}

	details, err := h.epg.GetProgramDetails(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// CacheClear handles POST /api/cache/clear
func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	h.epg.ClearCache()
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

// CacheStats handles GET /api/cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.epg.CacheStats())
}

// Channels handles GET /api/channels
func (h *Handler) Channels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.channels.List())
}

// TimerCreate handles POST /api/timers
func (h *Handler) TimerCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.TimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	err := h.timers.CreateTimer(r.Context(), &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, timerResponse{Success: true, Message: "timer created"})
	case errors.Is(err, domain.ErrApplianceRejected), errors.Is(err, domain.ErrApplianceUnreachable):
		// Appliance-side failures are surfaced as a structured result, not
		// an HTTP error; the UI decides how to present them.
		writeJSON(w, http.StatusOK, timerResponse{Success: false, Message: "timer creation failed", Error: err.Error()})
	default:
		writeError(w, err)
	}
}

// TimerTest handles GET /api/timers/test
func (h *Handler) TimerTest(w http.ResponseWriter, r *http.Request) {
	if err := h.timers.TestConnection(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, timerResponse{Success: false, Message: "appliance not reachable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, timerResponse{Success: true, Message: "appliance reachable"})
}

// TaskList handles GET /api/tasks
func (h *Handler) TaskList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// TaskCreate handles POST /api/tasks
func (h *Handler) TaskCreate(w http.ResponseWriter, r *http.Request) {
	var task domain.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	created, err := h.tasks.Create(task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// TaskGet handles GET /api/tasks/{id}
func (h *Handler) TaskGet(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// TaskUpdate handles PUT /api/tasks/{id}
func (h *Handler) TaskUpdate(w http.ResponseWriter, r *http.Request) {
	var task domain.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	task.ID = r.PathValue("id")

	updated, err := h.tasks.Update(task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// TaskDelete handles DELETE /api/tasks/{id}
func (h *Handler) TaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// TaskToggle handles POST /api/tasks/{id}/toggle
func (h *Handler) TaskToggle(w http.ResponseWriter, r *http.Request) {
	task, err := h.tasks.Toggle(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// TaskExecute handles POST /api/tasks/{id}/execute
func (h *Handler) TaskExecute(w http.ResponseWriter, r *http.Request) {
	matches, timers, err := h.scheduler.ExecuteTaskNow(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"matches": matches, "timers": timers})
}

// TaskTypes handles GET /api/tasks/types
func (h *Handler) TaskTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.TaskTypes())
}

// SchedulerStatus handles GET /api/scheduler/status
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}

// SchedulerRun handles POST /api/scheduler/run
func (h *Handler) SchedulerRun(w http.ResponseWriter, r *http.Request) {
	// The pass can take minutes; trigger it detached from the request.
	go h.scheduler.RunDailyPass(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]bool{"triggered": true})
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	applianceOK := h.timers.TestConnection(r.Context()) == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"appliance": applianceOK,
	})
}
