// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tendant/simple-weathercast/internal/record"
	"github.com/tendant/simple-weathercast/internal/status"
	"github.com/tendant/simple-weathercast/pkg/schema"
)

// Publisher sends JSON messages to the work queue.
type Publisher interface {
	PublishJSON(subject string, v any) error
}

// Handler serves the submission gateway and the status endpoint.
type Handler struct {
	store           record.Store
	queue           Publisher
	projection      *status.Projection
	dispatchSubject string
	logger          *slog.Logger
}

func NewHandler(store record.Store, queue Publisher, projection *status.Projection, dispatchSubject string, logger *slog.Logger) *Handler {
	return &Handler{
		store:           store,
		queue:           queue,
		projection:      projection,
		dispatchSubject: dispatchSubject,
		logger:          logger,
	}
}

// Routes mounts the gateway endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/processes", h.Submit)
	r.Get("/processes/{processID}", h.GetStatus)
	r.Get("/healthz", h.Health)
	return r
}

type submitResponse struct {
	ProcessID string `json:"process_id"`
	StatusURL string `json:"status_url"`
}

// Submit creates a fresh process record and enqueues its dispatch message.
// The record write is unconditional (no prior version exists for a fresh id).
// If enqueuing fails the record stays behind as an accepted orphan and the
// caller gets a retryable 503.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	processID := uuid.NewString()
	logger := h.logger.With("process_id", processID)

	rec := record.New(processID, time.Now())
	if err := h.store.Create(r.Context(), rec); err != nil {
		logger.Error("create process record failed", "err", err)
		respondError(w, http.StatusInternalServerError, "could not create process")
		return
	}

	msg := schema.DispatchRequested{ProcessID: processID, HappenedAt: time.Now().Unix()}
	if err := h.queue.PublishJSON(h.dispatchSubject, msg); err != nil {
		logger.Error("enqueue dispatch message failed", "err", err)
		respondError(w, http.StatusServiceUnavailable, "processing queue unavailable, retry later")
		return
	}

	logger.Info("accepted process")
	respondJSON(w, http.StatusAccepted, submitResponse{
		ProcessID: processID,
		StatusURL: "/processes/" + processID,
	})
}

// GetStatus renders the point-in-time view of one process.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	processID := chi.URLParam(r, "processID")

	view, err := h.projection.Build(r.Context(), processID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			respondError(w, http.StatusNotFound, "unknown process id")
			return
		}
		h.logger.Error("build status view failed", "process_id", processID, "err", err)
		respondError(w, http.StatusServiceUnavailable, "status temporarily unavailable")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "err", err)
	}
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, errorResponse{Error: msg})
}
