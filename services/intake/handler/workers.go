package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/orchestrator"
)

// RegisterWorkerRequest is the JSON body for POST /api/v1/workers.
type RegisterWorkerRequest struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Skills   []string `json:"skills"`
	MaxTasks int      `json:"max_tasks,omitempty"`
}

// RegisterWorker handles POST /api/v1/workers.
func (h *Handler) RegisterWorker(w http.ResponseWriter, r *http.Request) {
	var req RegisterWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	worker, err := h.core.RegisterWorker(r.Context(), orchestrator.RegisterWorkerInput{
		TenantID: tenantID(r),
		Name:     req.Name,
		Phone:    req.Phone,
		Skills:   req.Skills,
		MaxTasks: req.MaxTasks,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, worker)
}

// GetWorker handles GET /api/v1/workers/{id}.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.core.GetWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// ListWorkers handles GET /api/v1/workers?status=&skill=.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	var status *domain.WorkerStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.WorkerStatus(s)
		status = &st
	}
	skill := r.URL.Query().Get("skill")

	workers, err := h.core.ListWorkers(r.Context(), tenantID(r), status, skill)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if workers == nil {
		workers = []*domain.Worker{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"workers": workers, "count": len(workers)})
}

// UpdateWorkerRequest is the partial-update body for PATCH /api/v1/workers/{id}.
type UpdateWorkerRequest struct {
	Name     *string  `json:"name,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Skills   []string `json:"skills,omitempty"`
	Status   *string  `json:"status,omitempty"`
	MaxTasks *int     `json:"max_tasks,omitempty"`
}

// UpdateWorker handles PATCH /api/v1/workers/{id}.
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	var req UpdateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := orchestrator.UpdateWorkerInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Skills:   req.Skills,
		MaxTasks: req.MaxTasks,
	}
	if req.Status != nil {
		st := domain.WorkerStatus(*req.Status)
		in.Status = &st
	}

	worker, err := h.core.UpdateWorker(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// DeleteWorker handles DELETE /api/v1/workers/{id}.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.core.RemoveWorker(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WorkerStats handles GET /api/v1/workers/stats.
func (h *Handler) WorkerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.core.WorkerStats(r.Context(), tenantID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
