package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/internal/orchestrator"
)

// CreateTaskRequest is the JSON body for POST /api/v1/tasks: a pre-classified
// task created directly, bypassing the inbound webhook.
type CreateTaskRequest struct {
	Intent        string  `json:"intent"`
	Issue         string  `json:"issue"`
	Urgency       string  `json:"urgency"`
	Location      string  `json:"location,omitempty"`
	PreferredTime string  `json:"preferred_time,omitempty"`
	Confidence    float64 `json:"confidence"`
	CustomerPhone string  `json:"customer_phone"`
	CustomerName  string  `json:"customer_name,omitempty"`
	Transcript    string  `json:"transcript"`
}

// CreateTask handles POST /api/v1/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.core.CreateTask(r.Context(), orchestrator.CreateTaskInput{
		TenantID:      tenantID(r),
		Intent:        req.Intent,
		Issue:         req.Issue,
		Urgency:       domain.Urgency(req.Urgency),
		Location:      req.Location,
		PreferredTime: req.PreferredTime,
		Confidence:    req.Confidence,
		CustomerPhone: req.CustomerPhone,
		CustomerName:  req.CustomerName,
		Transcript:    req.Transcript,
		ReplyChannel:  notify.ChannelSMS,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.core.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListTasks handles GET /api/v1/tasks?status=&limit=.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.Status(s)
		status = &st
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tasks, err := h.core.ListTasks(r.Context(), tenantID(r), status, limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

// TaskStatus handles GET /api/v1/tasks/{id}/status — the cached live status.
func (h *Handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := h.core.LiveStatus(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "status": string(status)})
}

// SetTaskStatusRequest is the body for PATCH /api/v1/tasks/{id}/status.
type SetTaskStatusRequest struct {
	Status string `json:"status"`
}

// SetTaskStatus handles PATCH /api/v1/tasks/{id}/status.
func (h *Handler) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req SetTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.core.SetStatus(r.Context(), chi.URLParam(r, "id"), domain.Status(req.Status))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// EscalateTaskRequest is the body for POST /api/v1/tasks/{id}/escalate.
type EscalateTaskRequest struct {
	Reason string `json:"reason"`
}

// EscalateTask handles POST /api/v1/tasks/{id}/escalate.
func (h *Handler) EscalateTask(w http.ResponseWriter, r *http.Request) {
	var req EscalateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.core.Escalate(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// AssignTaskRequest is the body for POST /api/v1/tasks/{id}/assign. An empty
// worker_id requests automatic selection.
type AssignTaskRequest struct {
	WorkerID string `json:"worker_id,omitempty"`
}

// AssignTaskResponse reports the assignment outcome. Assigned is false when
// auto-assignment found no qualified worker.
type AssignTaskResponse struct {
	Assigned bool         `json:"assigned"`
	Task     *domain.Task `json:"task,omitempty"`
}

// AssignTask handles POST /api/v1/tasks/{id}/assign.
func (h *Handler) AssignTask(w http.ResponseWriter, r *http.Request) {
	var req AssignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")

	if req.WorkerID != "" {
		task, err := h.core.AssignManual(r.Context(), id, req.WorkerID)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, AssignTaskResponse{Assigned: true, Task: task})
		return
	}

	task, _, err := h.core.AssignAuto(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if task == nil {
		writeJSON(w, http.StatusOK, AssignTaskResponse{Assigned: false})
		return
	}
	writeJSON(w, http.StatusOK, AssignTaskResponse{Assigned: true, Task: task})
}

// CompleteTaskRequest is the body for POST /api/v1/tasks/{id}/complete.
type CompleteTaskRequest struct {
	Rating *float64 `json:"rating,omitempty"`
}

// CompleteTask handles POST /api/v1/tasks/{id}/complete: release the worker
// first, then close the task. A closed task makes the release a no-op, so the
// endpoint is safe to retry.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	var req CompleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.core.Complete(r.Context(), id, req.Rating); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	task, err := h.core.SetStatus(r.Context(), id, domain.StatusClosed)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.core.Dashboard(r.Context(), tenantID(r))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListFailures handles GET /api/v1/failures?limit=.
func (h *Handler) ListFailures(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	failures, err := h.core.ListFailures(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if failures == nil {
		failures = []*domain.FailureLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"failures": failures, "count": len(failures)})
}
