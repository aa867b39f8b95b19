package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
)

// CreateTaskInput is a fully classified service request ready to become a task.
type CreateTaskInput struct {
	TenantID      string
	Intent        string
	Issue         string
	Urgency       domain.Urgency
	Location      string
	PreferredTime string
	Confidence    float64
	CustomerPhone string
	CustomerName  string
	Transcript    string
	// ReplyChannel is where the customer confirmation goes. Defaults to SMS.
	ReplyChannel notify.Channel
}

func (in *CreateTaskInput) validate() error {
	switch {
	case in.TenantID == "":
		return &domain.ValidationError{Field: "tenant_id", Reason: "required"}
	case in.Intent == "":
		return &domain.ValidationError{Field: "intent", Reason: "required"}
	case in.Issue == "":
		return &domain.ValidationError{Field: "issue", Reason: "required"}
	case !in.Urgency.Valid():
		return &domain.ValidationError{Field: "urgency", Reason: "must be low, medium, high or critical"}
	case in.CustomerPhone == "":
		return &domain.ValidationError{Field: "customer_phone", Reason: "required"}
	case in.Transcript == "":
		return &domain.ValidationError{Field: "transcript", Reason: "required"}
	case in.Confidence < 0 || in.Confidence > 1:
		return &domain.ValidationError{Field: "confidence", Reason: "must be between 0 and 1"}
	}
	return nil
}

// CreateTask persists a new task in the "new" state, appends the call audit
// record, and queues the customer confirmation plus the ops alert.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	task := &domain.Task{
		ID:            uuid.New().String(),
		TenantID:      in.TenantID,
		Intent:        in.Intent,
		Issue:         in.Issue,
		Urgency:       in.Urgency,
		Location:      in.Location,
		PreferredTime: in.PreferredTime,
		Confidence:    in.Confidence,
		Status:        domain.StatusNew,
		CustomerPhone: in.CustomerPhone,
		CustomerName:  in.CustomerName,
		Transcript:    in.Transcript,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	telemetry.TasksCreatedTotal.WithLabelValues(string(task.Urgency)).Inc()
	s.cacheStatus(ctx, task.ID, task.Status)

	if err := s.store.AppendCall(ctx, &domain.CallLogEntry{
		TenantID:    task.TenantID,
		PhoneNumber: task.CustomerPhone,
		Transcript:  task.Transcript,
		Confidence:  task.Confidence,
		TaskID:      task.ID,
		Success:     true,
	}); err != nil {
		s.logger.Warn("call log append failed",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}

	queue := s.newQueue()
	replyChannel := in.ReplyChannel
	if replyChannel == "" {
		replyChannel = notify.ChannelSMS
	}
	queue.Defer(notify.Intent{
		TenantID:  task.TenantID,
		Kind:      notify.KindCustomerConfirmation,
		Channel:   replyChannel,
		Recipient: task.CustomerPhone,
		Message:   notify.CustomerConfirmationMessage(task),
	})
	if s.cfg.OpsContact != "" {
		queue.Defer(notify.Intent{
			TenantID:  task.TenantID,
			Kind:      notify.KindTaskAlert,
			Channel:   s.cfg.OpsChannel,
			Recipient: s.cfg.OpsContact,
			Message:   notify.TaskAlertMessage(task),
		})
	}
	queue.Flush(ctx)

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("tenant_id", task.TenantID),
		slog.String("intent", task.Intent),
		slog.String("urgency", string(task.Urgency)),
	)
	return task, nil
}

// GetTask returns one task by ID.
func (s *Service) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.store.GetTask(ctx, id)
}

// ListTasks returns the tenant's tasks, newest first, optionally filtered by
// status.
func (s *Service) ListTasks(ctx context.Context, tenantID string, status *domain.Status, limit int) ([]*domain.Task, error) {
	if status != nil && !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown task status"}
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListTasks(ctx, tenantID, status, limit)
}

// SetStatus moves a task to the given status. Any transition is allowed
// except out of a terminal state.
func (s *Service) SetStatus(ctx context.Context, taskID string, status domain.Status) (*domain.Task, error) {
	if !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown task status"}
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == status {
		return task, nil
	}
	if task.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{TaskID: task.ID, From: task.Status, To: status}
	}

	task.Status = status
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, task.ID, task.Status)

	s.logger.Info("task status changed",
		slog.String("task_id", task.ID),
		slog.String("status", string(task.Status)),
	)
	return task, nil
}

// Escalate flags a task for human attention and queues the ops alert.
// Terminal tasks cannot be escalated.
func (s *Service) Escalate(ctx context.Context, taskID, reason string) (*domain.Task, error) {
	if reason == "" {
		return nil, &domain.ValidationError{Field: "reason", Reason: "required"}
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{TaskID: task.ID, From: task.Status, To: domain.StatusEscalated}
	}

	task.Status = domain.StatusEscalated
	task.EscalationReason = reason
	task.UpdatedAt = s.now()
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	telemetry.EscalationsTotal.Inc()
	s.cacheStatus(ctx, task.ID, task.Status)

	if s.cfg.OpsContact != "" {
		queue := s.newQueue()
		queue.Defer(notify.Intent{
			TenantID:  task.TenantID,
			Kind:      notify.KindEscalationAlert,
			Channel:   s.cfg.OpsChannel,
			Recipient: s.cfg.OpsContact,
			Message:   notify.EscalationAlertMessage(task, reason),
		})
		queue.Flush(ctx)
	}

	s.logger.Warn("task escalated",
		slog.String("task_id", task.ID),
		slog.String("reason", reason),
	)
	return task, nil
}

// LiveStatus reads the cached task status from Redis, falling back to
// Postgres on a cache miss.
func (s *Service) LiveStatus(ctx context.Context, taskID string) (domain.Status, error) {
	status, err := s.states.GetStatus(ctx, taskID)
	if err == nil {
		return status, nil
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	return task.Status, nil
}
