package orchestrator

import (
	"context"
	"log/slog"
	"math"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

// TaskCounts breaks the tenant's tasks down by status.
type TaskCounts struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Escalated  int `json:"escalated"`
	Closed     int `json:"closed"`
}

// DashboardStats is the aggregate view served to the operations dashboard.
type DashboardStats struct {
	Tasks    TaskCounts          `json:"tasks"`
	Calls    int                 `json:"calls_handled"`
	Failures int                 `json:"failures"`
	// SuccessRate is the percentage of handled calls that produced a task,
	// rounded to two decimals; 0 when no calls have been handled yet.
	SuccessRate float64             `json:"success_rate"`
	Workers     *domain.WorkerStats `json:"workers"`
}

// Dashboard assembles the tenant's dashboard statistics.
func (s *Service) Dashboard(ctx context.Context, tenantID string) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.Tasks.Total, err = s.store.CountTasks(ctx, tenantID, nil); err != nil {
		return nil, err
	}
	for status, dst := range map[domain.Status]*int{
		domain.StatusNew:        &stats.Tasks.New,
		domain.StatusInProgress: &stats.Tasks.InProgress,
		domain.StatusEscalated:  &stats.Tasks.Escalated,
		domain.StatusClosed:     &stats.Tasks.Closed,
	} {
		st := status
		if *dst, err = s.store.CountTasks(ctx, tenantID, &st); err != nil {
			return nil, err
		}
	}

	if stats.Calls, err = s.store.CountCalls(ctx, tenantID); err != nil {
		return nil, err
	}
	if stats.Failures, err = s.store.CountFailures(ctx, tenantID); err != nil {
		return nil, err
	}
	if stats.Workers, err = s.store.WorkerStats(ctx, tenantID); err != nil {
		return nil, err
	}
	if stats.Calls > 0 {
		rate := float64(stats.Tasks.Total) / float64(stats.Calls) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

// ListFailures returns the most recent intake failures, newest first.
func (s *Service) ListFailures(ctx context.Context, limit int) ([]*domain.FailureLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListFailures(ctx, limit)
}

// RecordFailure appends an intake failure to the audit trail.
func (s *Service) RecordFailure(ctx context.Context, tenantID, phone, message string) {
	if err := s.store.AppendFailure(ctx, &domain.FailureLogEntry{
		TenantID:    tenantID,
		Error:       message,
		PhoneNumber: phone,
	}); err != nil {
		s.logger.Warn("failure log append failed", slog.String("error", err.Error()))
	}
}
