// Package orchestrator implements the task core: creating tasks from
// classified requests, the worker registry, assignment in both manual and
// automatic modes, and completion with rating feedback.
//
// All primary mutations go through the postgres Store. Notification intents
// are queued during an operation and flushed only after the mutation
// committed, so a failed operation never notifies anyone. The Redis state
// cache is best-effort and never gates an operation.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/internal/escalation"
	"github.com/hameedsk381/voice-task-ai/internal/notify"
	"github.com/hameedsk381/voice-task-ai/internal/postgres"
	"github.com/hameedsk381/voice-task-ai/internal/redis"
)

// DefaultMaxTasks is the worker capacity used when registration omits one.
const DefaultMaxTasks = 5

// Config carries the tunable parts of the orchestrator.
type Config struct {
	// DefaultMaxTasks is applied when a worker registers without a capacity.
	DefaultMaxTasks int
	// OpsContact receives task and escalation alerts. Empty disables them.
	OpsContact string
	// OpsChannel is the delivery channel for ops alerts.
	OpsChannel notify.Channel
}

func (c *Config) applyDefaults() {
	if c.DefaultMaxTasks <= 0 {
		c.DefaultMaxTasks = DefaultMaxTasks
	}
	if c.OpsChannel == "" {
		c.OpsChannel = notify.ChannelSMS
	}
}

// Service is the orchestration core shared by the intake API and the sweeper.
type Service struct {
	store  postgres.Store
	states redis.StateStore
	locks  redis.Locker
	sink   notify.Sink
	policy *escalation.Policy
	cfg    Config
	logger *slog.Logger

	now func() time.Time
}

// New wires an orchestrator Service.
func New(
	store postgres.Store,
	states redis.StateStore,
	locks redis.Locker,
	sink notify.Sink,
	policy *escalation.Policy,
	cfg Config,
	logger *slog.Logger,
) *Service {
	cfg.applyDefaults()
	return &Service{
		store:  store,
		states: states,
		locks:  locks,
		sink:   sink,
		policy: policy,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "orchestrator")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Policy exposes the escalation policy so intake can evaluate classification
// results before creating a task.
func (s *Service) Policy() *escalation.Policy { return s.policy }

// newQueue returns a fresh per-operation intent queue.
func (s *Service) newQueue() *notify.Queue {
	return notify.NewQueue(s.sink, s.logger)
}

// cacheStatus mirrors the task status into Redis. Failures are logged only;
// Postgres stays the source of truth.
func (s *Service) cacheStatus(ctx context.Context, taskID string, status domain.Status) {
	if err := s.states.SetStatus(ctx, taskID, status); err != nil {
		s.logger.Warn("status cache update failed",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
	}
}
