// Package sweeper periodically retries auto-assignment for tasks that are
// still waiting for a worker. A worker pool that was saturated at intake time
// frees up as tasks complete; the sweep picks those tasks up without any
// manual dispatch.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
	"github.com/hameedsk381/voice-task-ai/pkg/telemetry"
)

const (
	leaderKey     = "sweeper:leader"
	leaderTTL     = 30 * time.Second
	checkInterval = 15 * time.Second
)

// Core is the slice of the orchestrator the sweeper drives.
type Core interface {
	ListUnassigned(ctx context.Context, limit int) ([]*domain.Task, error)
	AssignAuto(ctx context.Context, taskID string) (*domain.Task, *domain.Worker, error)
}

// Sweeper runs the assignment sweep on a cron schedule, with Redis leader
// election so only one replica sweeps at a time.
type Sweeper struct {
	core       Core
	redis      *redis.Client
	schedule   cron.Schedule
	batchSize  int
	instanceID string
	logger     *slog.Logger

	nextRun time.Time
}

// New creates a Sweeper. scheduleExpr is a standard five-field cron
// expression, e.g. "*/5 * * * *".
func New(
	core Core,
	redisClient *redis.Client,
	scheduleExpr string,
	batchSize int,
	instanceID string,
	logger *slog.Logger,
) (*Sweeper, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		core:       core,
		redis:      redisClient,
		schedule:   schedule,
		batchSize:  batchSize,
		instanceID: instanceID,
		logger:     logger,
		nextRun:    schedule.Next(time.Now().UTC()),
	}, nil
}

// Run is the main polling loop. Blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	now := time.Now().UTC()
	if now.Before(s.nextRun) {
		return
	}
	if !s.acquireOrRenewLeadership(ctx) {
		return
	}
	s.nextRun = s.schedule.Next(now)

	if err := s.sweep(ctx); err != nil {
		s.logger.Error("sweep failed", slog.String("error", err.Error()))
	}
}

// acquireOrRenewLeadership attempts SETNX; returns true if this instance is
// the leader.
func (s *Sweeper) acquireOrRenewLeadership(ctx context.Context) bool {
	ok, err := s.redis.SetNX(ctx, leaderKey, s.instanceID, leaderTTL).Result()
	if err != nil {
		s.logger.Error("leader election SetNX", slog.String("error", err.Error()))
		return false
	}
	if ok {
		s.logger.Info("acquired sweeper leadership", slog.String("instance_id", s.instanceID))
		return true
	}

	// Already set — renew only if we own it (atomic Lua script avoids races).
	renewScript := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
	result, err := renewScript.Run(
		ctx, s.redis,
		[]string{leaderKey},
		s.instanceID,
		leaderTTL.Milliseconds(),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Error("leader renewal", slog.String("error", err.Error()))
		return false
	}
	return result == 1
}

// sweep runs one batch: every waiting task gets one auto-assignment attempt.
// Tasks with no qualified worker stay queued for the next sweep.
func (s *Sweeper) sweep(ctx context.Context) error {
	tasks, err := s.core.ListUnassigned(ctx, s.batchSize)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	assigned := 0
	for _, task := range tasks {
		result, worker, err := s.core.AssignAuto(ctx, task.ID)
		if err != nil {
			// One bad task must not stop the batch.
			s.logger.Error("auto-assignment failed",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if result == nil {
			continue
		}
		assigned++
		telemetry.SweeperAssignedTotal.Inc()
		s.logger.Info("swept task onto worker",
			slog.String("task_id", result.ID),
			slog.String("worker_id", worker.ID),
		)
	}

	s.logger.Info("sweep complete",
		slog.Int("waiting", len(tasks)),
		slog.Int("assigned", assigned),
	)
	return nil
}
