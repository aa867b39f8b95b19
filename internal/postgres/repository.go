package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hameedsk381/voice-task-ai/internal/domain"
)

// TaskRepository abstracts all database access for tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, tenantID string, status *domain.Status, limit int) ([]*domain.Task, error)
	ListUnassigned(ctx context.Context, limit int) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) error
	CountTasks(ctx context.Context, tenantID string, status *domain.Status) (int, error)
}

// WorkerRepository abstracts all database access for workers.
type WorkerRepository interface {
	CreateWorker(ctx context.Context, worker *domain.Worker) error
	GetWorker(ctx context.Context, id string) (*domain.Worker, error)
	ListWorkers(ctx context.Context, tenantID string, status *domain.WorkerStatus, skill string) ([]*domain.Worker, error)
	ListAssignable(ctx context.Context, tenantID string) ([]*domain.Worker, error)
	UpdateWorker(ctx context.Context, worker *domain.Worker) error
	DeleteWorker(ctx context.Context, id string) error
	WorkerStats(ctx context.Context, tenantID string) (*domain.WorkerStats, error)
}

// AuditLog appends call and failure records for the intake audit trail.
type AuditLog interface {
	AppendCall(ctx context.Context, entry *domain.CallLogEntry) error
	AppendFailure(ctx context.Context, entry *domain.FailureLogEntry) error
	ListFailures(ctx context.Context, limit int) ([]*domain.FailureLogEntry, error)
	CountCalls(ctx context.Context, tenantID string) (int, error)
	CountFailures(ctx context.Context, tenantID string) (int, error)
}

// Store is the full persistence surface consumed by the orchestrator.
// Assign applies the combined task+worker mutation in one transaction.
type Store interface {
	TaskRepository
	WorkerRepository
	AuditLog
	Assign(ctx context.Context, taskID, workerID string) (*domain.Task, *domain.Worker, error)
}

type store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pgxpool with the Store interface.
func NewStore(pool *pgxpool.Pool) Store {
	return &store{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// ── tasks ─────────────────────────────────────────────────────────────────────

const taskColumns = `id, tenant_id, intent, issue, urgency, location, preferred_time,
       confidence, status, customer_phone, customer_name, transcript,
       escalation_reason, assigned_to, assigned_worker_name, created_at, updated_at`

func (s *store) CreateTask(ctx context.Context, task *domain.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		task.ID, task.TenantID, task.Intent, task.Issue, string(task.Urgency),
		task.Location, task.PreferredTime, task.Confidence, string(task.Status),
		task.CustomerPhone, task.CustomerName, task.Transcript,
		task.EscalationReason, nullable(task.AssignedTo), task.AssignedWorkerName,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task %s: %w", task.ID, err)
	}
	return nil
}

func (s *store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row, id)
}

func (s *store) ListTasks(ctx context.Context, tenantID string, status *domain.Status, limit int) ([]*domain.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != nil {
		q += ` AND status = $2`
		args = append(args, string(*status))
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *store) ListUnassigned(ctx context.Context, limit int) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE status = $1 AND assigned_to IS NULL
		ORDER BY created_at ASC
		LIMIT $2
	`, string(domain.StatusNew), limit)
	if err != nil {
		return nil, fmt.Errorf("list unassigned tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *store) UpdateTask(ctx context.Context, task *domain.Task) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET status = $1, escalation_reason = $2, assigned_to = $3,
		    assigned_worker_name = $4, updated_at = $5
		WHERE id = $6
	`,
		string(task.Status), task.EscalationReason, nullable(task.AssignedTo),
		task.AssignedWorkerName, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "task", ID: task.ID}
	}
	return nil
}

func (s *store) CountTasks(ctx context.Context, tenantID string, status *domain.Status) (int, error) {
	q := `SELECT COUNT(*) FROM tasks WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != nil {
		q += ` AND status = $2`
		args = append(args, string(*status))
	}
	var n int
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks for tenant %s: %w", tenantID, err)
	}
	return n, nil
}

// ── workers ───────────────────────────────────────────────────────────────────

const workerColumns = `id, tenant_id, name, phone, skills, status, current_tasks,
       max_tasks, rating, total_jobs, created_at, updated_at`

func (s *store) CreateWorker(ctx context.Context, worker *domain.Worker) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO workers (`+workerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		worker.ID, worker.TenantID, worker.Name, worker.Phone, worker.Skills,
		string(worker.Status), worker.CurrentTasks, worker.MaxTasks,
		worker.Rating, worker.TotalJobs, worker.CreatedAt, worker.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &domain.ConflictError{
				Reason: fmt.Sprintf("worker with phone %s already exists", worker.Phone),
			}
		}
		return fmt.Errorf("create worker %s: %w", worker.ID, err)
	}
	return nil
}

func (s *store) GetWorker(ctx context.Context, id string) (*domain.Worker, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id)
	return scanWorker(row, id)
}

func (s *store) ListWorkers(ctx context.Context, tenantID string, status *domain.WorkerStatus, skill string) ([]*domain.Worker, error) {
	q := `SELECT ` + workerColumns + ` FROM workers WHERE tenant_id = $1`
	args := []any{tenantID}
	if status != nil {
		args = append(args, string(*status))
		q += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if skill != "" {
		args = append(args, skill)
		q += fmt.Sprintf(` AND $%d = ANY(skills)`, len(args))
	}
	q += ` ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list workers for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()
	return collectWorkers(rows)
}

// ListAssignable returns the auto-assignment candidate pool: available and
// busy workers ordered by load first, then by rating with nulls last.
func (s *store) ListAssignable(ctx context.Context, tenantID string) ([]*domain.Worker, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+workerColumns+`
		FROM workers
		WHERE tenant_id = $1 AND status IN ($2, $3)
		ORDER BY current_tasks ASC, rating DESC NULLS LAST
	`, tenantID, string(domain.WorkerAvailable), string(domain.WorkerBusy))
	if err != nil {
		return nil, fmt.Errorf("list assignable workers for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()
	return collectWorkers(rows)
}

func (s *store) UpdateWorker(ctx context.Context, worker *domain.Worker) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE workers
		SET name = $1, phone = $2, skills = $3, status = $4, current_tasks = $5,
		    max_tasks = $6, rating = $7, total_jobs = $8, updated_at = $9
		WHERE id = $10
	`,
		worker.Name, worker.Phone, worker.Skills, string(worker.Status),
		worker.CurrentTasks, worker.MaxTasks, worker.Rating, worker.TotalJobs,
		worker.UpdatedAt, worker.ID,
	)
	if err != nil {
		return fmt.Errorf("update worker %s: %w", worker.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "worker", ID: worker.ID}
	}
	return nil
}

func (s *store) DeleteWorker(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete worker %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Kind: "worker", ID: id}
	}
	return nil
}

func (s *store) WorkerStats(ctx context.Context, tenantID string) (*domain.WorkerStats, error) {
	var stats domain.WorkerStats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $2),
		       COUNT(*) FILTER (WHERE status = $3),
		       COALESCE(SUM(total_jobs), 0),
		       AVG(rating)
		FROM workers
		WHERE tenant_id = $1
	`, tenantID, string(domain.WorkerAvailable), string(domain.WorkerBusy)).Scan(
		&stats.Total, &stats.Available, &stats.Busy,
		&stats.TotalJobsDone, &stats.AverageRating,
	)
	if err != nil {
		return nil, fmt.Errorf("worker stats for tenant %s: %w", tenantID, err)
	}
	stats.Offline = stats.Total - stats.Available - stats.Busy
	return &stats, nil
}

// ── assignment ────────────────────────────────────────────────────────────────

// Assign binds a task to a worker in a single transaction. The worker
// increment is conditional on remaining capacity, so two concurrent calls
// against a worker with one free slot cannot both succeed. On any error
// neither row is mutated.
func (s *store) Assign(ctx context.Context, taskID, workerID string) (*domain.Task, *domain.Worker, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()

	row := tx.QueryRow(ctx, `
		UPDATE workers
		SET current_tasks = current_tasks + 1,
		    status = CASE WHEN current_tasks + 1 >= max_tasks THEN 'busy' ELSE status END,
		    updated_at = $2
		WHERE id = $1 AND current_tasks < max_tasks
		RETURNING `+workerColumns,
		workerID, now)
	worker, err := scanWorker(row, workerID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			// Either the worker is gone or it was at capacity; distinguish.
			if w, getErr := s.GetWorker(ctx, workerID); getErr == nil {
				return nil, nil, &domain.CapacityError{WorkerID: w.ID, WorkerName: w.Name}
			}
			return nil, nil, &domain.NotFoundError{Kind: "worker", ID: workerID}
		}
		return nil, nil, err
	}

	row = tx.QueryRow(ctx, `
		UPDATE tasks
		SET assigned_to = $2, assigned_worker_name = $3, status = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+taskColumns,
		taskID, worker.ID, worker.Name, string(domain.StatusInProgress), now)
	task, err := scanTask(row, taskID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit assign tx: %w", err)
	}
	return task, worker, nil
}

// ── audit logs ────────────────────────────────────────────────────────────────

func (s *store) AppendCall(ctx context.Context, entry *domain.CallLogEntry) error {
	fillEntryDefaults(&entry.ID, &entry.CreatedAt)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO call_logs (id, tenant_id, phone_number, transcript, confidence, task_id, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		entry.ID, entry.TenantID, entry.PhoneNumber, entry.Transcript,
		entry.Confidence, nullable(entry.TaskID), entry.Success, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append call log: %w", err)
	}
	return nil
}

func (s *store) AppendFailure(ctx context.Context, entry *domain.FailureLogEntry) error {
	fillEntryDefaults(&entry.ID, &entry.CreatedAt)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO failure_logs (id, tenant_id, error_message, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.TenantID, entry.Error, entry.PhoneNumber, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	return nil
}

func (s *store) ListFailures(ctx context.Context, limit int) ([]*domain.FailureLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, error_message, phone_number, created_at
		FROM failure_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var entries []*domain.FailureLogEntry
	for rows.Next() {
		var e domain.FailureLogEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Error, &e.PhoneNumber, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failure log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *store) CountCalls(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM call_logs WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count calls for tenant %s: %w", tenantID, err)
	}
	return n, nil
}

func (s *store) CountFailures(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM failure_logs WHERE tenant_id = $1`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failures for tenant %s: %w", tenantID, err)
	}
	return n, nil
}

// ── scan helpers ──────────────────────────────────────────────────────────────

type scannable interface {
	Scan(...any) error
}

func scanTask(row scannable, id string) (*domain.Task, error) {
	var (
		task       domain.Task
		urgency    string
		status     string
		assignedTo *string
	)
	err := row.Scan(
		&task.ID, &task.TenantID, &task.Intent, &task.Issue, &urgency,
		&task.Location, &task.PreferredTime, &task.Confidence, &status,
		&task.CustomerPhone, &task.CustomerName, &task.Transcript,
		&task.EscalationReason, &assignedTo, &task.AssignedWorkerName,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "task", ID: id}
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Urgency = domain.Urgency(urgency)
	task.Status = domain.Status(status)
	if assignedTo != nil {
		task.AssignedTo = *assignedTo
	}
	return &task, nil
}

func scanWorker(row scannable, id string) (*domain.Worker, error) {
	var (
		worker domain.Worker
		status string
	)
	err := row.Scan(
		&worker.ID, &worker.TenantID, &worker.Name, &worker.Phone, &worker.Skills,
		&status, &worker.CurrentTasks, &worker.MaxTasks, &worker.Rating,
		&worker.TotalJobs, &worker.CreatedAt, &worker.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Kind: "worker", ID: id}
		}
		return nil, fmt.Errorf("scan worker: %w", err)
	}
	worker.Status = domain.WorkerStatus(status)
	return &worker, nil
}

func collectTasks(rows pgx.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows, "")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func collectWorkers(rows pgx.Rows) ([]*domain.Worker, error) {
	var workers []*domain.Worker
	for rows.Next() {
		worker, err := scanWorker(rows, "")
		if err != nil {
			return nil, err
		}
		workers = append(workers, worker)
	}
	return workers, rows.Err()
}

// nullable maps "" to NULL for optional foreign keys.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fillEntryDefaults(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
