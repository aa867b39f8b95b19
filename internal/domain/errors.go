package domain

import "fmt"

// ValidationError is returned for malformed input on task or worker creation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when a referenced task or worker does not exist.
type NotFoundError struct {
	Kind string // "task" or "worker"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError is returned when a worker registration collides with an
// existing phone number in the same tenant, or when a worker cannot be
// deleted because it still has active tasks.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// CapacityError is returned when a worker is already at its maximum
// concurrent task count.
type CapacityError struct {
	WorkerID   string
	WorkerName string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("worker %s is at maximum capacity", e.WorkerName)
}

// InvalidTransitionError is returned for an illegal task lifecycle move.
type InvalidTransitionError struct {
	TaskID string
	From   Status
	To     Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("task %s: illegal transition %s -> %s", e.TaskID, e.From, e.To)
}
