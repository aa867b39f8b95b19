package domain

import (
	"slices"
	"time"
)

// WorkerStatus is the availability state of a service provider.
type WorkerStatus string

const (
	WorkerAvailable WorkerStatus = "available"
	WorkerBusy      WorkerStatus = "busy"
	WorkerOffline   WorkerStatus = "offline"
)

// Valid reports whether s is one of the known worker states.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerAvailable, WorkerBusy, WorkerOffline:
		return true
	}
	return false
}

// Worker is a service provider belonging to one tenant, with a skill set
// and a finite concurrent-task capacity.
type Worker struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Skills       []string     `json:"skills"`
	Status       WorkerStatus `json:"status"`
	CurrentTasks int          `json:"current_tasks"`
	MaxTasks     int          `json:"max_tasks"`
	Rating       *float64     `json:"rating"`
	TotalJobs    int          `json:"total_jobs"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HasSkill reports whether the worker can handle the given intent category.
func (w *Worker) HasSkill(intent string) bool {
	return slices.Contains(w.Skills, intent)
}

// AtCapacity reports whether the worker cannot take another task.
func (w *Worker) AtCapacity() bool {
	return w.CurrentTasks >= w.MaxTasks
}

// WorkerStats is the per-tenant aggregate over the worker pool.
type WorkerStats struct {
	Total         int      `json:"total_workers"`
	Available     int      `json:"available"`
	Busy          int      `json:"busy"`
	Offline       int      `json:"offline"`
	TotalJobsDone int      `json:"total_jobs_done"`
	AverageRating *float64 `json:"average_rating"`
}
