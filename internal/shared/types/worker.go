package types

import "time"

// WorkerStatus represents worker lifecycle states
type WorkerStatus string

const (
	WorkerPending   WorkerStatus = "pending"
	WorkerRunning   WorkerStatus = "running"
	WorkerCompleted WorkerStatus = "completed"
	WorkerCancelled WorkerStatus = "cancelled"
	WorkerError     WorkerStatus = "error"
)

// Terminal reports whether the status is final. No transition leaves a
// terminal state except removal from the active table into history.
func (s WorkerStatus) Terminal() bool {
	return s == WorkerCompleted || s == WorkerCancelled || s == WorkerError
}

// WorkerInfo is the authoritative record for one background task.
// Owned exclusively by the worker manager while active; moved into the
// bounded history list on terminal transition.
type WorkerInfo struct {
	ID           string       `json:"worker_id"`
	Type         string       `json:"worker_type"`
	Handle       TaskHandle   `json:"-"`
	Status       WorkerStatus `json:"status"`
	StartedAt    time.Time    `json:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	Progress     float64      `json:"progress"`
}

// WorkerStats contains worker manager statistics
type WorkerStats struct {
	ActiveWorkers   int            `json:"active_workers"`
	TotalHistory    int            `json:"total_history"`
	WorkersByType   map[string]int `json:"workers_by_type"`
	WorkersByStatus map[string]int `json:"workers_by_status"`
}
