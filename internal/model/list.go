package model

import "time"

// TaskList is a named collection of tasks.
type TaskList struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`

	// TaskCount is populated by list queries, not stored on the row.
	TaskCount int `json:"task_count,omitempty"`
}
