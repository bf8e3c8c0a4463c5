package model

import (
	"encoding/json"
	"time"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends a task's lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ExitCriterion is a single completion requirement attached to a task.
type ExitCriterion struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// PlanStep is a single step in a task's action plan.
type PlanStep struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task is the core work-item record. Tasks belong to exactly one list and may
// nest under a parent task within the same list.
type Task struct {
	ID          string `json:"id"`
	ListID      string `json:"list_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Priority    int    `json:"priority"`

	// EstimatedMinutes is the optional effort estimate used for critical-path
	// weighting. Nil means "unestimated"; the graph engine substitutes a
	// default weight.
	EstimatedMinutes *int `json:"estimated_minutes,omitempty"`

	// Dependencies lists the ids of tasks this task depends on, in declared
	// order. Edges point from dependent to prerequisite.
	Dependencies []string `json:"dependencies,omitempty"`

	ExitCriteria []ExitCriterion `json:"exit_criteria,omitempty"`
	ActionPlan   []PlanStep      `json:"action_plan,omitempty"`
	Tags         []string        `json:"tags,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relational data -- populated by queries, not stored in the tasks table.
	Notes []*Note `json:"notes,omitempty"`
}

// Duration returns the task's estimated duration in minutes, substituting
// fallback when no estimate is set.
func (t *Task) Duration(fallback int) int {
	if t.EstimatedMinutes == nil || *t.EstimatedMinutes <= 0 {
		return fallback
	}
	return *t.EstimatedMinutes
}

// MarshalCriteria encodes exit criteria for JSONB storage.
func MarshalCriteria(cs []ExitCriterion) (json.RawMessage, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	return json.Marshal(cs)
}

// MarshalPlan encodes an action plan for JSONB storage.
func MarshalPlan(ps []PlanStep) (json.RawMessage, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	return json.Marshal(ps)
}
