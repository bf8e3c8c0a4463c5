// Package client provides a transport-agnostic interface for the ktasks
// service and an HTTP/JSON implementation that talks to the ktasks REST API.
package client

import (
	"context"

	"github.com/groblegark/ktasks/internal/model"
)

// TasksClient is the interface that all ktasks CLI commands use to communicate
// with the tasks server. It is implemented by HTTPClient (default) and can be
// backed by any transport.
type TasksClient interface {
	// List CRUD
	CreateList(ctx context.Context, req *CreateListRequest) (*model.TaskList, error)
	GetList(ctx context.Context, id string) (*model.TaskList, error)
	ListLists(ctx context.Context, req *ListListsRequest) (*ListListsResponse, error)
	UpdateList(ctx context.Context, id string, req *UpdateListRequest) (*model.TaskList, error)
	DeleteList(ctx context.Context, id string) error

	// Task CRUD
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*CreateTaskResponse, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error)
	UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*model.Task, error)
	CompleteTask(ctx context.Context, id string, completedBy string) (*CompleteTaskResponse, error)
	DeleteTask(ctx context.Context, id string) error

	// Dependencies
	SetDependencies(ctx context.Context, taskID string, deps []string) (*SetDependenciesResponse, error)
	ValidateDependencies(ctx context.Context, taskID string, deps []string) (*ValidationResult, error)

	// Notes
	AddNote(ctx context.Context, taskID, author, text string) (*model.Note, error)
	GetNotes(ctx context.Context, taskID string) ([]*model.Note, error)

	// Events
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Analysis
	Analyze(ctx context.Context, listID string) (*model.DependencyAnalysis, error)
	ReadyTasks(ctx context.Context, listID string) ([]*model.Task, error)
	BlockedTasks(ctx context.Context, listID string) ([]model.BlockedTaskInfo, error)
	CriticalPath(ctx context.Context, listID string) (*CriticalPathResponse, error)
	RenderGraph(ctx context.Context, listID, format string) (string, error)

	// Stats
	GetStats(ctx context.Context) (*model.GraphStats, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateListRequest holds parameters for creating a task list.
type CreateListRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// ListListsRequest holds parameters for listing task lists.
type ListListsRequest struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ListListsResponse is the response from ListLists.
type ListListsResponse struct {
	Lists []*model.TaskList `json:"lists"`
	Total int               `json:"total"`
}

// UpdateListRequest holds optional parameters for updating a list.
// Nil pointer fields mean "don't change".
type UpdateListRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateTaskRequest holds parameters for creating a task.
type CreateTaskRequest struct {
	ListID           string                `json:"list_id"`
	ParentID         string                `json:"parent_id,omitempty"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	Priority         int                   `json:"priority"`
	EstimatedMinutes *int                  `json:"estimated_minutes,omitempty"`
	Dependencies     []string              `json:"dependencies,omitempty"`
	ExitCriteria     []model.ExitCriterion `json:"exit_criteria,omitempty"`
	ActionPlan       []model.PlanStep      `json:"action_plan,omitempty"`
	Tags             []string              `json:"tags,omitempty"`
	CreatedBy        string                `json:"created_by,omitempty"`
}

// CreateTaskResponse is the response from CreateTask.
type CreateTaskResponse struct {
	Task     *model.Task `json:"task"`
	Warnings []string    `json:"warnings,omitempty"`
}

// ListTasksRequest holds parameters for listing tasks.
type ListTasksRequest struct {
	ListID   string   `json:"list_id,omitempty"`
	Status   []string `json:"status,omitempty"`
	ParentID string   `json:"parent_id,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Search   string   `json:"search,omitempty"`
	Sort     string   `json:"sort,omitempty"`
	Priority *int     `json:"priority,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

// ListTasksResponse is the response from ListTasks.
type ListTasksResponse struct {
	Tasks []*model.Task `json:"tasks"`
	Total int           `json:"total"`
}

// UpdateTaskRequest holds optional parameters for updating a task.
// Nil pointer fields mean "don't change".
type UpdateTaskRequest struct {
	ParentID         *string                `json:"parent_id,omitempty"`
	Title            *string                `json:"title,omitempty"`
	Description      *string                `json:"description,omitempty"`
	Status           *string                `json:"status,omitempty"`
	Priority         *int                   `json:"priority,omitempty"`
	EstimatedMinutes *int                   `json:"estimated_minutes,omitempty"`
	ExitCriteria     *[]model.ExitCriterion `json:"exit_criteria,omitempty"`
	ActionPlan       *[]model.PlanStep      `json:"action_plan,omitempty"`
	Tags             *[]string              `json:"tags,omitempty"`
}

// CompleteTaskResponse is the response from CompleteTask.
type CompleteTaskResponse struct {
	Task      *model.Task `json:"task"`
	Unblocked []string    `json:"unblocked,omitempty"`
}

// ValidationResult mirrors the server's dependency validation payload.
type ValidationResult struct {
	Valid    bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SetDependenciesResponse is the response from SetDependencies.
type SetDependenciesResponse struct {
	Task       *model.Task      `json:"task"`
	Validation ValidationResult `json:"validation"`
}

// CriticalPathResponse is the response from CriticalPath.
type CriticalPathResponse struct {
	Path    []string `json:"path"`
	Minutes int      `json:"minutes"`
}
