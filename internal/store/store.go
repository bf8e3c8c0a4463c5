package store

import (
	"context"

	"github.com/groblegark/ktasks/internal/model"
)

// Store defines the persistence interface for task lists and tasks.
type Store interface {
	// Task lists
	CreateList(ctx context.Context, list *model.TaskList) error
	GetList(ctx context.Context, id string) (*model.TaskList, error)
	ListLists(ctx context.Context, filter model.ListFilter) ([]*model.TaskList, int, error) // returns lists, total count, error
	UpdateList(ctx context.Context, list *model.TaskList) error
	DeleteList(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, int, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	CompleteTask(ctx context.Context, id string, completedBy string) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	// SetDependencies replaces a task's declared dependency list. The caller
	// validates the edge set first; the store only persists it.
	SetDependencies(ctx context.Context, taskID string, deps []string) error

	// Snapshot loads every task in a list, in creation order. This is the
	// input handed to the dependency graph engine.
	Snapshot(ctx context.Context, listID string) ([]*model.Task, error)

	// Notes
	AddNote(ctx context.Context, note *model.Note) error
	GetNotes(ctx context.Context, taskID string) ([]*model.Note, error)

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, taskID string) ([]*model.Event, error)

	// Stats
	GetStats(ctx context.Context) (*model.GraphStats, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
