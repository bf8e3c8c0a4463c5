package events

import (
	"context"

	"github.com/groblegark/ktasks/internal/model"
)

// Event topic constants
const (
	TopicListCreated = "tasks.list.created"
	TopicListUpdated = "tasks.list.updated"
	TopicListDeleted = "tasks.list.deleted"

	TopicTaskCreated   = "tasks.task.created"
	TopicTaskUpdated   = "tasks.task.updated"
	TopicTaskCompleted = "tasks.task.completed"
	TopicTaskDeleted   = "tasks.task.deleted"

	TopicDependenciesSet = "tasks.dependency.set"
	TopicNoteAdded       = "tasks.note.added"

	// Operational alerts emitted by the memory watchdog.
	TopicMemoryAlert = "tasks.alert.memory"
)

// Event types

type ListCreated struct {
	List *model.TaskList `json:"list"`
}

type ListUpdated struct {
	List    *model.TaskList `json:"list"`
	Changes map[string]any  `json:"changes"` // field name -> new value
}

type ListDeleted struct {
	ListID string `json:"list_id"`
}

type TaskCreated struct {
	Task *model.Task `json:"task"`
}

type TaskUpdated struct {
	Task    *model.Task    `json:"task"`
	Changes map[string]any `json:"changes"`
}

type TaskCompleted struct {
	Task        *model.Task `json:"task"`
	CompletedBy string      `json:"completed_by,omitempty"`
}

type TaskDeleted struct {
	TaskID string `json:"task_id"`
	ListID string `json:"list_id"`
}

type DependenciesSet struct {
	TaskID       string   `json:"task_id"`
	ListID       string   `json:"list_id"`
	Dependencies []string `json:"dependencies"`
	Warnings     []string `json:"warnings,omitempty"`
}

type NoteAdded struct {
	Note *model.Note `json:"note"`
}

// MemoryAlert reports sustained heap growth detected by the watchdog.
type MemoryAlert struct {
	HeapMB    int    `json:"heap_mb"`
	LimitMB   int    `json:"limit_mb"`
	Goroutine int    `json:"goroutines"`
	Message   string `json:"message"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
