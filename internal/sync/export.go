package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ListCount int       `json:"list_count"`
	TaskCount int       `json:"task_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExportJSONL writes every task list and task from the store as JSONL to w.
// Lists and tasks are sorted by ID; tasks include embedded notes.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	lists, _, err := s.ListLists(ctx, model.ListFilter{Limit: 10000})
	if err != nil {
		return fmt.Errorf("list task lists: %w", err)
	}
	sort.Slice(lists, func(i, j int) bool {
		return lists[i].ID < lists[j].ID
	})

	tasks, _, err := s.ListTasks(ctx, model.TaskFilter{Limit: 100000})
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	// Populate notes for each task.
	for _, t := range tasks {
		notes, err := s.GetNotes(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("get notes for %s: %w", t.ID, err)
		}
		t.Notes = notes
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	// Write header.
	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: time.Now().UTC(),
		ListCount: len(lists),
		TaskCount: len(tasks),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, l := range lists {
		if err := enc.Encode(record{Type: "list", Data: l}); err != nil {
			return fmt.Errorf("encode list %s: %w", l.ID, err)
		}
	}

	for _, t := range tasks {
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", t.ID, err)
		}
	}

	return nil
}
