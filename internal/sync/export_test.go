package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/groblegark/ktasks/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.ListCount != 0 || h.TaskCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_WithListsAndTasks(t *testing.T) {
	ms := newMockStore()
	now := time.Now().UTC()

	ms.lists["tl-work"] = &model.TaskList{ID: "tl-work", Title: "Work", CreatedAt: now, UpdatedAt: now}

	// Add tasks out of ID order to verify sorting.
	ms.tasks["ts-zzz"] = &model.Task{ID: "ts-zzz", ListID: "tl-work", Title: "Second", Status: model.StatusPending, CreatedAt: now, UpdatedAt: now}
	ms.tasks["ts-aaa"] = &model.Task{ID: "ts-aaa", ListID: "tl-work", Title: "First", Status: model.StatusPending, Dependencies: []string{"ts-zzz"}, CreatedAt: now, UpdatedAt: now}

	ms.notes["ts-aaa"] = []*model.Note{{ID: 1, TaskID: "ts-aaa", Author: "alice", Text: "note", CreatedAt: now}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 1 list + 2 tasks = 4 lines
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.ListCount != 1 || h.TaskCount != 2 {
		t.Fatalf("header counts: list=%d task=%d", h.ListCount, h.TaskCount)
	}

	var rec1 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if rec1.Type != "list" {
		t.Fatalf("expected list record first, got %q", rec1.Type)
	}

	// Tasks sorted by ID: ts-aaa before ts-zzz.
	var rec2, rec3 record
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[3]), &rec3); err != nil {
		t.Fatalf("unmarshal line 3: %v", err)
	}
	if rec2.Type != "task" || rec3.Type != "task" {
		t.Fatalf("expected task records, got %q and %q", rec2.Type, rec3.Type)
	}

	data2, _ := json.Marshal(rec2.Data)
	data3, _ := json.Marshal(rec3.Data)
	var t2, t3 model.Task
	if err := json.Unmarshal(data2, &t2); err != nil {
		t.Fatalf("unmarshal t2: %v", err)
	}
	if err := json.Unmarshal(data3, &t3); err != nil {
		t.Fatalf("unmarshal t3: %v", err)
	}
	if t2.ID != "ts-aaa" || t3.ID != "ts-zzz" {
		t.Fatalf("tasks not sorted: got %q, %q", t2.ID, t3.ID)
	}

	// Verify ts-aaa carries its note and dependency.
	if len(t2.Notes) != 1 || t2.Notes[0].Author != "alice" {
		t.Fatalf("expected embedded note, got %v", t2.Notes)
	}
	if len(t2.Dependencies) != 1 || t2.Dependencies[0] != "ts-zzz" {
		t.Fatalf("expected dependency on ts-zzz, got %v", t2.Dependencies)
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
