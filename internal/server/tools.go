package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/groblegark/ktasks/internal/deps"
	"github.com/groblegark/ktasks/internal/events"
	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/render"
)

// toolDescriptor describes one tool exposed to automated clients.
type toolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// toolFunc executes a tool call with its raw JSON arguments.
type toolFunc func(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error)

type toolEntry struct {
	desc toolDescriptor
	fn   toolFunc
}

// toolRegistry lists every tool in a stable order.
var toolRegistry = []toolEntry{
	{toolDescriptor{"create_list", "Create a new task list"}, toolCreateList},
	{toolDescriptor{"list_lists", "List task lists"}, toolListLists},
	{toolDescriptor{"create_task", "Create a task in a list, optionally with dependencies"}, toolCreateTask},
	{toolDescriptor{"update_task", "Update fields on an existing task"}, toolUpdateTask},
	{toolDescriptor{"complete_task", "Mark a task completed and report newly unblocked tasks"}, toolCompleteTask},
	{toolDescriptor{"set_dependencies", "Replace a task's dependencies after validation"}, toolSetDependencies},
	{toolDescriptor{"analyze_dependencies", "Run the full dependency analysis for a list"}, toolAnalyze},
	{toolDescriptor{"get_ready_tasks", "List tasks with all dependencies satisfied"}, toolReady},
	{toolDescriptor{"get_blocked_tasks", "List tasks waiting on incomplete dependencies"}, toolBlocked},
	{toolDescriptor{"render_graph", "Render a list's dependency graph as tree, dot, or mermaid"}, toolRenderGraph},
	{toolDescriptor{"add_note", "Attach a note to a task"}, toolAddNote},
}

// handleListTools handles GET /v1/tools.
func (s *TasksServer) handleListTools(w http.ResponseWriter, _ *http.Request) {
	descs := make([]toolDescriptor, 0, len(toolRegistry))
	for _, e := range toolRegistry {
		descs = append(descs, e.desc)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": descs})
}

// handleCallTool handles POST /v1/tools/{name}.
func (s *TasksServer) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var entry *toolEntry
	for i := range toolRegistry {
		if toolRegistry[i].desc.Name == name {
			entry = &toolRegistry[i]
			break
		}
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "unknown tool "+name)
		return
	}

	var args json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		args = json.RawMessage(`{}`)
	}

	result, err := entry.fn(r.Context(), s, args)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, errNotFound):
			writeError(w, http.StatusNotFound, "not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func decodeArgs[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, inputError("invalid arguments: " + err.Error())
	}
	return v, nil
}

func toolCreateList(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[createListInput](args)
	if err != nil {
		return nil, err
	}
	return s.createList(ctx, in)
}

func toolListLists(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[model.ListFilter](args)
	if err != nil {
		return nil, err
	}
	lists, total, err := s.store.ListLists(ctx, in)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []*model.TaskList{}
	}
	return map[string]any{"lists": lists, "total": total}, nil
}

func toolCreateTask(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[createTaskInput](args)
	if err != nil {
		return nil, err
	}
	task, warnings, err := s.createTask(ctx, in)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"task": task}
	if len(warnings) > 0 {
		out["warnings"] = warnings
	}
	return out, nil
}

func toolUpdateTask(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[struct {
		TaskID string `json:"task_id"`
		updateTaskInput
	}](args)
	if err != nil {
		return nil, err
	}
	if in.TaskID == "" {
		return nil, inputError("task_id is required")
	}
	return s.updateTask(ctx, in.TaskID, in.updateTaskInput)
}

func toolCompleteTask(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[struct {
		TaskID      string `json:"task_id"`
		CompletedBy string `json:"completed_by"`
	}](args)
	if err != nil {
		return nil, err
	}
	if in.TaskID == "" {
		return nil, inputError("task_id is required")
	}

	task, err := s.store.CompleteTask(ctx, in.TaskID, in.CompletedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if task == nil {
		return nil, errNotFound
	}

	s.recordAndPublish(ctx, events.TopicTaskCompleted, task.ID, task.ListID, in.CompletedBy, events.TaskCompleted{
		Task:        task,
		CompletedBy: in.CompletedBy,
	})

	snapshot, err := s.store.Snapshot(ctx, task.ListID)
	if err != nil {
		return map[string]any{"task": task}, nil
	}
	return map[string]any{
		"task":      task,
		"unblocked": newlyReadyDependents(task.ID, snapshot),
	}, nil
}

func toolSetDependencies(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[struct {
		TaskID       string   `json:"task_id"`
		Dependencies []string `json:"dependencies"`
	}](args)
	if err != nil {
		return nil, err
	}
	if in.TaskID == "" {
		return nil, inputError("task_id is required")
	}
	if in.Dependencies == nil {
		in.Dependencies = []string{}
	}

	task, result, err := s.setDependencies(ctx, in.TaskID, in.Dependencies)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return map[string]any{"validation": result}, nil
	}
	return map[string]any{"task": task, "validation": result}, nil
}

// toolListArgs is the shared argument shape for list-scoped tools.
type toolListArgs struct {
	ListID string `json:"list_id"`
}

func (s *TasksServer) toolSnapshot(ctx context.Context, listID string) ([]*model.Task, error) {
	if listID == "" {
		return nil, inputError("list_id is required")
	}
	list, err := s.store.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, errNotFound
	}
	return s.store.Snapshot(ctx, listID)
}

func toolAnalyze(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[toolListArgs](args)
	if err != nil {
		return nil, err
	}
	tasks, err := s.toolSnapshot(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	return analyzeList(in.ListID, tasks), nil
}

func toolReady(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[toolListArgs](args)
	if err != nil {
		return nil, err
	}
	tasks, err := s.toolSnapshot(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	ready := deps.ReadyTasks(tasks)
	return map[string]any{"tasks": ready, "total": len(ready)}, nil
}

func toolBlocked(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[toolListArgs](args)
	if err != nil {
		return nil, err
	}
	tasks, err := s.toolSnapshot(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	blocked := deps.BlockedTasks(tasks)
	out := make([]model.BlockedTaskInfo, 0, len(blocked))
	for _, b := range blocked {
		out = append(out, model.BlockedTaskInfo{Task: b.Task, BlockedBy: b.BlockedBy})
	}
	return map[string]any{"tasks": out, "total": len(out)}, nil
}

func toolRenderGraph(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[struct {
		ListID string `json:"list_id"`
		Format string `json:"format"`
	}](args)
	if err != nil {
		return nil, err
	}
	tasks, err := s.toolSnapshot(ctx, in.ListID)
	if err != nil {
		return nil, err
	}

	g := deps.Build(tasks)
	switch in.Format {
	case "", "tree":
		return map[string]string{"format": "tree", "graph": render.Tree(g)}, nil
	case "dot":
		return map[string]string{"format": "dot", "graph": render.DOT(g)}, nil
	case "mermaid":
		return map[string]string{"format": "mermaid", "graph": render.Mermaid(g)}, nil
	default:
		return nil, inputError("unknown format " + in.Format)
	}
}

func toolAddNote(ctx context.Context, s *TasksServer, args json.RawMessage) (any, error) {
	in, err := decodeArgs[struct {
		TaskID string `json:"task_id"`
		Author string `json:"author"`
		Text   string `json:"text"`
	}](args)
	if err != nil {
		return nil, err
	}
	if in.TaskID == "" {
		return nil, inputError("task_id is required")
	}
	if in.Text == "" {
		return nil, inputError("text is required")
	}

	task, err := s.store.GetTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, errNotFound
	}

	note := &model.Note{
		TaskID:    in.TaskID,
		Author:    in.Author,
		Text:      in.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddNote(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	return note, nil
}
