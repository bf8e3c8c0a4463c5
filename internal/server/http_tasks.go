package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/groblegark/ktasks/internal/deps"
	"github.com/groblegark/ktasks/internal/events"
	"github.com/groblegark/ktasks/internal/idgen"
	"github.com/groblegark/ktasks/internal/model"
)

// createTaskInput holds parameters for creating a task.
type createTaskInput struct {
	ListID           string                `json:"list_id"`
	ParentID         string                `json:"parent_id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Priority         int                   `json:"priority"`
	EstimatedMinutes *int                  `json:"estimated_minutes"`
	Dependencies     []string              `json:"dependencies"`
	ExitCriteria     []model.ExitCriterion `json:"exit_criteria"`
	ActionPlan       []model.PlanStep      `json:"action_plan"`
	Tags             []string              `json:"tags"`
	CreatedBy        string                `json:"created_by"`
}

// updateTaskInput holds parameters for a partial task update. Nil pointers
// mean "leave unchanged".
type updateTaskInput struct {
	ParentID         *string                `json:"parent_id"`
	Title            *string                `json:"title"`
	Description      *string                `json:"description"`
	Status           *string                `json:"status"`
	Priority         *int                   `json:"priority"`
	EstimatedMinutes *int                   `json:"estimated_minutes"`
	ExitCriteria     *[]model.ExitCriterion `json:"exit_criteria"`
	ActionPlan       *[]model.PlanStep      `json:"action_plan"`
	Tags             *[]string              `json:"tags"`
}

// createTask validates input, checks proposed dependencies against the list's
// current graph, persists the task, and publishes a TaskCreated event.
func (s *TasksServer) createTask(ctx context.Context, in createTaskInput) (*model.Task, []string, error) {
	if in.ListID == "" {
		return nil, nil, inputError("list_id is required")
	}

	list, err := s.store.GetList(ctx, in.ListID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get list: %w", err)
	}
	if list == nil {
		return nil, nil, inputError("unknown list " + in.ListID)
	}

	now := time.Now().UTC()
	id, err := idgen.NewTaskID()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	task := &model.Task{
		ID:               id,
		ListID:           in.ListID,
		ParentID:         in.ParentID,
		Title:            in.Title,
		Description:      in.Description,
		Status:           model.StatusPending,
		Priority:         in.Priority,
		EstimatedMinutes: in.EstimatedMinutes,
		Dependencies:     in.Dependencies,
		ExitCriteria:     in.ExitCriteria,
		ActionPlan:       in.ActionPlan,
		Tags:             in.Tags,
		CreatedAt:        now,
		CreatedBy:        in.CreatedBy,
		UpdatedAt:        now,
	}

	if err := model.ValidateTask(task); err != nil {
		return nil, nil, inputError("invalid task: " + err.Error())
	}

	var warnings []string
	if len(task.Dependencies) > 0 {
		snapshot, err := s.store.Snapshot(ctx, task.ListID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load list tasks: %w", err)
		}
		result := deps.ValidateDependencies(task.ID, task.Dependencies, snapshot, s.policy)
		if !result.Valid {
			return nil, nil, inputError("invalid dependencies: " + strings.Join(result.Errors, "; "))
		}
		warnings = result.Warnings
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicTaskCreated, task.ID, task.ListID, task.CreatedBy, events.TaskCreated{Task: task})

	return task, warnings, nil
}

// handleCreateTask handles POST /v1/tasks.
func (s *TasksServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in createTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, warnings, err := s.createTask(r.Context(), in)
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := map[string]any{"task": task}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleListTasks handles GET /v1/tasks.
func (s *TasksServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		ListID:   q.Get("list_id"),
		ParentID: q.Get("parent_id"),
		Search:   q.Get("search"),
		Sort:     q.Get("sort"),
	}

	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Status = append(filter.Status, model.Status(st))
		}
	}
	if v := q.Get("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	if v := q.Get("priority"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Priority = &n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	tasks, total, err := s.store.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	// Ensure tasks is never null in JSON output.
	if tasks == nil {
		tasks = []*model.Task{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"total": total,
	})
}

// handleGetTask handles GET /v1/tasks/{id}.
func (s *TasksServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// updateTask applies a partial update and publishes a TaskUpdated event with
// the changed fields.
func (s *TasksServer) updateTask(ctx context.Context, id string, in updateTaskInput) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, errNotFound
	}

	changes := make(map[string]any)
	if in.ParentID != nil {
		task.ParentID = *in.ParentID
		changes["parent_id"] = *in.ParentID
	}
	if in.Title != nil {
		task.Title = *in.Title
		changes["title"] = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
		changes["description"] = *in.Description
	}
	if in.Status != nil {
		st := model.Status(*in.Status)
		if !st.IsValid() {
			return nil, inputError("invalid status " + *in.Status)
		}
		task.Status = st
		changes["status"] = *in.Status
		if st == model.StatusCompleted {
			now := time.Now().UTC()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
		changes["priority"] = *in.Priority
	}
	if in.EstimatedMinutes != nil {
		task.EstimatedMinutes = in.EstimatedMinutes
		changes["estimated_minutes"] = *in.EstimatedMinutes
	}
	if in.ExitCriteria != nil {
		task.ExitCriteria = *in.ExitCriteria
		changes["exit_criteria"] = *in.ExitCriteria
	}
	if in.ActionPlan != nil {
		task.ActionPlan = *in.ActionPlan
		changes["action_plan"] = *in.ActionPlan
	}
	if in.Tags != nil {
		task.Tags = *in.Tags
		changes["tags"] = *in.Tags
	}
	task.UpdatedAt = time.Now().UTC()

	if err := model.ValidateTask(task); err != nil {
		return nil, inputError("invalid task: " + err.Error())
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicTaskUpdated, task.ID, task.ListID, "", events.TaskUpdated{
		Task:    task,
		Changes: changes,
	})

	return task, nil
}

var errNotFound = errors.New("not found")

// handleUpdateTask handles PATCH /v1/tasks/{id}.
func (s *TasksServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in updateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.updateTask(r.Context(), id, in)
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, errNotFound):
			writeError(w, http.StatusNotFound, "task not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// handleCompleteTask handles POST /v1/tasks/{id}/complete.
func (s *TasksServer) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var body struct {
		CompletedBy string `json:"completed_by"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	task, err := s.store.CompleteTask(r.Context(), id, body.CompletedBy)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to complete task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicTaskCompleted, task.ID, task.ListID, body.CompletedBy, events.TaskCompleted{
		Task:        task,
		CompletedBy: body.CompletedBy,
	})

	// Completing a task may unblock its dependents.
	snapshot, err := s.store.Snapshot(r.Context(), task.ListID)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"task": task})
		return
	}
	unblocked := newlyReadyDependents(task.ID, snapshot)

	writeJSON(w, http.StatusOK, map[string]any{
		"task":      task,
		"unblocked": unblocked,
	})
}

// newlyReadyDependents returns the ids of tasks that depend on completedID and
// are ready now that it is completed.
func newlyReadyDependents(completedID string, tasks []*model.Task) []string {
	g := deps.Build(tasks)
	node, ok := g.Nodes[completedID]
	if !ok {
		return []string{}
	}
	ready := []string{}
	for _, dep := range node.Dependents {
		if n, ok := g.Nodes[dep]; ok && n.IsReady {
			ready = append(ready, dep)
		}
	}
	return ready
}

// handleDeleteTask handles DELETE /v1/tasks/{id}.
func (s *TasksServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicTaskDeleted, id, task.ListID, "", events.TaskDeleted{
		TaskID: id,
		ListID: task.ListID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// setDependencies validates the proposed dependency set against the list's
// current graph and replaces the task's dependencies atomically. The returned
// result carries warnings even on success.
func (s *TasksServer) setDependencies(ctx context.Context, taskID string, proposed []string) (*model.Task, deps.Result, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, deps.Result{}, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, deps.Result{}, errNotFound
	}

	snapshot, err := s.store.Snapshot(ctx, task.ListID)
	if err != nil {
		return nil, deps.Result{}, fmt.Errorf("failed to load list tasks: %w", err)
	}

	result := deps.ValidateDependencies(taskID, proposed, snapshot, s.policy)
	if !result.Valid {
		return nil, result, nil
	}

	if err := s.store.SetDependencies(ctx, taskID, proposed); err != nil {
		return nil, result, fmt.Errorf("failed to set dependencies: %w", err)
	}
	task.Dependencies = proposed

	s.recordAndPublish(ctx, events.TopicDependenciesSet, taskID, task.ListID, "", events.DependenciesSet{
		TaskID:       taskID,
		ListID:       task.ListID,
		Dependencies: proposed,
		Warnings:     result.Warnings,
	})

	return task, result, nil
}

// handleSetDependencies handles PUT /v1/tasks/{id}/dependencies.
func (s *TasksServer) handleSetDependencies(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		Dependencies []string `json:"dependencies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Dependencies == nil {
		in.Dependencies = []string{}
	}

	task, result, err := s.setDependencies(r.Context(), id, in.Dependencies)
	if errors.Is(err, errNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task":       task,
		"validation": result,
	})
}

// handleValidateDependencies handles POST /v1/tasks/{id}/dependencies/validate.
// Dry-run: reports errors and warnings without persisting anything.
func (s *TasksServer) handleValidateDependencies(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		Dependencies []string `json:"dependencies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	snapshot, err := s.store.Snapshot(r.Context(), task.ListID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load list tasks")
		return
	}

	result := deps.ValidateDependencies(id, in.Dependencies, snapshot, s.policy)
	writeJSON(w, http.StatusOK, result)
}

// handleAddNote handles POST /v1/tasks/{id}/notes.
func (s *TasksServer) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	note := &model.Note{
		TaskID:    id,
		Author:    in.Author,
		Text:      in.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddNote(r.Context(), note); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add note")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicNoteAdded, id, task.ListID, in.Author, events.NoteAdded{Note: note})

	writeJSON(w, http.StatusCreated, note)
}

// handleGetNotes handles GET /v1/tasks/{id}/notes.
func (s *TasksServer) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	notes, err := s.store.GetNotes(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get notes")
		return
	}
	if notes == nil {
		notes = []*model.Note{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

// handleGetEvents handles GET /v1/tasks/{id}/events.
func (s *TasksServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	evts, err := s.store.GetEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
