package server

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/groblegark/ktasks/internal/deps"
	"github.com/groblegark/ktasks/internal/events"
	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/store"
)

type mockStore struct {
	lists      map[string]*model.TaskList
	tasks      map[string]*model.Task
	notes      map[string][]*model.Note
	events     []*model.Event
	noteNextID int64

	// createTaskErr, when non-nil, is returned by CreateTask.
	createTaskErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		lists: make(map[string]*model.TaskList),
		tasks: make(map[string]*model.Task),
		notes: make(map[string][]*model.Note),
	}
}

func newTestServer(st store.Store) *TasksServer {
	return NewTasksServer(st, &events.NoopPublisher{}, deps.Policy{WarnDependencyCount: 10})
}

func (m *mockStore) CreateList(_ context.Context, list *model.TaskList) error {
	m.lists[list.ID] = list
	return nil
}

func (m *mockStore) GetList(_ context.Context, id string) (*model.TaskList, error) {
	l, ok := m.lists[id]
	if !ok {
		return nil, nil
	}
	clone := *l
	return &clone, nil
}

func (m *mockStore) ListLists(_ context.Context, filter model.ListFilter) ([]*model.TaskList, int, error) {
	var result []*model.TaskList
	for _, l := range m.lists {
		if filter.Search != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

func (m *mockStore) UpdateList(_ context.Context, list *model.TaskList) error {
	m.lists[list.ID] = list
	return nil
}

func (m *mockStore) DeleteList(_ context.Context, id string) error {
	if _, ok := m.lists[id]; !ok {
		return errNotFound
	}
	delete(m.lists, id)
	for tid, t := range m.tasks {
		if t.ListID == id {
			delete(m.tasks, tid)
		}
	}
	return nil
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	if m.createTaskErr != nil {
		return m.createTaskErr
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	clone := *t
	clone.Notes = m.notes[id]
	return &clone, nil
}

func (m *mockStore) ListTasks(_ context.Context, filter model.TaskFilter) ([]*model.Task, int, error) {
	var result []*model.Task
	for _, t := range m.tasks {
		if filter.ListID != "" && t.ListID != filter.ListID {
			continue
		}
		if len(filter.Status) > 0 {
			found := false
			for _, s := range filter.Status {
				if t.Status == s {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, len(result), nil
}

func (m *mockStore) UpdateTask(_ context.Context, task *model.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return errNotFound
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) CompleteTask(_ context.Context, id string, _ string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	now := time.Now().UTC()
	t.Status = model.StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	clone := *t
	return &clone, nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return errNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) SetDependencies(_ context.Context, taskID string, deps []string) error {
	t, ok := m.tasks[taskID]
	if !ok {
		return errNotFound
	}
	t.Dependencies = deps
	return nil
}

func (m *mockStore) Snapshot(_ context.Context, listID string) ([]*model.Task, error) {
	var result []*model.Task
	for _, t := range m.tasks {
		if t.ListID == listID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockStore) AddNote(_ context.Context, note *model.Note) error {
	m.noteNextID++
	note.ID = m.noteNextID
	m.notes[note.TaskID] = append(m.notes[note.TaskID], note)
	return nil
}

func (m *mockStore) GetNotes(_ context.Context, taskID string) ([]*model.Note, error) {
	return m.notes[taskID], nil
}

func (m *mockStore) RecordEvent(_ context.Context, event *model.Event) error {
	event.ID = int64(len(m.events) + 1)
	event.CreatedAt = time.Now().UTC()
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) GetEvents(_ context.Context, taskID string) ([]*model.Event, error) {
	var result []*model.Event
	for _, e := range m.events {
		if e.TaskID == taskID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockStore) GetStats(_ context.Context) (*model.GraphStats, error) {
	stats := &model.GraphStats{
		TotalLists: len(m.lists),
		TotalTasks: len(m.tasks),
	}
	for _, t := range m.tasks {
		switch t.Status {
		case model.StatusPending:
			stats.TotalPending++
		case model.StatusInProgress:
			stats.TotalInProgress++
		case model.StatusCompleted:
			stats.TotalCompleted++
		case model.StatusBlocked:
			stats.TotalBlocked++
		case model.StatusCancelled:
			stats.TotalCancelled++
		}
	}
	return stats, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

// seedList adds a list and returns its id.
func (m *mockStore) seedList(id, title string) *model.TaskList {
	now := time.Now().UTC()
	l := &model.TaskList{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}
	m.lists[id] = l
	return l
}

// seedTask adds a task with a distinct creation time so snapshots are ordered.
func (m *mockStore) seedTask(id, listID, title string, status model.Status, depIDs ...string) *model.Task {
	now := time.Now().UTC().Add(time.Duration(len(m.tasks)) * time.Millisecond)
	t := &model.Task{
		ID: id, ListID: listID, Title: title, Status: status,
		Dependencies: depIDs, CreatedAt: now, UpdatedAt: now,
	}
	m.tasks[id] = t
	return t
}
