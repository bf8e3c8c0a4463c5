package sync

import (
	"context"
	"sort"

	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	lists map[string]*model.TaskList
	tasks map[string]*model.Task
	notes map[string][]*model.Note
}

func newMockStore() *mockStore {
	return &mockStore{
		lists: make(map[string]*model.TaskList),
		tasks: make(map[string]*model.Task),
		notes: make(map[string][]*model.Note),
	}
}

func (m *mockStore) CreateList(_ context.Context, list *model.TaskList) error {
	m.lists[list.ID] = list
	return nil
}

func (m *mockStore) GetList(_ context.Context, id string) (*model.TaskList, error) {
	return m.lists[id], nil
}

func (m *mockStore) ListLists(_ context.Context, _ model.ListFilter) ([]*model.TaskList, int, error) {
	var result []*model.TaskList
	for _, l := range m.lists {
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
	delete(m.lists, id)
	return nil
}

func (m *mockStore) CreateTask(_ context.Context, task *model.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	return m.tasks[id], nil
}

func (m *mockStore) ListTasks(_ context.Context, _ model.TaskFilter) ([]*model.Task, int, error) {
	var result []*model.Task
	for _, t := range m.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

func (m *mockStore) UpdateTask(_ context.Context, task *model.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) CompleteTask(_ context.Context, id string, _ string) (*model.Task, error) {
	return m.tasks[id], nil
}

func (m *mockStore) DeleteTask(_ context.Context, id string) error {
	delete(m.tasks, id)
	return nil
}

func (m *mockStore) SetDependencies(_ context.Context, taskID string, deps []string) error {
	if t, ok := m.tasks[taskID]; ok {
		t.Dependencies = deps
	}
	return nil
}

func (m *mockStore) Snapshot(_ context.Context, listID string) ([]*model.Task, error) {
	var result []*model.Task
	for _, t := range m.tasks {
		if t.ListID == listID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStore) AddNote(_ context.Context, note *model.Note) error {
	m.notes[note.TaskID] = append(m.notes[note.TaskID], note)
	return nil
}

func (m *mockStore) GetNotes(_ context.Context, taskID string) ([]*model.Note, error) {
	return m.notes[taskID], nil
}

func (m *mockStore) RecordEvent(_ context.Context, _ *model.Event) error { return nil }

func (m *mockStore) GetEvents(_ context.Context, _ string) ([]*model.Event, error) {
	return nil, nil
}

func (m *mockStore) GetStats(_ context.Context) (*model.GraphStats, error) {
	return &model.GraphStats{TotalLists: len(m.lists), TotalTasks: len(m.tasks)}, nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
