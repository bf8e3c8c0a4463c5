package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// taskRowColumns is the column list for scanTask results.
var taskRowColumns = []string{
	"id", "list_id", "parent_id", "title", "description", "status", "priority",
	"estimated_minutes", "dependencies", "exit_criteria", "action_plan", "tags",
	"created_at", "created_by", "updated_at", "completed_at",
}

// taskWithTotalColumns is taskRowColumns with a leading total_count.
var taskWithTotalColumns = append([]string{"total_count"}, taskRowColumns...)

// addTaskRow adds a minimal task row to a sqlmock.Rows.
func addTaskRow(rows *sqlmock.Rows, id, listID, title, status string, deps string, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, listID, nil, title, "", status, 0,
		nil, deps, nil, nil, "{}",
		now, "", now, nil,
	)
}

func TestScanHelpers(t *testing.T) {
	// nullString
	if nullString("").Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("ts-abc"); !ns.Valid || ns.String != "ts-abc" {
		t.Errorf("nullString(\"ts-abc\") = %v", ns)
	}

	// nullIntPtr
	if nullIntPtr(nil).Valid {
		t.Error("nullIntPtr(nil) should be invalid")
	}
	n := 45
	if ni := nullIntPtr(&n); !ni.Valid || ni.Int64 != 45 {
		t.Errorf("nullIntPtr(&45) = %v", ni)
	}

	// nullTimePtr
	if nullTimePtr(nil).Valid {
		t.Error("nullTimePtr(nil) should be invalid")
	}
	now := time.Now()
	if nt := nullTimePtr(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Errorf("nullTimePtr(now) = %v", nt)
	}

	// jsonbBytes
	if jsonbBytes(nil) != nil {
		t.Error("jsonbBytes(nil) should be nil")
	}
	if jsonbBytes(json.RawMessage{}) != nil {
		t.Error("jsonbBytes({}) should be nil")
	}
	input := json.RawMessage(`[{"text":"tests pass","done":false}]`)
	if string(jsonbBytes(input)) != string(input) {
		t.Errorf("jsonbBytes = %s", jsonbBytes(input))
	}
}

func TestQueryCreateList(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	list := &model.TaskList{
		ID: "tl-test1", Title: "Release work", CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO task_lists").
		WithArgs("tl-test1", "Release work", "", now, "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateList(context.Background(), db, list); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetList(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "created_at", "created_by", "updated_at", "task_count",
	}).AddRow("tl-test1", "Release work", "", now, "", now, 3)
	mock.ExpectQuery("SELECT .+ FROM task_lists WHERE id = \\$1").
		WithArgs("tl-test1").WillReturnRows(rows)

	list, err := queryGetList(context.Background(), db, "tl-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.ID != "tl-test1" || list.TaskCount != 3 {
		t.Fatalf("got id=%q task_count=%d", list.ID, list.TaskCount)
	}
}

func TestQueryGetList_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM task_lists WHERE id = \\$1").
		WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

	list, err := queryGetList(context.Background(), db, "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list != nil {
		t.Fatalf("expected nil list, got %+v", list)
	}
}

func TestQueryListLists(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"total_count", "id", "title", "description", "created_at", "created_by", "updated_at", "task_count",
	}).
		AddRow(2, "tl-a", "Alpha", "", now, "", now, 1).
		AddRow(2, "tl-b", "Beta", "", now, "", now, 0)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM task_lists").
		WithArgs(100).WillReturnRows(rows)

	lists, total, err := queryListLists(context.Background(), db, model.ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(lists) != 2 {
		t.Fatalf("got total=%d len=%d", total, len(lists))
	}
	if lists[0].ID != "tl-a" || lists[1].ID != "tl-b" {
		t.Fatalf("got ids %q, %q", lists[0].ID, lists[1].ID)
	}
}

func TestQueryDeleteList_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM task_lists WHERE id = \\$1").WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryDeleteList(context.Background(), db, "nonexistent"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestQueryCreateTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	est := 30
	task := &model.Task{
		ID: "ts-test1", ListID: "tl-test1", Title: "Write migration",
		Status: model.StatusPending, EstimatedMinutes: &est,
		Dependencies: []string{"ts-other"},
		CreatedAt:    now, UpdatedAt: now,
	}
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(
			"ts-test1", "tl-test1", sqlmock.AnyArg(), "Write migration", "", "pending", 0,
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg(),
			now, "", now, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryCreateTask(context.Background(), db, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryGetTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(taskRowColumns)
	addTaskRow(rows, "ts-test1", "tl-test1", "Write migration", "pending", `{ts-a,ts-b}`, now)
	mock.ExpectQuery("SELECT .+ FROM tasks WHERE id = \\$1").
		WithArgs("ts-test1").WillReturnRows(rows)
	mock.ExpectQuery("SELECT .+ FROM notes WHERE task_id = \\$1").
		WithArgs("ts-test1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "author", "text", "created_at"}).
			AddRow(int64(1), "ts-test1", "alice", "looks good", now))

	task, err := queryGetTask(context.Background(), db, "ts-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "ts-test1" || task.Title != "Write migration" {
		t.Fatalf("got id=%q title=%q", task.ID, task.Title)
	}
	if len(task.Dependencies) != 2 || task.Dependencies[0] != "ts-a" {
		t.Fatalf("expected dependencies [ts-a ts-b], got %v", task.Dependencies)
	}
	if len(task.Notes) != 1 || task.Notes[0].Author != "alice" {
		t.Fatalf("expected one note by alice, got %v", task.Notes)
	}
}

func TestQueryGetTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM tasks WHERE id = \\$1").
		WithArgs("nonexistent").WillReturnError(sql.ErrNoRows)

	task, err := queryGetTask(context.Background(), db, "nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task != nil {
		t.Fatalf("expected nil task, got %+v", task)
	}
}

func TestQueryListTasks_Filtered(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(taskWithTotalColumns).AddRow(
		1,
		"ts-test1", "tl-test1", nil, "Write migration", "", "pending", 0,
		nil, "{}", nil, nil, "{}",
		now, "", now, nil,
	)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) OVER\\(\\) AS total_count, .+ FROM tasks WHERE list_id = \\$1 AND status IN \\(\\$2\\)").
		WithArgs("tl-test1", "pending", 200).WillReturnRows(rows)

	tasks, total, err := queryListTasks(context.Background(), db, model.TaskFilter{
		ListID: "tl-test1",
		Status: []model.Status{model.StatusPending},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(tasks) != 1 || tasks[0].ID != "ts-test1" {
		t.Fatalf("got total=%d tasks=%v", total, tasks)
	}
}

func TestQueryCompleteTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(taskRowColumns).AddRow(
		"ts-test1", "tl-test1", nil, "Write migration", "", "completed", 0,
		nil, "{}", nil, nil, "{}",
		now, "", now, now,
	)
	mock.ExpectQuery("UPDATE tasks SET status = 'completed'").
		WithArgs("ts-test1").WillReturnRows(rows)

	task, err := queryCompleteTask(context.Background(), db, "ts-test1", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != model.StatusCompleted || task.CompletedAt == nil {
		t.Fatalf("got status=%q completed_at=%v", task.Status, task.CompletedAt)
	}
}

func TestQuerySetDependencies(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE tasks SET dependencies = \\$2").
		WithArgs("ts-test1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := querySetDependencies(context.Background(), db, "ts-test1", []string{"ts-a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQuerySetDependencies_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE tasks SET dependencies = \\$2").
		WithArgs("nonexistent", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := querySetDependencies(context.Background(), db, "nonexistent", nil); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestQuerySnapshot(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(taskRowColumns)
	addTaskRow(rows, "ts-a", "tl-test1", "First", "completed", "{}", now)
	addTaskRow(rows, "ts-b", "tl-test1", "Second", "pending", `{ts-a}`, now.Add(time.Second))
	mock.ExpectQuery("SELECT .+ FROM tasks WHERE list_id = \\$1 ORDER BY created_at ASC").
		WithArgs("tl-test1").WillReturnRows(rows)

	tasks, err := querySnapshot(context.Background(), db, "tl-test1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "ts-a" || tasks[1].ID != "ts-b" {
		t.Fatalf("expected [ts-a ts-b] in creation order, got %v", tasks)
	}
	if len(tasks[1].Dependencies) != 1 || tasks[1].Dependencies[0] != "ts-a" {
		t.Fatalf("expected ts-b to depend on ts-a, got %v", tasks[1].Dependencies)
	}
}

func TestQueryAddNote(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	note := &model.Note{TaskID: "ts-test1", Author: "alice", Text: "blocked on review", CreatedAt: now}
	mock.ExpectQuery("INSERT INTO notes").
		WithArgs("ts-test1", "alice", "blocked on review", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	if err := queryAddNote(context.Background(), db, note); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.ID != 7 {
		t.Fatalf("expected id 7, got %d", note.ID)
	}
}

func TestQueryRecordEvent(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	event := &model.Event{
		Topic: "tasks.task.created", TaskID: "ts-test1", ListID: "tl-test1",
		Actor: "alice", Payload: json.RawMessage(`{"task_id":"ts-test1"}`),
	}
	mock.ExpectQuery("INSERT INTO events").
		WithArgs("tasks.task.created", "ts-test1", "tl-test1", "alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), now))

	if err := queryRecordEvent(context.Background(), db, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != 12 || !event.CreatedAt.Equal(now) {
		t.Fatalf("got id=%d created_at=%v", event.ID, event.CreatedAt)
	}
}

func TestQueryGetStats(t *testing.T) {
	db, mock := newMockDB(t)
	rows := sqlmock.NewRows([]string{
		"lists", "tasks", "pending", "in_progress", "completed", "blocked", "cancelled",
	}).AddRow(2, 10, 4, 2, 3, 1, 0)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	stats, err := queryGetStats(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalLists != 2 || stats.TotalTasks != 10 || stats.TotalCompleted != 3 {
		t.Fatalf("got %+v", stats)
	}
}

func TestRunInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tasks SET dependencies = \\$2").
		WithArgs("ts-test1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := &PostgresStore{db: db}
	err := s.RunInTransaction(context.Background(), func(tx store.Store) error {
		return tx.SetDependencies(context.Background(), "ts-test1", []string{"ts-a"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
