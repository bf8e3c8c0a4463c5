package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/groblegark/ktasks/internal/model"
)

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCreateList(t *testing.T) {
	st := newMockStore()
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/lists", map[string]any{
		"title": "Release work", "created_by": "alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	list := decodeBody[model.TaskList](t, rec)
	if !strings.HasPrefix(list.ID, "tl-") {
		t.Errorf("expected tl- prefix, got %q", list.ID)
	}
	if list.Title != "Release work" || list.CreatedBy != "alice" {
		t.Errorf("got %+v", list)
	}
	if len(st.events) != 1 || st.events[0].Topic != "tasks.list.created" {
		t.Errorf("expected one list.created event, got %v", st.events)
	}
}

func TestCreateList_MissingTitle(t *testing.T) {
	st := newMockStore()
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/lists", map[string]any{"title": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetList_NotFound(t *testing.T) {
	st := newMockStore()
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "GET", "/v1/lists/tl-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateTask(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tasks", map[string]any{
		"list_id": "tl-1", "title": "Write migration", "estimated_minutes": 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[struct {
		Task model.Task `json:"task"`
	}](t, rec)
	if !strings.HasPrefix(resp.Task.ID, "ts-") {
		t.Errorf("expected ts- prefix, got %q", resp.Task.ID)
	}
	if resp.Task.Status != model.StatusPending {
		t.Errorf("expected pending, got %q", resp.Task.Status)
	}
}

func TestCreateTask_UnknownList(t *testing.T) {
	st := newMockStore()
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tasks", map[string]any{
		"list_id": "tl-missing", "title": "Orphan",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateTask_RejectsCycleIntroducingDependencies(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending, "ts-b")
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	// A depends on B; a new task cannot depend on an unknown id.
	rec := doRequest(t, h, "POST", "/v1/tasks", map[string]any{
		"list_id": "tl-1", "title": "C", "dependencies": []string{"ts-missing"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ts-missing") {
		t.Errorf("expected unknown id in error, got %s", rec.Body.String())
	}
}

func TestUpdateTask(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "PATCH", "/v1/tasks/ts-a", map[string]any{
		"status": "in_progress", "priority": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	task := decodeBody[model.Task](t, rec)
	if task.Status != model.StatusInProgress || task.Priority != 2 {
		t.Errorf("got status=%q priority=%d", task.Status, task.Priority)
	}
}

func TestUpdateTask_InvalidStatus(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "PATCH", "/v1/tasks/ts-a", map[string]any{"status": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCompleteTask_ReportsUnblocked(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending, "ts-a")
	st.seedTask("ts-c", "tl-1", "C", model.StatusPending, "ts-a", "ts-b")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tasks/ts-a/complete", map[string]any{"completed_by": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[struct {
		Task      model.Task `json:"task"`
		Unblocked []string   `json:"unblocked"`
	}](t, rec)
	if resp.Task.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %q", resp.Task.Status)
	}
	// B becomes ready; C still waits on B.
	if len(resp.Unblocked) != 1 || resp.Unblocked[0] != "ts-b" {
		t.Errorf("expected unblocked=[ts-b], got %v", resp.Unblocked)
	}
}

func TestSetDependencies(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "PUT", "/v1/tasks/ts-b/dependencies", map[string]any{
		"dependencies": []string{"ts-a"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := st.tasks["ts-b"].Dependencies; len(got) != 1 || got[0] != "ts-a" {
		t.Errorf("dependencies not persisted, got %v", got)
	}
}

func TestSetDependencies_RejectsCycle(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending, "ts-a")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "PUT", "/v1/tasks/ts-a/dependencies", map[string]any{
		"dependencies": []string{"ts-b"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[struct {
		Valid  bool     `json:"is_valid"`
		Errors []string `json:"errors"`
	}](t, rec)
	if result.Valid || len(result.Errors) == 0 {
		t.Errorf("expected cycle error, got %+v", result)
	}
	// Nothing persisted.
	if len(st.tasks["ts-a"].Dependencies) != 0 {
		t.Errorf("dependencies should be unchanged, got %v", st.tasks["ts-a"].Dependencies)
	}
}

func TestValidateDependencies_DryRun(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tasks/ts-b/dependencies/validate", map[string]any{
		"dependencies": []string{"ts-a", "ts-a"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[struct {
		Valid  bool     `json:"is_valid"`
		Errors []string `json:"errors"`
	}](t, rec)
	if result.Valid {
		t.Error("duplicate dependency should be invalid")
	}
	// Dry run: nothing persisted.
	if len(st.tasks["ts-b"].Dependencies) != 0 {
		t.Errorf("dry run must not persist, got %v", st.tasks["ts-b"].Dependencies)
	}
}

func TestAnalysis(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "Setup", model.StatusCompleted)
	st.seedTask("ts-b", "tl-1", "Build", model.StatusPending, "ts-a")
	st.seedTask("ts-c", "tl-1", "Test", model.StatusPending, "ts-b")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "GET", "/v1/lists/tl-1/analysis", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	a := decodeBody[model.DependencyAnalysis](t, rec)
	if a.Summary.TotalTasks != 3 || a.Summary.TotalCompleted != 1 {
		t.Errorf("summary = %+v", a.Summary)
	}
	if a.Summary.ReadyCount != 1 || a.Summary.BlockedCount != 1 {
		t.Errorf("ready=%d blocked=%d", a.Summary.ReadyCount, a.Summary.BlockedCount)
	}
	if len(a.Cycles) != 0 {
		t.Errorf("unexpected cycles %v", a.Cycles)
	}
	if len(a.CriticalPath) == 0 {
		t.Error("expected a critical path")
	}
}

func TestReadyAndBlockedEndpoints(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending, "ts-a")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "GET", "/v1/lists/tl-1/ready", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	ready := decodeBody[struct {
		Tasks []*model.Task `json:"tasks"`
	}](t, rec)
	if len(ready.Tasks) != 1 || ready.Tasks[0].ID != "ts-a" {
		t.Errorf("ready = %v", ready.Tasks)
	}

	rec = doRequest(t, h, "GET", "/v1/lists/tl-1/blocked", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("blocked status = %d", rec.Code)
	}
	blocked := decodeBody[struct {
		Tasks []model.BlockedTaskInfo `json:"tasks"`
	}](t, rec)
	if len(blocked.Tasks) != 1 || blocked.Tasks[0].Task.ID != "ts-b" {
		t.Errorf("blocked = %v", blocked.Tasks)
	}
	if len(blocked.Tasks[0].BlockedBy) != 1 || blocked.Tasks[0].BlockedBy[0].ID != "ts-a" {
		t.Errorf("blocked_by = %v", blocked.Tasks[0].BlockedBy)
	}
}

func TestGraphFormats(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending, "ts-a")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "GET", "/v1/lists/tl-1/graph?format=dot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "digraph") {
		t.Errorf("expected dot output, got %s", rec.Body.String())
	}

	rec = doRequest(t, h, "GET", "/v1/lists/tl-1/graph?format=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAddAndGetNotes(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tasks/ts-a/notes", map[string]any{
		"author": "alice", "text": "waiting on review",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, "GET", "/v1/tasks/ts-a/notes", nil)
	notes := decodeBody[struct {
		Notes []*model.Note `json:"notes"`
	}](t, rec)
	if len(notes.Notes) != 1 || notes.Notes[0].Text != "waiting on review" {
		t.Errorf("notes = %v", notes.Notes)
	}
}

func TestAuthMiddleware(t *testing.T) {
	st := newMockStore()
	h := newTestServer(st).NewHTTPHandler("secret")

	// No token.
	rec := doRequest(t, h, "GET", "/v1/lists", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}

	// Health is exempt.
	rec = doRequest(t, h, "GET", "/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	// Valid token.
	req := httptest.NewRequest("GET", "/v1/lists", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status with token = %d", rr.Code)
	}

	// Wrong token.
	req = httptest.NewRequest("GET", "/v1/lists", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong token = %d", rr.Code)
	}
}

func TestDeleteList_CascadesEvents(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "DELETE", "/v1/lists/tl-1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(st.events) != 1 || st.events[0].Topic != "tasks.list.deleted" {
		t.Errorf("expected list.deleted event, got %v", st.events)
	}
}

func TestStats(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusCompleted)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "GET", "/v1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	stats := decodeBody[model.GraphStats](t, rec)
	if stats.TotalLists != 1 || stats.TotalTasks != 2 || stats.TotalCompleted != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
