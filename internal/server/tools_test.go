package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/groblegark/ktasks/internal/model"
)

func TestListTools(t *testing.T) {
	h := newTestServer(newMockStore()).NewHTTPHandler("")

	rec := doRequest(t, h, "GET", "/v1/tools", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[struct {
		Tools []toolDescriptor `json:"tools"`
	}](t, rec)
	if len(resp.Tools) != len(toolRegistry) {
		t.Fatalf("got %d tools, want %d", len(resp.Tools), len(toolRegistry))
	}
	names := make(map[string]bool)
	for _, d := range resp.Tools {
		names[d.Name] = true
	}
	for _, want := range []string{"create_list", "create_task", "set_dependencies", "analyze_dependencies", "render_graph"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestCallTool_Unknown(t *testing.T) {
	h := newTestServer(newMockStore()).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tools/no_such_tool", map[string]any{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCallTool_CreateListAndTask(t *testing.T) {
	st := newMockStore()
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tools/create_list", map[string]any{
		"title": "Agent work",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create_list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[struct {
		Result model.TaskList `json:"result"`
	}](t, rec)
	if !strings.HasPrefix(created.Result.ID, "tl-") {
		t.Fatalf("got list id %q", created.Result.ID)
	}

	rec = doRequest(t, h, "POST", "/v1/tools/create_task", map[string]any{
		"list_id": created.Result.ID, "title": "First step",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create_task status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCallTool_AnalyzeDependencies(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending, "ts-a")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tools/analyze_dependencies", map[string]any{
		"list_id": "tl-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[struct {
		Result model.DependencyAnalysis `json:"result"`
	}](t, rec)
	if resp.Result.Summary.TotalTasks != 2 {
		t.Errorf("analysis = %+v", resp.Result.Summary)
	}
}

func TestCallTool_SetDependenciesRejectsSelf(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tools/set_dependencies", map[string]any{
		"task_id": "ts-a", "dependencies": []string{"ts-a"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[struct {
		Result struct {
			Validation struct {
				Valid  bool     `json:"is_valid"`
				Errors []string `json:"errors"`
			} `json:"validation"`
		} `json:"result"`
	}](t, rec)
	if resp.Result.Validation.Valid {
		t.Error("self dependency should be invalid")
	}
}

func TestCallTool_RenderGraph(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tools/render_graph", map[string]any{
		"list_id": "tl-1", "format": "mermaid",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "graph TD") {
		t.Errorf("expected mermaid output, got %s", rec.Body.String())
	}
}

func TestCallTool_CompleteTaskReportsUnblocked(t *testing.T) {
	st := newMockStore()
	st.seedList("tl-1", "Work")
	st.seedTask("ts-a", "tl-1", "A", model.StatusPending)
	st.seedTask("ts-b", "tl-1", "B", model.StatusPending, "ts-a")
	h := newTestServer(st).NewHTTPHandler("")

	rec := doRequest(t, h, "POST", "/v1/tools/complete_task", map[string]any{
		"task_id": "ts-a", "completed_by": "agent",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[struct {
		Result struct {
			Unblocked []string `json:"unblocked"`
		} `json:"result"`
	}](t, rec)
	if len(resp.Result.Unblocked) != 1 || resp.Result.Unblocked[0] != "ts-b" {
		t.Errorf("unblocked = %v", resp.Result.Unblocked)
	}
}
