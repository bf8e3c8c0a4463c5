package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/groblegark/ktasks/internal/deps"
	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/render"
)

// listSnapshot loads a list and its tasks, writing the appropriate error
// response when either fails. Returns ok=false if a response was written.
func (s *TasksServer) listSnapshot(ctx context.Context, w http.ResponseWriter, id string) ([]*model.Task, bool) {
	list, err := s.store.GetList(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return nil, false
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	tasks, err := s.store.Snapshot(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load list tasks")
		return nil, false
	}
	return tasks, true
}

// handleAnalysis handles GET /v1/lists/{id}/analysis.
func (s *TasksServer) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	tasks, ok := s.listSnapshot(r.Context(), w, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, analyzeList(id, tasks))
}

// analyzeList runs the full graph analysis for one list.
func analyzeList(listID string, tasks []*model.Task) *model.DependencyAnalysis {
	g := deps.Build(tasks)
	ready := deps.ReadyTasks(tasks)
	blocked := deps.BlockedTasks(tasks)
	path := deps.CriticalPath(tasks)

	analysis := &model.DependencyAnalysis{
		ListID:          listID,
		Summary:         summarize(tasks, g, len(ready), len(blocked)),
		CriticalPath:    path,
		CriticalMinutes: deps.PathMinutes(tasks, path),
		Cycles:          g.Cycles,
		ReadyTasks:      ready,
		BlockedTasks:    make([]model.BlockedTaskInfo, 0, len(blocked)),
		Recommendations: []string{},
	}
	for _, b := range blocked {
		analysis.BlockedTasks = append(analysis.BlockedTasks, model.BlockedTaskInfo{
			Task:      b.Task,
			BlockedBy: b.BlockedBy,
		})
	}
	analysis.Recommendations = recommend(analysis)
	return analysis
}

// summarize computes aggregate counts for a list snapshot.
func summarize(tasks []*model.Task, g *deps.Graph, ready, blocked int) model.AnalysisSummary {
	sum := model.AnalysisSummary{
		TotalTasks:   len(tasks),
		ReadyCount:   ready,
		BlockedCount: blocked,
	}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusPending:
			sum.TotalPending++
		case model.StatusInProgress:
			sum.TotalInProgress++
		case model.StatusCompleted:
			sum.TotalCompleted++
		case model.StatusBlocked:
			sum.TotalBlocked++
		case model.StatusCancelled:
			sum.TotalCancelled++
		}
	}
	for _, id := range g.Order {
		sum.EdgeCount += len(g.Nodes[id].Dependencies)
	}
	return sum
}

// recommend produces human-readable guidance from an analysis.
func recommend(a *model.DependencyAnalysis) []string {
	recs := []string{}
	for _, cycle := range a.Cycles {
		recs = append(recs, fmt.Sprintf("break the dependency cycle involving %v", cycle))
	}
	if a.Summary.ReadyCount == 0 && a.Summary.TotalPending > 0 {
		recs = append(recs, "no tasks are ready; review dependencies or complete in-progress work")
	}
	if len(a.CriticalPath) > 0 {
		recs = append(recs, fmt.Sprintf("critical path is %d tasks (%d min); prioritize %s",
			len(a.CriticalPath), a.CriticalMinutes, a.CriticalPath[0]))
	}
	return recs
}

// handleReady handles GET /v1/lists/{id}/ready.
func (s *TasksServer) handleReady(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	tasks, ok := s.listSnapshot(r.Context(), w, id)
	if !ok {
		return
	}

	ready := deps.ReadyTasks(tasks)
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": ready,
		"total": len(ready),
	})
}

// handleBlocked handles GET /v1/lists/{id}/blocked.
func (s *TasksServer) handleBlocked(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	tasks, ok := s.listSnapshot(r.Context(), w, id)
	if !ok {
		return
	}

	blocked := deps.BlockedTasks(tasks)
	out := make([]model.BlockedTaskInfo, 0, len(blocked))
	for _, b := range blocked {
		out = append(out, model.BlockedTaskInfo{Task: b.Task, BlockedBy: b.BlockedBy})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": out,
		"total": len(out),
	})
}

// handleCriticalPath handles GET /v1/lists/{id}/critical-path.
func (s *TasksServer) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	tasks, ok := s.listSnapshot(r.Context(), w, id)
	if !ok {
		return
	}

	path := deps.CriticalPath(tasks)
	writeJSON(w, http.StatusOK, map[string]any{
		"path":    path,
		"minutes": deps.PathMinutes(tasks, path),
	})
}

// handleGraph handles GET /v1/lists/{id}/graph?format=json|tree|dot|mermaid.
func (s *TasksServer) handleGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	tasks, ok := s.listSnapshot(r.Context(), w, id)
	if !ok {
		return
	}

	g := deps.Build(tasks)

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, g)
	case "tree":
		writeText(w, render.Tree(g))
	case "dot":
		writeText(w, render.DOT(g))
	case "mermaid":
		writeText(w, render.Mermaid(g))
	default:
		writeError(w, http.StatusBadRequest, "unknown format "+format)
	}
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// handleGetStats handles GET /v1/stats.
func (s *TasksServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
