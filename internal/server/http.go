package server

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *TasksServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/lists", s.handleCreateList)
	mux.HandleFunc("GET /v1/lists", s.handleListLists)
	mux.HandleFunc("GET /v1/lists/{id}", s.handleGetList)
	mux.HandleFunc("PATCH /v1/lists/{id}", s.handleUpdateList)
	mux.HandleFunc("DELETE /v1/lists/{id}", s.handleDeleteList)
	mux.HandleFunc("POST /v1/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /v1/tasks", s.handleListTasks)
	mux.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("POST /v1/tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("PUT /v1/tasks/{id}/dependencies", s.handleSetDependencies)
	mux.HandleFunc("POST /v1/tasks/{id}/dependencies/validate", s.handleValidateDependencies)
	mux.HandleFunc("POST /v1/tasks/{id}/notes", s.handleAddNote)
	mux.HandleFunc("GET /v1/tasks/{id}/notes", s.handleGetNotes)
	mux.HandleFunc("GET /v1/tasks/{id}/events", s.handleGetEvents)
	mux.HandleFunc("GET /v1/lists/{id}/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /v1/lists/{id}/ready", s.handleReady)
	mux.HandleFunc("GET /v1/lists/{id}/blocked", s.handleBlocked)
	mux.HandleFunc("GET /v1/lists/{id}/critical-path", s.handleCriticalPath)
	mux.HandleFunc("GET /v1/lists/{id}/graph", s.handleGraph)
	mux.HandleFunc("GET /v1/stats", s.handleGetStats)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/tools", s.handleListTools)
	mux.HandleFunc("POST /v1/tools/{name}", s.handleCallTool)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *TasksServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"heap_mb":    int(ms.HeapAlloc / (1024 * 1024)),
		"goroutines": runtime.NumGoroutine(),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
