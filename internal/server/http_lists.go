package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/groblegark/ktasks/internal/events"
	"github.com/groblegark/ktasks/internal/idgen"
	"github.com/groblegark/ktasks/internal/model"
)

// createListInput holds parameters for creating a task list.
type createListInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// createList validates input, persists a new list, and publishes a ListCreated
// event. Returns inputError for validation failures.
func (s *TasksServer) createList(ctx context.Context, in createListInput) (*model.TaskList, error) {
	now := time.Now().UTC()
	id, err := idgen.NewListID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	list := &model.TaskList{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		CreatedBy:   in.CreatedBy,
		UpdatedAt:   now,
	}

	if err := model.ValidateList(list); err != nil {
		return nil, inputError("invalid list: " + err.Error())
	}

	if err := s.store.CreateList(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicListCreated, "", list.ID, list.CreatedBy, events.ListCreated{List: list})

	return list, nil
}

// handleCreateList handles POST /v1/lists.
func (s *TasksServer) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var in createListInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	list, err := s.createList(r.Context(), in)
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, list)
}

// handleListLists handles GET /v1/lists.
func (s *TasksServer) handleListLists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ListFilter{Search: q.Get("search")}
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

	lists, total, err := s.store.ListLists(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list task lists")
		return
	}

	// Ensure lists is never null in JSON output.
	if lists == nil {
		lists = []*model.TaskList{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lists": lists,
		"total": total,
	})
}

// handleGetList handles GET /v1/lists/{id}.
func (s *TasksServer) handleGetList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	list, err := s.store.GetList(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// handleUpdateList handles PATCH /v1/lists/{id}.
func (s *TasksServer) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	list, err := s.store.GetList(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get list")
		return
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}

	changes := make(map[string]any)
	if in.Title != nil {
		list.Title = *in.Title
		changes["title"] = *in.Title
	}
	if in.Description != nil {
		list.Description = *in.Description
		changes["description"] = *in.Description
	}
	list.UpdatedAt = time.Now().UTC()

	if err := model.ValidateList(list); err != nil {
		writeError(w, http.StatusBadRequest, "invalid list: "+err.Error())
		return
	}

	if err := s.store.UpdateList(r.Context(), list); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update list")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicListUpdated, "", list.ID, "", events.ListUpdated{
		List:    list,
		Changes: changes,
	})

	writeJSON(w, http.StatusOK, list)
}

// handleDeleteList handles DELETE /v1/lists/{id}.
// Tasks belonging to the list are removed by the store.
func (s *TasksServer) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.store.DeleteList(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}

	s.recordAndPublish(r.Context(), events.TopicListDeleted, "", id, "", events.ListDeleted{ListID: id})

	w.WriteHeader(http.StatusNoContent)
}
