package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/groblegark/ktasks/internal/deps"
	"github.com/groblegark/ktasks/internal/events"
	"github.com/groblegark/ktasks/internal/model"
	"github.com/groblegark/ktasks/internal/store"
)

// TasksServer holds the shared state behind every HTTP handler: the store,
// the event publisher, and the SSE fan-out hub.
type TasksServer struct {
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	policy    deps.Policy
}

// NewTasksServer returns a new TasksServer backed by the given store and publisher.
func NewTasksServer(s store.Store, p events.Publisher, policy deps.Policy) *TasksServer {
	return &TasksServer{
		store:     s,
		publisher: p,
		sseHub:    newSSEHub(),
		policy:    policy,
	}
}

// recordAndPublish persists an event to the store and publishes it to NATS.
// Both operations are best-effort; failures are logged but do not block the caller.
func (s *TasksServer) recordAndPublish(ctx context.Context, topic, taskID, listID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "task_id", taskID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:   topic,
		TaskID:  taskID,
		ListID:  listID,
		Actor:   actor,
		Payload: payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "task_id", taskID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "task_id", taskID, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates invalid user input.
// The HTTP layer maps this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
