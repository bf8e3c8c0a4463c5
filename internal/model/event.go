package model

import (
	"encoding/json"
	"time"
)

// Event is a persisted audit record of a mutation.
type Event struct {
	ID        int64           `json:"id"`
	Topic     string          `json:"topic"`
	TaskID    string          `json:"task_id,omitempty"`
	ListID    string          `json:"list_id,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
