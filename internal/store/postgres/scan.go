package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/groblegark/ktasks/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanList(row scannable) (*model.TaskList, error) {
	var l model.TaskList
	err := row.Scan(
		&l.ID, &l.Title, &l.Description,
		&l.CreatedAt, &l.CreatedBy, &l.UpdatedAt,
		&l.TaskCount,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanListWithTotal(row scannable) (*model.TaskList, int, error) {
	var (
		l     model.TaskList
		total int
	)
	err := row.Scan(
		&total,
		&l.ID, &l.Title, &l.Description,
		&l.CreatedAt, &l.CreatedBy, &l.UpdatedAt,
		&l.TaskCount,
	)
	if err != nil {
		return nil, 0, err
	}
	return &l, total, nil
}

func scanTask(row scannable) (*model.Task, error) {
	t, _, err := scanTaskInner(row, false)
	return t, err
}

func scanTaskWithTotal(row scannable) (*model.Task, int, error) {
	return scanTaskInner(row, true)
}

func scanTaskInner(row scannable, withTotal bool) (*model.Task, int, error) {
	var (
		t           model.Task
		total       int
		parentID    sql.NullString
		status      string
		estMinutes  sql.NullInt64
		deps        pq.StringArray
		criteria    []byte
		plan        []byte
		tags        pq.StringArray
		completedAt sql.NullTime
	)

	dest := []any{
		&t.ID, &t.ListID, &parentID, &t.Title, &t.Description, &status, &t.Priority,
		&estMinutes, &deps, &criteria, &plan, &tags,
		&t.CreatedAt, &t.CreatedBy, &t.UpdatedAt, &completedAt,
	}
	if withTotal {
		dest = append([]any{&total}, dest...)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}

	t.Status = model.Status(status)
	if parentID.Valid {
		t.ParentID = parentID.String
	}
	if estMinutes.Valid {
		m := int(estMinutes.Int64)
		t.EstimatedMinutes = &m
	}
	t.Dependencies = []string(deps)
	t.Tags = []string(tags)
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}

	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &t.ExitCriteria); err != nil {
			return nil, 0, err
		}
	}
	if len(plan) > 0 {
		if err := json.Unmarshal(plan, &t.ActionPlan); err != nil {
			return nil, 0, err
		}
	}

	return &t, total, nil
}

func scanEvent(row scannable) (*model.Event, error) {
	var (
		e       model.Event
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.TaskID, &e.ListID, &e.Actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// nullString converts an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullIntPtr converts a nil pointer to SQL NULL.
func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// nullTimePtr converts a nil pointer to SQL NULL.
func nullTimePtr(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

// jsonbBytes converts an empty payload to SQL NULL so JSONB columns never
// hold the empty string, which Postgres rejects.
func jsonbBytes(b json.RawMessage) []byte {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
