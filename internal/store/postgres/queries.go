package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/groblegark/ktasks/internal/model"
)

// taskColumns is the column list used for SELECT statements on the tasks table.
const taskColumns = `id, list_id, parent_id, title, description, status, priority,
	estimated_minutes, dependencies, exit_criteria, action_plan, tags,
	created_at, created_by, updated_at, completed_at`

// listColumns is the column list used for SELECT statements on the task_lists table.
const listColumns = `id, title, description, created_at, created_by, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// --- Task lists ---

func queryCreateList(ctx context.Context, db executor, l *model.TaskList) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO task_lists (id, title, description, created_at, created_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.Title, l.Description, l.CreatedAt, l.CreatedBy, l.UpdatedAt,
	)
	return err
}

func queryGetList(ctx context.Context, db executor, id string) (*model.TaskList, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+listColumns+`, (SELECT COUNT(*) FROM tasks WHERE list_id = task_lists.id)
		FROM task_lists WHERE id = $1`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func queryListLists(ctx context.Context, db executor, filter model.ListFilter) ([]*model.TaskList, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Search != "" {
		p := nextArg()
		args = append(args, "%"+filter.Search+"%")
		whereClauses = append(whereClauses, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT COUNT(*) OVER() AS total_count, ` + listColumns + `,
			(SELECT COUNT(*) FROM tasks WHERE list_id = task_lists.id)
		FROM task_lists` + where + `
		ORDER BY created_at DESC
		LIMIT ` + nextArg()
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		lists []*model.TaskList
		total int
	)
	for rows.Next() {
		l, n, err := scanListWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = n
		lists = append(lists, l)
	}
	return lists, total, rows.Err()
}

func queryUpdateList(ctx context.Context, db executor, l *model.TaskList) error {
	res, err := db.ExecContext(ctx, `
		UPDATE task_lists SET title = $2, description = $3, updated_at = $4
		WHERE id = $1`,
		l.ID, l.Title, l.Description, l.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, "task list", l.ID)
}

func queryDeleteList(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM task_lists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "task list", id)
}

// --- Tasks ---

func queryCreateTask(ctx context.Context, db executor, t *model.Task) error {
	criteria, err := model.MarshalCriteria(t.ExitCriteria)
	if err != nil {
		return fmt.Errorf("marshal exit criteria: %w", err)
	}
	plan, err := model.MarshalPlan(t.ActionPlan)
	if err != nil {
		return fmt.Errorf("marshal action plan: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, list_id, parent_id, title, description, status, priority,
			estimated_minutes, dependencies, exit_criteria, action_plan, tags,
			created_at, created_by, updated_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16
		)`,
		t.ID,
		t.ListID,
		nullString(t.ParentID),
		t.Title,
		t.Description,
		string(t.Status),
		t.Priority,
		nullIntPtr(t.EstimatedMinutes),
		pq.Array(t.Dependencies),
		jsonbBytes(criteria),
		jsonbBytes(plan),
		pq.Array(t.Tags),
		t.CreatedAt,
		t.CreatedBy,
		t.UpdatedAt,
		nullTimePtr(t.CompletedAt),
	)
	return err
}

func queryGetTask(ctx context.Context, db executor, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	notes, err := queryGetNotes(ctx, db, id)
	if err != nil {
		return nil, err
	}
	t.Notes = notes

	return t, nil
}

func queryListTasks(ctx context.Context, db executor, filter model.TaskFilter) ([]*model.Task, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.ListID != "" {
		whereClauses = append(whereClauses, "list_id = "+nextArg())
		args = append(args, filter.ListID)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.Priority != nil {
		whereClauses = append(whereClauses, "priority = "+nextArg())
		args = append(args, *filter.Priority)
	}

	if filter.ParentID != "" {
		whereClauses = append(whereClauses, "parent_id = "+nextArg())
		args = append(args, filter.ParentID)
	}

	if len(filter.Tags) > 0 {
		whereClauses = append(whereClauses, "tags @> "+nextArg())
		args = append(args, pq.Array(filter.Tags))
	}

	if filter.Search != "" {
		p := nextArg()
		args = append(args, "%"+filter.Search+"%")
		whereClauses = append(whereClauses, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	orderBy := "created_at ASC"
	switch filter.Sort {
	case "updated_at":
		orderBy = "updated_at DESC"
	case "priority":
		orderBy = "priority DESC, created_at ASC"
	case "title":
		orderBy = "title ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT COUNT(*) OVER() AS total_count, ` + taskColumns + `
		FROM tasks` + where + `
		ORDER BY ` + orderBy + `
		LIMIT ` + nextArg()
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		tasks []*model.Task
		total int
	)
	for rows.Next() {
		t, n, err := scanTaskWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = n
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func queryUpdateTask(ctx context.Context, db executor, t *model.Task) error {
	criteria, err := model.MarshalCriteria(t.ExitCriteria)
	if err != nil {
		return fmt.Errorf("marshal exit criteria: %w", err)
	}
	plan, err := model.MarshalPlan(t.ActionPlan)
	if err != nil {
		return fmt.Errorf("marshal action plan: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET
			parent_id = $2, title = $3, description = $4, status = $5,
			priority = $6, estimated_minutes = $7, dependencies = $8,
			exit_criteria = $9, action_plan = $10, tags = $11,
			updated_at = $12, completed_at = $13
		WHERE id = $1`,
		t.ID,
		nullString(t.ParentID),
		t.Title,
		t.Description,
		string(t.Status),
		t.Priority,
		nullIntPtr(t.EstimatedMinutes),
		pq.Array(t.Dependencies),
		jsonbBytes(criteria),
		jsonbBytes(plan),
		pq.Array(t.Tags),
		t.UpdatedAt,
		nullTimePtr(t.CompletedAt),
	)
	if err != nil {
		return err
	}
	return requireRow(res, "task", t.ID)
}

func queryCompleteTask(ctx context.Context, db executor, id string, completedBy string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE tasks SET status = 'completed', completed_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		id,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = completedBy // recorded on the audit event, not the row
	return t, nil
}

func queryDeleteTask(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "task", id)
}

func querySetDependencies(ctx context.Context, db executor, taskID string, deps []string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET dependencies = $2, updated_at = now() WHERE id = $1`,
		taskID, pq.Array(deps),
	)
	if err != nil {
		return err
	}
	return requireRow(res, "task", taskID)
}

func querySnapshot(ctx context.Context, db executor, listID string) ([]*model.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE list_id = $1 ORDER BY created_at ASC`,
		listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// --- Notes ---

func queryAddNote(ctx context.Context, db executor, n *model.Note) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO notes (task_id, author, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		n.TaskID, n.Author, n.Text, n.CreatedAt,
	).Scan(&n.ID)
}

func queryGetNotes(ctx context.Context, db executor, taskID string) ([]*model.Note, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, task_id, author, text, created_at
		FROM notes WHERE task_id = $1 ORDER BY created_at ASC`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*model.Note
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.TaskID, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// --- Events ---

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, task_id, list_id, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at`,
		e.Topic, e.TaskID, e.ListID, e.Actor, jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, taskID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, task_id, list_id, actor, payload, created_at
		FROM events WHERE task_id = $1 ORDER BY created_at ASC`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// --- Stats ---

func queryGetStats(ctx context.Context, db executor) (*model.GraphStats, error) {
	var stats model.GraphStats
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM task_lists),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'blocked'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM tasks`,
	).Scan(
		&stats.TotalLists,
		&stats.TotalTasks,
		&stats.TotalPending,
		&stats.TotalInProgress,
		&stats.TotalCompleted,
		&stats.TotalBlocked,
		&stats.TotalCancelled,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// requireRow converts a zero-rows-affected result into a not-found error.
func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}
