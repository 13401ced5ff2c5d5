package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mydailyops/dailyops-api/internal/model"
)

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTask(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, priority, category, status, pinned,
		deadline, start_date, duration_days, visible_from, visible_until,
		recurrence, template_id, deleted_at, created_at, updated_at`

func (r *PostgresTaskRepository) Upsert(ctx context.Context, task model.Task) (model.Task, error) {
	rule, err := encodeRule(task.Recurrence)
	if err != nil {
		return model.Task{}, err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, priority, category, status, pinned,
			deadline, start_date, duration_days, visible_from, visible_until, recurrence, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			pinned = EXCLUDED.pinned,
			deadline = EXCLUDED.deadline,
			start_date = EXCLUDED.start_date,
			duration_days = EXCLUDED.duration_days,
			visible_from = EXCLUDED.visible_from,
			visible_until = EXCLUDED.visible_until,
			recurrence = EXCLUDED.recurrence,
			template_id = EXCLUDED.template_id,
			updated_at = now()
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.Priority, task.Category,
		task.Status, task.Pinned, task.Deadline, dateArg(task.StartDate), task.DurationDays,
		dateArg(task.VisibleFrom), dateArg(task.VisibleUntil), rule, task.TemplateID,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, taskID, userID)
	return scanTask(row)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *PostgresTaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *PostgresTaskRepository) List(ctx context.Context, params model.TaskListParams) (model.TaskListResult, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	// Fetch one extra to determine if there's a next page
	fetchLimit := limit + 1

	args := []any{params.UserID}
	argIdx := 2

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND deleted_at IS NULL`

	if !params.IncludeTemplates {
		query += " AND recurrence IS NULL"
	}

	if params.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*params.Status))
		argIdx++
	}

	if params.Cursor != "" {
		query += fmt.Sprintf(" AND created_at < (SELECT created_at FROM tasks WHERE id = $%d)", argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, fetchLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return model.TaskListResult{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return model.TaskListResult{}, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return model.TaskListResult{}, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	var nextCursor string
	if len(tasks) > limit {
		nextCursor = tasks[limit-1].ID
		tasks = tasks[:limit]
	}

	if tasks == nil {
		tasks = []model.Task{}
	}

	return model.TaskListResult{
		Tasks:      tasks,
		NextCursor: nextCursor,
	}, nil
}

func (r *PostgresTaskRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM tasks`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user ids: %w", err)
	}
	return ids, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (model.Task, error) {
	var (
		t          model.Task
		deadline   sql.NullTime
		startDate  sql.NullTime
		visFrom    sql.NullTime
		visUntil   sql.NullTime
		rule       []byte
		templateID sql.NullString
		deletedAt  sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Category,
		&t.Status, &t.Pinned, &deadline, &startDate, &t.DurationDays,
		&visFrom, &visUntil, &rule, &templateID, &deletedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}

	if deadline.Valid {
		t.Deadline = &deadline.Time
	}
	t.StartDate = dateFromNull(startDate)
	t.VisibleFrom = dateFromNull(visFrom)
	t.VisibleUntil = dateFromNull(visUntil)
	t.TemplateID = templateID.String
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Time
	}
	if t.Recurrence, err = decodeRule(rule); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func encodeRule(rule *model.RecurrenceRule) ([]byte, error) {
	if rule == nil || rule.Kind == model.RecurrenceNone {
		return nil, nil
	}
	b, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence rule: %w", err)
	}
	return b, nil
}

func decodeRule(b []byte) (*model.RecurrenceRule, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var rule model.RecurrenceRule
	if err := json.Unmarshal(b, &rule); err != nil {
		return nil, fmt.Errorf("failed to decode recurrence rule: %w", err)
	}
	return &rule, nil
}

func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time()
}

func dateFromNull(nt sql.NullTime) *model.Date {
	if !nt.Valid {
		return nil
	}
	d := model.DateOf(nt.Time)
	return &d
}

// ensure compile-time interface compliance
var _ TaskRepository = (*PostgresTaskRepository)(nil)
