package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Pure-Go sqlite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/mydailyops/dailyops-api/internal/model"
)

// SQLiteCache is the offline-first local store: a TaskRepository over a
// sqlite file plus a queue of pending changes awaiting push to the remote
// database. Clients work against the cache and a sync pass drains the queue.
type SQLiteCache struct {
	db *sql.DB

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS tasks_cache (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'medium',
	category TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	pinned INTEGER NOT NULL DEFAULT 0,
	deadline TEXT,
	start_date TEXT,
	duration_days INTEGER NOT NULL DEFAULT 1,
	visible_from TEXT,
	visible_until TEXT,
	recurrence TEXT,
	template_id TEXT NOT NULL DEFAULT '',
	deleted_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pending_updates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT NOT NULL,
	operation TEXT NOT NULL,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}
	// sqlite handles a single writer; keep the pool honest about it.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite cache: %w", err)
	}

	return &SQLiteCache{db: db, Now: time.Now}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

const cacheColumns = `id, user_id, title, description, priority, category, status, pinned,
		deadline, start_date, duration_days, visible_from, visible_until,
		recurrence, template_id, deleted_at, created_at, updated_at`

func (c *SQLiteCache) Upsert(ctx context.Context, task model.Task) (model.Task, error) {
	rule, err := encodeRule(task.Recurrence)
	if err != nil {
		return model.Task{}, err
	}

	now := c.Now().UTC()
	existing, err := c.GetByID(ctx, task.UserID, task.ID)
	switch {
	case err == nil:
		task.CreatedAt = existing.CreatedAt
	case err == sql.ErrNoRows:
		task.CreatedAt = now
	default:
		return model.Task{}, err
	}
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks_cache (id, user_id, title, description, priority, category, status, pinned,
			deadline, start_date, duration_days, visible_from, visible_until, recurrence, template_id,
			deleted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			priority = excluded.priority,
			category = excluded.category,
			status = excluded.status,
			pinned = excluded.pinned,
			deadline = excluded.deadline,
			start_date = excluded.start_date,
			duration_days = excluded.duration_days,
			visible_from = excluded.visible_from,
			visible_until = excluded.visible_until,
			recurrence = excluded.recurrence,
			template_id = excluded.template_id,
			deleted_at = excluded.deleted_at,
			updated_at = excluded.updated_at`

	_, err = c.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.Priority, task.Category,
		task.Status, task.Pinned, timeText(task.Deadline), dateText(task.StartDate),
		task.DurationDays, dateText(task.VisibleFrom), dateText(task.VisibleUntil),
		ruleText(rule), task.TemplateID, timeText(task.DeletedAt),
		task.CreatedAt.Format(time.RFC3339Nano), task.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to cache task: %w", err)
	}
	return task, nil
}

func (c *SQLiteCache) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	query := `SELECT ` + cacheColumns + ` FROM tasks_cache WHERE id = ? AND user_id = ?`
	row := c.db.QueryRowContext(ctx, query, taskID, userID)
	task, err := scanCachedTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, sql.ErrNoRows
	}
	return task, err
}

func (c *SQLiteCache) Delete(ctx context.Context, userID, taskID string) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM tasks_cache WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cached task: %w", err)
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

func (c *SQLiteCache) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	query := `SELECT ` + cacheColumns + ` FROM tasks_cache WHERE user_id = ? ORDER BY created_at`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanCachedTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cached tasks: %w", err)
	}
	return tasks, nil
}

func (c *SQLiteCache) List(ctx context.Context, params model.TaskListParams) (model.TaskListResult, error) {
	all, err := c.ListByUser(ctx, params.UserID)
	if err != nil {
		return model.TaskListResult{}, err
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	filtered := make([]model.Task, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		t := all[i]
		if t.DeletedAt != nil {
			continue
		}
		if !params.IncludeTemplates && t.IsTemplate() {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		filtered = append(filtered, t)
	}

	start := 0
	if params.Cursor != "" {
		for i, t := range filtered {
			if t.ID == params.Cursor {
				start = i + 1
				break
			}
		}
	}
	filtered = filtered[start:]

	var nextCursor string
	if len(filtered) > limit {
		nextCursor = filtered[limit-1].ID
		filtered = filtered[:limit]
	}
	return model.TaskListResult{Tasks: filtered, NextCursor: nextCursor}, nil
}

func (c *SQLiteCache) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM tasks_cache ORDER BY user_id`)
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

// ReplaceAll swaps the whole cache for one user with the authoritative list
// pulled from the remote store.
func (c *SQLiteCache) ReplaceAll(ctx context.Context, userID string, tasks []model.Task) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM tasks_cache WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	for _, t := range tasks {
		if _, err := c.Upsert(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func scanCachedTask(row scannable) (model.Task, error) {
	var (
		t         model.Task
		deadline  sql.NullString
		startDate sql.NullString
		visFrom   sql.NullString
		visUntil  sql.NullString
		rule      sql.NullString
		deletedAt sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Priority, &t.Category,
		&t.Status, &t.Pinned, &deadline, &startDate, &t.DurationDays,
		&visFrom, &visUntil, &rule, &t.TemplateID, &deletedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	if t.Deadline, err = timeFromText(deadline); err != nil {
		return model.Task{}, err
	}
	if t.StartDate, err = dateFromText(startDate); err != nil {
		return model.Task{}, err
	}
	if t.VisibleFrom, err = dateFromText(visFrom); err != nil {
		return model.Task{}, err
	}
	if t.VisibleUntil, err = dateFromText(visUntil); err != nil {
		return model.Task{}, err
	}
	if t.DeletedAt, err = timeFromText(deletedAt); err != nil {
		return model.Task{}, err
	}
	if rule.Valid && rule.String != "" {
		if t.Recurrence, err = decodeRule([]byte(rule.String)); err != nil {
			return model.Task{}, err
		}
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Task{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return model.Task{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return t, nil
}

func timeText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timeFromText(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached time %q: %w", s.String, err)
	}
	return &t, nil
}

func dateText(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func dateFromText(s sql.NullString) (*model.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func ruleText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

var _ TaskRepository = (*SQLiteCache)(nil)

// PendingOp is a queued mutation kind awaiting sync to the remote store.
type PendingOp string

const (
	OpCreate PendingOp = "create"
	OpUpdate PendingOp = "update"
	OpDelete PendingOp = "delete"
)

// PendingChange is one queued mutation. The payload is the task JSON at
// enqueue time; for deletes only id and user_id matter.
type PendingChange struct {
	ID        int64
	TaskID    string
	Op        PendingOp
	Payload   string
	CreatedAt time.Time
}

// Enqueue appends a change to the sync queue.
func (c *SQLiteCache) Enqueue(ctx context.Context, op PendingOp, task model.Task) error {
	b, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode pending change: %w", err)
	}
	payload := string(b)

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO pending_updates (task_id, operation, payload, created_at) VALUES (?, ?, ?, ?)`,
		task.ID, string(op), payload, c.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue pending change: %w", err)
	}
	return nil
}

// PopPending drains the queue in FIFO order, removing what it returns.
func (c *SQLiteCache) PopPending(ctx context.Context) ([]PendingChange, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin pending pop: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, task_id, operation, payload, created_at FROM pending_updates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending changes: %w", err)
	}

	var changes []PendingChange
	for rows.Next() {
		var (
			ch        PendingChange
			op        string
			createdAt string
		)
		if err := rows.Scan(&ch.ID, &ch.TaskID, &op, &ch.Payload, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan pending change: %w", err)
		}
		ch.Op = PendingOp(op)
		if ch.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to parse pending change time: %w", err)
		}
		changes = append(changes, ch)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending changes: %w", err)
	}

	if len(changes) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_updates`); err != nil {
			return nil, fmt.Errorf("failed to clear pending changes: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pending pop: %w", err)
	}
	return changes, nil
}

// PendingCount reports queue depth, surfaced in the UI sync indicator.
func (c *SQLiteCache) PendingCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_updates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pending changes: %w", err)
	}
	return n, nil
}
