package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/nudge/internal/model"
)

const taskColumns = `id, title, description, is_recurring, recurring_interval_hours, reminder_at, original_reminder_at,
	created_at, delay_count, is_completed, ignore_working_hours, completion_count, last_completed_at,
	follow_up_enabled, follow_up_seconds`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// OpenSQLite opens path and brings its schema up to date.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if err := ensureDirForSQLite(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases and write ordering sane.
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	row := taskToRow(in)
	_, err := r.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Title, row.Description, boolInt(row.IsRecurring), row.RecurringIntervalHours,
		row.ReminderAt, row.OriginalReminderAt, row.CreatedAt, row.DelayCount, boolInt(row.IsCompleted),
		boolInt(row.IgnoreWorkingHours), row.CompletionCount, row.LastCompletedAt,
		boolInt(row.FollowUpEnabled), row.FollowUpSeconds,
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	row := taskToRow(in)
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, is_recurring = ?, recurring_interval_hours = ?, reminder_at = ?,
			original_reminder_at = ?, delay_count = ?, is_completed = ?, ignore_working_hours = ?,
			completion_count = ?, last_completed_at = ?, follow_up_enabled = ?, follow_up_seconds = ?
		WHERE id = ?`,
		row.Title, row.Description, boolInt(row.IsRecurring), row.RecurringIntervalHours, row.ReminderAt,
		row.OriginalReminderAt, row.DelayCount, boolInt(row.IsCompleted), boolInt(row.IgnoreWorkingHours),
		row.CompletionCount, row.LastCompletedAt, boolInt(row.FollowUpEnabled), row.FollowUpSeconds,
		row.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, 2)
	if filter.ActiveOnly {
		query += ` WHERE is_completed = 0`
	}
	query += ` ORDER BY reminder_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (model.Settings, bool, error) {
	var row SettingsRow
	err := r.db.QueryRowContext(ctx, `
		SELECT name, window_mode, window_start, window_end, default_delay, updated_at
		FROM settings WHERE name = ?`, settingsRecordName).
		Scan(&row.Name, &row.WindowMode, &row.WindowStart, &row.WindowEnd, &row.DefaultDelay, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Settings{}, false, nil
		}
		return model.Settings{}, false, err
	}
	settings, err := row.toModel()
	if err != nil {
		return model.Settings{}, false, fmt.Errorf("decode settings: %w", err)
	}
	return settings, true, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, in model.Settings) error {
	row := settingsToRow(in, r.now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (name, window_mode, window_start, window_end, default_delay, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			window_mode = excluded.window_mode,
			window_start = excluded.window_start,
			window_end = excluded.window_end,
			default_delay = excluded.default_delay,
			updated_at = excluded.updated_at`,
		row.Name, row.WindowMode, row.WindowStart, row.WindowEnd, row.DefaultDelay, row.UpdatedAt,
	)
	return err
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var row TaskRow
	if err := s.Scan(
		&row.ID, &row.Title, &row.Description, &row.IsRecurring, &row.RecurringIntervalHours,
		&row.ReminderAt, &row.OriginalReminderAt, &row.CreatedAt, &row.DelayCount, &row.IsCompleted,
		&row.IgnoreWorkingHours, &row.CompletionCount, &row.LastCompletedAt,
		&row.FollowUpEnabled, &row.FollowUpSeconds,
	); err != nil {
		return model.Task{}, err
	}
	return row.toModel()
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
