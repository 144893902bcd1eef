package storage

import (
	"database/sql"
	"time"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

// Fixed width, so that text order in SQLite is chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const settingsRecordName = "app"

// TaskRow mirrors the tasks table. Times are stored as UTC text.
type TaskRow struct {
	ID                     string         `gorm:"column:id;primaryKey"`
	Title                  string         `gorm:"column:title"`
	Description            string         `gorm:"column:description"`
	IsRecurring            bool           `gorm:"column:is_recurring"`
	RecurringIntervalHours int            `gorm:"column:recurring_interval_hours"`
	ReminderAt             string         `gorm:"column:reminder_at"`
	OriginalReminderAt     sql.NullString `gorm:"column:original_reminder_at"`
	CreatedAt              string         `gorm:"column:created_at"`
	DelayCount             int            `gorm:"column:delay_count"`
	IsCompleted            bool           `gorm:"column:is_completed"`
	IgnoreWorkingHours     bool           `gorm:"column:ignore_working_hours"`
	CompletionCount        int            `gorm:"column:completion_count"`
	LastCompletedAt        sql.NullString `gorm:"column:last_completed_at"`
	FollowUpEnabled        bool           `gorm:"column:follow_up_enabled"`
	FollowUpSeconds        int64          `gorm:"column:follow_up_seconds"`
}

func (TaskRow) TableName() string { return "tasks" }

type SettingsRow struct {
	Name         string `gorm:"column:name;primaryKey"`
	WindowMode   string `gorm:"column:window_mode"`
	WindowStart  string `gorm:"column:window_start"`
	WindowEnd    string `gorm:"column:window_end"`
	DefaultDelay string `gorm:"column:default_delay"`
	UpdatedAt    string `gorm:"column:updated_at"`
}

func (SettingsRow) TableName() string { return "settings" }

func taskToRow(in model.Task) TaskRow {
	row := TaskRow{
		ID:                     in.ID,
		Title:                  in.Title,
		Description:            in.Description,
		RecurringIntervalHours: model.DefaultIntervalHours,
		ReminderAt:             mustTime(in.ReminderAt),
		OriginalReminderAt:     nullTime(in.OriginalReminderAt),
		CreatedAt:              mustTime(in.CreatedAt),
		DelayCount:             in.DelayCount,
		IsCompleted:            in.Completed,
		IgnoreWorkingHours:     in.IgnoreWorkingHours,
		CompletionCount:        in.CompletionCount,
		LastCompletedAt:        nullTime(in.LastCompletedAt),
	}
	if in.Recurrence != nil {
		row.IsRecurring = true
		row.RecurringIntervalHours = in.Recurrence.IntervalHours
	}
	if in.FollowUp != nil {
		row.FollowUpEnabled = true
		row.FollowUpSeconds = int64(in.FollowUp.After / time.Second)
	}
	return row
}

func (row TaskRow) toModel() (model.Task, error) {
	out := model.Task{
		ID:                 row.ID,
		Title:              row.Title,
		Description:        row.Description,
		DelayCount:         row.DelayCount,
		Completed:          row.IsCompleted,
		IgnoreWorkingHours: row.IgnoreWorkingHours,
		CompletionCount:    row.CompletionCount,
	}
	var err error
	if out.ReminderAt, err = parseRequiredTime(row.ReminderAt); err != nil {
		return model.Task{}, err
	}
	if out.CreatedAt, err = parseRequiredTime(row.CreatedAt); err != nil {
		return model.Task{}, err
	}
	if out.OriginalReminderAt, err = parseNullableTime(row.OriginalReminderAt); err != nil {
		return model.Task{}, err
	}
	if out.LastCompletedAt, err = parseNullableTime(row.LastCompletedAt); err != nil {
		return model.Task{}, err
	}
	if row.IsRecurring {
		out.Recurrence = &model.RecurrenceRule{IntervalHours: row.RecurringIntervalHours}
	}
	if row.FollowUpEnabled {
		out.FollowUp = &model.FollowUp{After: time.Duration(row.FollowUpSeconds) * time.Second}
	}
	return out, nil
}

func settingsToRow(in model.Settings, now time.Time) SettingsRow {
	return SettingsRow{
		Name:         settingsRecordName,
		WindowMode:   string(in.Window.Mode),
		WindowStart:  in.Window.Start.String(),
		WindowEnd:    in.Window.End.String(),
		DefaultDelay: in.DefaultDelay,
		UpdatedAt:    mustTime(now),
	}
}

func (row SettingsRow) toModel() (model.Settings, error) {
	start, err := workinghours.ParseClock(row.WindowStart)
	if err != nil {
		return model.Settings{}, err
	}
	end, err := workinghours.ParseClock(row.WindowEnd)
	if err != nil {
		return model.Settings{}, err
	}
	return model.Settings{
		Window: workinghours.Window{
			Mode:  workinghours.Mode(row.WindowMode),
			Start: start,
			End:   end,
		},
		DefaultDelay: row.DefaultDelay,
	}, nil
}

func nullTime(v *time.Time) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: mustTime(*v), Valid: true}
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}
