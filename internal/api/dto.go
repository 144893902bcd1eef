package api

import (
	"time"

	"github.com/sandeepkv93/nudge/internal/model"
)

type taskResponse struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	ReminderAt         time.Time  `json:"reminder_at"`
	OriginalReminderAt *time.Time `json:"original_reminder_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	DelayCount         int        `json:"delay_count"`
	Completed          bool       `json:"completed"`
	IgnoreWorkingHours bool       `json:"ignore_working_hours"`
	Recurring          bool       `json:"recurring"`
	IntervalHours      int        `json:"interval_hours,omitempty"`
	CompletionCount    int        `json:"completion_count"`
	LastCompletedAt    *time.Time `json:"last_completed_at,omitempty"`
	FollowUpSeconds    int64      `json:"follow_up_seconds,omitempty"`
}

func toTaskResponse(t model.Task) taskResponse {
	out := taskResponse{
		ID:                 t.ID,
		Title:              t.Title,
		Description:        t.Description,
		ReminderAt:         t.ReminderAt,
		OriginalReminderAt: t.OriginalReminderAt,
		CreatedAt:          t.CreatedAt,
		DelayCount:         t.DelayCount,
		Completed:          t.Completed,
		IgnoreWorkingHours: t.IgnoreWorkingHours,
		CompletionCount:    t.CompletionCount,
		LastCompletedAt:    t.LastCompletedAt,
	}
	if t.Recurrence != nil {
		out.Recurring = true
		out.IntervalHours = t.Recurrence.IntervalHours
	}
	if t.FollowUp != nil {
		out.FollowUpSeconds = int64(t.FollowUp.After / time.Second)
	}
	return out
}

// taskEnvelope wraps a task with any notification problem the change hit.
type taskEnvelope struct {
	Task              taskResponse `json:"task"`
	SchedulingWarning string       `json:"scheduling_warning,omitempty"`
}

type createTaskRequest struct {
	Title              string    `json:"title" binding:"required"`
	Description        string    `json:"description"`
	ReminderAt         time.Time `json:"reminder_at"`
	Recurring          bool      `json:"recurring"`
	IntervalHours      int       `json:"interval_hours"`
	IgnoreWorkingHours bool      `json:"ignore_working_hours"`
	FollowUpSeconds    int64     `json:"follow_up_seconds"`
}

func (r createTaskRequest) draft() model.TaskDraft {
	return model.TaskDraft{
		Title:              r.Title,
		Description:        r.Description,
		ReminderAt:         r.ReminderAt,
		Recurring:          r.Recurring,
		IntervalHours:      r.IntervalHours,
		IgnoreWorkingHours: r.IgnoreWorkingHours,
		FollowUpAfter:      time.Duration(r.FollowUpSeconds) * time.Second,
	}
}

type updateTaskRequest struct {
	Title              *string    `json:"title"`
	Description        *string    `json:"description"`
	ReminderAt         *time.Time `json:"reminder_at"`
	Recurring          *bool      `json:"recurring"`
	IntervalHours      *int       `json:"interval_hours"`
	IgnoreWorkingHours *bool      `json:"ignore_working_hours"`
	FollowUpSeconds    *int64     `json:"follow_up_seconds"`
}

func (r updateTaskRequest) patch() model.TaskPatch {
	p := model.TaskPatch{
		Title:              r.Title,
		Description:        r.Description,
		ReminderAt:         r.ReminderAt,
		Recurring:          r.Recurring,
		IntervalHours:      r.IntervalHours,
		IgnoreWorkingHours: r.IgnoreWorkingHours,
	}
	if r.FollowUpSeconds != nil {
		d := time.Duration(*r.FollowUpSeconds) * time.Second
		p.FollowUpAfter = &d
	}
	return p
}

type delayRequest struct {
	Amount string `json:"amount"`
}

type settingsResponse struct {
	WorkingHoursEnabled bool   `json:"working_hours_enabled"`
	TwentyFourHourMode  bool   `json:"twenty_four_hour_mode"`
	Start               string `json:"working_hours_start"`
	End                 string `json:"working_hours_end"`
	DefaultDelay        string `json:"default_delay"`
	SchedulingWarning   string `json:"scheduling_warning,omitempty"`
}

func toSettingsResponse(s model.Settings) settingsResponse {
	return settingsResponse{
		WorkingHoursEnabled: s.WorkingHoursEnabled(),
		TwentyFourHourMode:  s.TwentyFourHourMode(),
		Start:               s.Window.Start.String(),
		End:                 s.Window.End.String(),
		DefaultDelay:        s.DefaultDelay,
	}
}

type settingsRequest struct {
	WorkingHoursEnabled *bool   `json:"working_hours_enabled"`
	TwentyFourHourMode  *bool   `json:"twenty_four_hour_mode"`
	Start               *string `json:"working_hours_start"`
	End                 *string `json:"working_hours_end"`
	DefaultDelay        *string `json:"default_delay"`
}

type actionRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	ActionID   string `json:"action_id" binding:"required"`
	TaskID     string `json:"task_id"`
	IsPrimary  *bool  `json:"is_primary"`
}
