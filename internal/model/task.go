package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidFollowUp    = errors.New("model: invalid follow-up interval")
	ErrDelayInvariant     = errors.New("model: delay count and original reminder time disagree")
	ErrRecurringCompleted = errors.New("model: recurring task cannot be completed")
)

// FollowUp schedules a second notification After the primary one fires.
type FollowUp struct {
	After time.Duration
}

func (f FollowUp) Validate() error {
	if f.After < time.Second {
		return fmt.Errorf("%w: %s", ErrInvalidFollowUp, f.After)
	}
	return nil
}

type Task struct {
	ID                 string
	Title              string
	Description        string
	Recurrence         *RecurrenceRule
	ReminderAt         time.Time
	OriginalReminderAt *time.Time
	CreatedAt          time.Time
	DelayCount         int
	Completed          bool
	IgnoreWorkingHours bool
	CompletionCount    int
	LastCompletedAt    *time.Time
	FollowUp           *FollowUp
}

func (t Task) IsRecurring() bool {
	return t.Recurrence != nil
}

func (t Task) IsDelayed() bool {
	return t.DelayCount > 0
}

// IsActive is true while the task still owns live notifications.
func (t Task) IsActive() bool {
	return !t.Completed
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if t.ReminderAt.IsZero() {
		return errors.New("model: task reminder_at is required")
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.DelayCount < 0 || t.CompletionCount < 0 {
		return errors.New("model: task counters must not be negative")
	}
	if (t.DelayCount > 0) != (t.OriginalReminderAt != nil) {
		return fmt.Errorf("%w: delay_count=%d", ErrDelayInvariant, t.DelayCount)
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
		if t.Completed {
			return ErrRecurringCompleted
		}
	}
	if t.FollowUp != nil {
		if err := t.FollowUp.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone copies the optional parts so callers can mutate the result freely.
func (t Task) Clone() Task {
	out := t
	if t.Recurrence != nil {
		r := *t.Recurrence
		out.Recurrence = &r
	}
	if t.FollowUp != nil {
		f := *t.FollowUp
		out.FollowUp = &f
	}
	out.OriginalReminderAt = cloneTime(t.OriginalReminderAt)
	out.LastCompletedAt = cloneTime(t.LastCompletedAt)
	return out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	tm := *v
	return &tm
}

// TaskDraft is the user input for a new task.
type TaskDraft struct {
	Title              string
	Description        string
	ReminderAt         time.Time
	Recurring          bool
	IntervalHours      int
	IgnoreWorkingHours bool
	FollowUpAfter      time.Duration
}

// Build turns the draft into a fresh task: nothing delayed, nothing completed.
func (d TaskDraft) Build(id string, now time.Time) (Task, error) {
	t := Task{
		ID:                 id,
		Title:              strings.TrimSpace(d.Title),
		Description:        strings.TrimSpace(d.Description),
		ReminderAt:         d.ReminderAt,
		CreatedAt:          now,
		IgnoreWorkingHours: d.IgnoreWorkingHours,
	}
	if d.Recurring {
		hours := d.IntervalHours
		if hours == 0 {
			hours = DefaultIntervalHours
		}
		t.Recurrence = &RecurrenceRule{IntervalHours: hours}
	}
	if d.FollowUpAfter != 0 {
		t.FollowUp = &FollowUp{After: d.FollowUpAfter}
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// TaskPatch holds the fields an edit changes; nil means untouched.
// FollowUpAfter set to zero turns the follow-up off.
type TaskPatch struct {
	Title              *string
	Description        *string
	ReminderAt         *time.Time
	Recurring          *bool
	IntervalHours      *int
	IgnoreWorkingHours *bool
	FollowUpAfter      *time.Duration
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ReminderAt == nil &&
		p.Recurring == nil && p.IntervalHours == nil && p.IgnoreWorkingHours == nil &&
		p.FollowUpAfter == nil
}

func (p TaskPatch) ChangesReminder() bool {
	return p.ReminderAt != nil
}

func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.ReminderAt != nil {
		out.ReminderAt = *p.ReminderAt
	}
	if p.IgnoreWorkingHours != nil {
		out.IgnoreWorkingHours = *p.IgnoreWorkingHours
	}
	if p.Recurring != nil {
		switch {
		case !*p.Recurring:
			out.Recurrence = nil
		case out.Recurrence == nil:
			out.Recurrence = &RecurrenceRule{IntervalHours: DefaultIntervalHours}
			out.Completed = false
		}
	}
	if p.IntervalHours != nil && out.Recurrence != nil {
		out.Recurrence.IntervalHours = *p.IntervalHours
	}
	if p.FollowUpAfter != nil {
		if *p.FollowUpAfter == 0 {
			out.FollowUp = nil
		} else {
			out.FollowUp = &FollowUp{After: *p.FollowUpAfter}
		}
	}
	return out
}
