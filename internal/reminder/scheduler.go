// Package reminder turns tasks into notification requests: it applies the
// working-hours window, renders the content and keeps at most one primary
// and one follow-up request pending per task.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
)

// SchedulingError reports a notification service failure. The task itself
// is unaffected.
type SchedulingError struct {
	Op         string
	Identifier string
	Err        error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("reminder: %s %q: %v", e.Op, e.Identifier, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

type Options struct {
	// Location is where working hours are evaluated. Defaults to time.Local.
	Location *time.Location
	Logger   *slog.Logger
}

type Scheduler struct {
	svc notify.Service
	loc *time.Location
	log *slog.Logger
}

func New(svc notify.Service, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{
		svc: svc,
		loc: opts.Location,
		log: opts.Logger.With("component", "reminder"),
	}
}

func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// RespectsWorkingHours reports whether the window applies to task.
func RespectsWorkingHours(task model.Task, settings model.Settings) bool {
	return settings.WorkingHoursEnabled() && !settings.TwentyFourHourMode() && !task.IgnoreWorkingHours
}

// EffectiveTime is the instant the primary notification fires.
func (s *Scheduler) EffectiveTime(task model.Task, settings model.Settings) time.Time {
	return EffectiveAt(task, settings, s.loc)
}

// EffectiveAt is EffectiveTime for callers without a Scheduler.
func EffectiveAt(task model.Task, settings model.Settings, loc *time.Location) time.Time {
	at := task.ReminderAt.In(loc)
	if !RespectsWorkingHours(task, settings) {
		return at
	}
	return settings.Window.Adjust(at)
}

// Schedule replaces whatever is pending for task with fresh requests. A
// completed one-shot task ends up with nothing pending.
func (s *Scheduler) Schedule(ctx context.Context, task model.Task, settings model.Settings) error {
	cancelErr := s.Cancel(ctx, task.ID)
	if task.Completed && !task.IsRecurring() {
		return cancelErr
	}

	effective := s.EffectiveTime(task, settings)
	primary := notify.Request{
		Identifier: task.ID,
		Content:    BuildContent(task),
		TriggerAt:  effective,
	}
	if err := s.svc.Schedule(ctx, primary); err != nil {
		return errors.Join(cancelErr, s.fail("schedule", primary.Identifier, err))
	}

	if task.FollowUp != nil {
		followUp := notify.Request{
			Identifier: notify.FollowUpIdentifier(task.ID),
			Content:    BuildFollowUpContent(task),
			TriggerAt:  effective.Add(task.FollowUp.After),
		}
		if err := s.svc.Schedule(ctx, followUp); err != nil {
			return errors.Join(cancelErr, s.fail("schedule", followUp.Identifier, err))
		}
	}

	s.log.Debug("task scheduled", "task_id", task.ID, "trigger_at", effective,
		"adjusted", !effective.Equal(task.ReminderAt), "follow_up", task.FollowUp != nil)
	return cancelErr
}

// Cancel drops the pending primary and follow-up requests of taskID. Both
// are attempted even when the first fails.
func (s *Scheduler) Cancel(ctx context.Context, taskID string) error {
	return errors.Join(
		s.CancelIdentifier(ctx, taskID),
		s.CancelIdentifier(ctx, notify.FollowUpIdentifier(taskID)),
	)
}

func (s *Scheduler) CancelIdentifier(ctx context.Context, identifier string) error {
	if err := s.svc.Cancel(ctx, identifier); err != nil {
		return s.fail("cancel", identifier, err)
	}
	return nil
}

// Dismiss withdraws the presented primary and follow-up of taskID.
func (s *Scheduler) Dismiss(ctx context.Context, taskID string) error {
	return errors.Join(
		s.DismissIdentifier(ctx, taskID),
		s.DismissIdentifier(ctx, notify.FollowUpIdentifier(taskID)),
	)
}

func (s *Scheduler) DismissIdentifier(ctx context.Context, identifier string) error {
	if err := s.svc.DismissPresented(ctx, identifier); err != nil {
		return s.fail("dismiss", identifier, err)
	}
	return nil
}

// Retire cancels and dismisses both notifications of taskID.
func (s *Scheduler) Retire(ctx context.Context, taskID string) error {
	return errors.Join(s.Cancel(ctx, taskID), s.Dismiss(ctx, taskID))
}

// RegisterCategory publishes the Done and Delay buttons. The Delay label
// carries the current default delay.
func (s *Scheduler) RegisterCategory(ctx context.Context, settings model.Settings) error {
	category := Category(settings)
	if err := s.svc.RegisterCategory(ctx, category); err != nil {
		return s.fail("register category", category.ID, err)
	}
	return nil
}

func Category(settings model.Settings) notify.Category {
	delayLabel := settings.DefaultDelay
	if delayLabel == "" {
		delayLabel = model.DefaultDelay
	}
	return notify.Category{
		ID: notify.CategoryReminder,
		Actions: []notify.ActionButton{
			{ID: notify.ActionDone, Title: "Done"},
			{ID: notify.ActionDelay, Title: "Delay " + delayLabel},
		},
	}
}

func (s *Scheduler) fail(op, identifier string, err error) error {
	serr := &SchedulingError{Op: op, Identifier: identifier, Err: err}
	s.log.Warn("notification service failed", "op", op, "identifier", identifier, "err", err)
	return serr
}
