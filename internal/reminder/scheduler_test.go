package reminder

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/notify/notifytest"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

var berlin = time.FixedZone("CET", 1*60*60)

func restrictedSettings() model.Settings {
	s := model.DefaultSettings()
	s.Window = workinghours.Restricted(workinghours.MustClock("08:00"), workinghours.MustClock("17:00"))
	return s
}

func newTask(id string, at time.Time) model.Task {
	return model.Task{
		ID:          id,
		Title:       "Water plants",
		Description: "balcony and kitchen",
		ReminderAt:  at,
		CreatedAt:   at.Add(-time.Hour),
	}
}

func setup(t *testing.T) (*Scheduler, *notifytest.Recorder) {
	t.Helper()
	rec := notifytest.NewRecorder()
	return New(rec, Options{Location: berlin}), rec
}

func TestScenarioOutsideWorkingHoursMovesToNextMorning(t *testing.T) {
	s, rec := setup(t)
	task := newTask("a", time.Date(2026, 3, 10, 22, 0, 0, 0, berlin))

	if err := s.Schedule(context.Background(), task, restrictedSettings()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	got, ok := rec.Pending("a")
	if !ok {
		t.Fatal("expected primary request")
	}
	want := time.Date(2026, 3, 11, 8, 0, 0, 0, berlin)
	if !got.TriggerAt.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got.TriggerAt)
	}
}

func TestScenarioIgnoreWorkingHoursKeepsRawTime(t *testing.T) {
	s, rec := setup(t)
	raw := time.Date(2026, 3, 10, 22, 0, 0, 0, berlin)
	task := newTask("b", raw)
	task.IgnoreWorkingHours = true

	if err := s.Schedule(context.Background(), task, restrictedSettings()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	got, _ := rec.Pending("b")
	if !got.TriggerAt.Equal(raw) {
		t.Fatalf("expected raw %s, got %s", raw, got.TriggerAt)
	}
}

func TestEffectiveTimeUsesSchedulerLocation(t *testing.T) {
	s, _ := setup(t)
	// 06:30 UTC is 07:30 in the scheduler's zone: before the window opens.
	task := newTask("c", time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC))
	got := s.EffectiveTime(task, restrictedSettings())
	want := time.Date(2026, 3, 10, 8, 0, 0, 0, berlin)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAllDayModeNeverAdjusts(t *testing.T) {
	s, _ := setup(t)
	raw := time.Date(2026, 3, 10, 3, 0, 0, 0, berlin)
	if got := s.EffectiveTime(newTask("d", raw), model.DefaultSettings()); !got.Equal(raw) {
		t.Fatalf("expected unadjusted time, got %s", got)
	}
}

func TestScheduleCancelsBeforeScheduling(t *testing.T) {
	s, rec := setup(t)
	ctx := context.Background()
	task := newTask("e", time.Date(2026, 3, 10, 9, 0, 0, 0, berlin))
	task.FollowUp = &model.FollowUp{After: 15 * time.Minute}

	for i := 0; i < 2; i++ {
		if err := s.Schedule(ctx, task, restrictedSettings()); err != nil {
			t.Fatalf("schedule %d: %v", i, err)
		}
	}

	primary := rec.CallsFor("e")
	if !slices.Equal(primary, []string{"Cancel", "Schedule", "Cancel", "Schedule"}) {
		t.Fatalf("unexpected primary call order: %v", primary)
	}
	follow := rec.CallsFor("e_followup")
	if !slices.Equal(follow, []string{"Cancel", "Schedule", "Cancel", "Schedule"}) {
		t.Fatalf("unexpected follow-up call order: %v", follow)
	}
	// Both cancels precede the first schedule of the operation.
	calls := rec.Calls()
	if calls[0].Method != "Cancel" || calls[1].Method != "Cancel" || calls[2].Method != "Schedule" {
		t.Fatalf("unexpected leading calls: %+v", calls[:3])
	}
}

func TestFollowUpRequest(t *testing.T) {
	s, rec := setup(t)
	task := newTask("f", time.Date(2026, 3, 10, 22, 0, 0, 0, berlin))
	task.FollowUp = &model.FollowUp{After: 10 * time.Minute}

	if err := s.Schedule(context.Background(), task, restrictedSettings()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	primary, _ := rec.Pending("f")
	follow, ok := rec.Pending("f_followup")
	if !ok {
		t.Fatal("expected follow-up request")
	}
	if got := follow.TriggerAt.Sub(primary.TriggerAt); got != 10*time.Minute {
		t.Fatalf("expected follow-up 10m after adjusted primary, got %s", got)
	}
	if !primary.Content.Payload.IsPrimary || !primary.Content.Payload.IsSequential {
		t.Fatalf("unexpected primary payload: %+v", primary.Content.Payload)
	}
	if follow.Content.Payload.IsPrimary || follow.Content.Payload.TaskID != "f" {
		t.Fatalf("unexpected follow-up payload: %+v", follow.Content.Payload)
	}
	if !strings.HasPrefix(follow.Content.Title, followUpPrefix) {
		t.Fatalf("expected attention title, got %q", follow.Content.Title)
	}
}

func TestCompletedOneShotOnlyCancels(t *testing.T) {
	s, rec := setup(t)
	task := newTask("g", time.Date(2026, 3, 10, 9, 0, 0, 0, berlin))
	task.Completed = true

	if err := s.Schedule(context.Background(), task, model.DefaultSettings()); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if ids := rec.PendingIDs(); len(ids) != 0 {
		t.Fatalf("expected nothing pending, got %v", ids)
	}
	if got := rec.CallsFor("g"); !slices.Equal(got, []string{"Cancel"}) {
		t.Fatalf("expected a single cancel, got %v", got)
	}
}

func TestServiceFailureIsSchedulingError(t *testing.T) {
	s, rec := setup(t)
	rec.ScheduleErr = errors.New("permission denied")
	task := newTask("h", time.Date(2026, 3, 10, 9, 0, 0, 0, berlin))

	err := s.Schedule(context.Background(), task, model.DefaultSettings())
	var serr *SchedulingError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SchedulingError, got %v", err)
	}
	if serr.Op != "schedule" || serr.Identifier != "h" || !errors.Is(err, rec.ScheduleErr) {
		t.Fatalf("unexpected scheduling error: %+v", serr)
	}
}

func TestCancelAttemptsBothIdentifiers(t *testing.T) {
	s, rec := setup(t)
	rec.CancelErr = errors.New("offline")

	err := s.Cancel(context.Background(), "i")
	if err == nil {
		t.Fatal("expected cancel error")
	}
	if len(rec.CallsFor("i")) != 1 || len(rec.CallsFor("i_followup")) != 1 {
		t.Fatalf("expected both identifiers attempted, got %+v", rec.Calls())
	}
}

func TestRegisterCategoryLabelsDelay(t *testing.T) {
	s, rec := setup(t)
	settings := model.DefaultSettings()
	settings.DefaultDelay = "1h"

	if err := s.RegisterCategory(context.Background(), settings); err != nil {
		t.Fatalf("register: %v", err)
	}
	c, ok := rec.Category(notify.CategoryReminder)
	if !ok || len(c.Actions) != 2 {
		t.Fatalf("unexpected category: %+v", c)
	}
	if c.Actions[0].ID != notify.ActionDone || c.Actions[1].Title != "Delay 1h" {
		t.Fatalf("unexpected actions: %+v", c.Actions)
	}
}
