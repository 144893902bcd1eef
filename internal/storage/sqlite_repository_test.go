package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

type repoFactory struct {
	name string
	open func(t *testing.T) Repository
}

func repoFactories() []repoFactory {
	return []repoFactory{
		{name: DriverSQLite, open: func(t *testing.T) Repository {
			t.Helper()
			repo, err := OpenSQLite(filepath.Join(t.TempDir(), "nudge-test.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		}},
		{name: DriverGorm, open: func(t *testing.T) Repository {
			t.Helper()
			repo, err := OpenGorm(filepath.Join(t.TempDir(), "nudge-gorm-test.db"), nil)
			if err != nil {
				t.Fatalf("open gorm: %v", err)
			}
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		}},
	}
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func sampleTask(t *testing.T, id, reminder string) model.Task {
	t.Helper()
	return model.Task{
		ID:          id,
		Title:       "Task " + id,
		Description: "notes for " + id,
		ReminderAt:  parseRFC3339(t, reminder),
		CreatedAt:   parseRFC3339(t, "2026-02-09T08:00:00Z"),
	}
}

func TestTaskCRUDAndList(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			repo := f.open(t)
			ctx := context.Background()

			task := sampleTask(t, "task-1", "2026-02-09T12:00:00Z")
			task.Recurrence = &model.RecurrenceRule{IntervalHours: 48}
			task.FollowUp = &model.FollowUp{After: 10 * time.Minute}
			task.IgnoreWorkingHours = true
			if err := repo.CreateTask(ctx, task); err != nil {
				t.Fatalf("create task: %v", err)
			}

			got, err := repo.GetTask(ctx, task.ID)
			if err != nil {
				t.Fatalf("get task: %v", err)
			}
			if got.Title != task.Title || got.Description != task.Description {
				t.Fatalf("unexpected task text: %+v", got)
			}
			if !got.ReminderAt.Equal(task.ReminderAt) || !got.CreatedAt.Equal(task.CreatedAt) {
				t.Fatalf("unexpected times: %+v", got)
			}
			if got.Recurrence == nil || got.Recurrence.IntervalHours != 48 {
				t.Fatalf("expected 48h recurrence, got %+v", got.Recurrence)
			}
			if got.FollowUp == nil || got.FollowUp.After != 10*time.Minute {
				t.Fatalf("expected 10m follow-up, got %+v", got.FollowUp)
			}
			if !got.IgnoreWorkingHours {
				t.Fatal("expected ignore working hours to round-trip")
			}
			if got.OriginalReminderAt != nil || got.LastCompletedAt != nil {
				t.Fatalf("expected nil optional times, got %+v", got)
			}

			original := task.ReminderAt
			completed := parseRFC3339(t, "2026-02-09T12:05:00Z")
			got.ReminderAt = original.Add(90 * time.Minute)
			got.OriginalReminderAt = &original
			got.DelayCount = 2
			got.CompletionCount = 1
			got.LastCompletedAt = &completed
			if err := repo.UpdateTask(ctx, got); err != nil {
				t.Fatalf("update task: %v", err)
			}

			updated, err := repo.GetTask(ctx, task.ID)
			if err != nil {
				t.Fatalf("get updated task: %v", err)
			}
			if updated.DelayCount != 2 || updated.CompletionCount != 1 {
				t.Fatalf("unexpected counters: %+v", updated)
			}
			if updated.OriginalReminderAt == nil || !updated.OriginalReminderAt.Equal(original) {
				t.Fatalf("unexpected original reminder: %v", updated.OriginalReminderAt)
			}
			if updated.LastCompletedAt == nil || !updated.LastCompletedAt.Equal(completed) {
				t.Fatalf("unexpected last completed: %v", updated.LastCompletedAt)
			}

			if err := repo.DeleteTask(ctx, task.ID); err != nil {
				t.Fatalf("delete task: %v", err)
			}
			if _, err := repo.GetTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestMissingTaskReturnsNotFound(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			repo := f.open(t)
			ctx := context.Background()
			missing := sampleTask(t, "ghost", "2026-02-09T12:00:00Z")

			if _, err := repo.GetTask(ctx, missing.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("get: expected ErrNotFound, got %v", err)
			}
			if err := repo.UpdateTask(ctx, missing); !errors.Is(err, ErrNotFound) {
				t.Fatalf("update: expected ErrNotFound, got %v", err)
			}
			if err := repo.DeleteTask(ctx, missing.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("delete: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestListTasksOrderFilterAndPagination(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			repo := f.open(t)
			ctx := context.Background()

			// Mixed offsets check that ordering is chronological, not textual.
			late := sampleTask(t, "c", "2026-02-09T18:00:00Z")
			early := sampleTask(t, "a", "2026-02-09T09:00:00+02:00")
			mid := sampleTask(t, "b", "2026-02-09T12:00:00Z")
			mid.Completed = true
			for _, task := range []model.Task{late, early, mid} {
				if err := repo.CreateTask(ctx, task); err != nil {
					t.Fatalf("create %s: %v", task.ID, err)
				}
			}

			all, err := repo.ListTasks(ctx, TaskListFilter{})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if ids := taskIDs(all); ids != "a,b,c" {
				t.Fatalf("unexpected order: %s", ids)
			}

			active, err := repo.ListTasks(ctx, TaskListFilter{ActiveOnly: true})
			if err != nil {
				t.Fatalf("list active: %v", err)
			}
			if ids := taskIDs(active); ids != "a,c" {
				t.Fatalf("unexpected active tasks: %s", ids)
			}

			page, err := repo.ListTasks(ctx, TaskListFilter{Limit: 1, Offset: 1})
			if err != nil {
				t.Fatalf("list page: %v", err)
			}
			if ids := taskIDs(page); ids != "b" {
				t.Fatalf("unexpected page: %s", ids)
			}

			tail, err := repo.ListTasks(ctx, TaskListFilter{Offset: 2})
			if err != nil {
				t.Fatalf("list tail: %v", err)
			}
			if ids := taskIDs(tail); ids != "c" {
				t.Fatalf("unexpected tail: %s", ids)
			}
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			repo := f.open(t)
			ctx := context.Background()

			if _, ok, err := repo.GetSettings(ctx); err != nil || ok {
				t.Fatalf("expected no settings yet, ok=%v err=%v", ok, err)
			}

			first := model.DefaultSettings()
			if err := repo.SaveSettings(ctx, first); err != nil {
				t.Fatalf("save settings: %v", err)
			}

			second := model.Settings{
				Window:       workinghours.Restricted(workinghours.MustClock("09:30"), workinghours.MustClock("18:00")),
				DefaultDelay: "1h",
			}
			if err := repo.SaveSettings(ctx, second); err != nil {
				t.Fatalf("overwrite settings: %v", err)
			}

			got, ok, err := repo.GetSettings(ctx)
			if err != nil || !ok {
				t.Fatalf("get settings: ok=%v err=%v", ok, err)
			}
			if got != second {
				t.Fatalf("expected %+v, got %+v", second, got)
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("postgres", filepath.Join(t.TempDir(), "x.db"), nil)
	if !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "nudge.db")
	repo, err := Open(DriverSQLite, path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	if err := repo.CreateTask(context.Background(), sampleTask(t, "n1", "2026-02-09T12:00:00Z")); err != nil {
		t.Fatalf("create in nested db: %v", err)
	}
}

func taskIDs(tasks []model.Task) string {
	out := ""
	for i, task := range tasks {
		if i > 0 {
			out += ","
		}
		out += task.ID
	}
	return out
}
