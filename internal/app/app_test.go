package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/nudge/internal/config"
	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Database.Path = filepath.Join(t.TempDir(), "data", "nudge.db")
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppDeliversAndHandlesActions(t *testing.T) {
	a, err := New(testConfig(t), discard(), Options{Terminal: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := a.Tasks.Add(context.Background(), model.TaskDraft{
		Title:      "Take out trash",
		ReminderAt: time.Now().Add(20 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	var ev notify.Event
	select {
	case ev = <-a.Terminal.C():
	case <-time.After(2 * time.Second):
		t.Fatalf("reminder was not presented")
	}
	if ev.Presentation.Request.Identifier != res.Task.ID {
		t.Fatalf("unexpected presentation: %+v", ev)
	}
	if len(ev.Presentation.Actions) != 2 {
		t.Fatalf("expected done/delay buttons, got %+v", ev.Presentation.Actions)
	}

	if !a.Notify.Deliver(notify.Action{
		Identifier: res.Task.ID,
		ActionID:   notify.ActionDone,
		Payload:    ev.Presentation.Request.Content.Payload,
	}) {
		t.Fatalf("deliver refused")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if task, _ := a.Tasks.Task(res.Task.ID); task.Completed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("done action was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAppResyncDoesNotRepeatUnansweredReminder(t *testing.T) {
	a, err := New(testConfig(t), discard(), Options{Terminal: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := a.Tasks.Add(ctx, model.TaskDraft{Title: "Call mom", ReminderAt: time.Now().Add(20 * time.Millisecond)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	select {
	case <-a.Terminal.C():
	case <-time.After(2 * time.Second):
		t.Fatalf("reminder was not presented")
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(a.Notify.Presented()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("presentation was not tracked")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		if err := a.Tasks.Resync(ctx); err != nil {
			t.Fatalf("resync: %v", err)
		}
	}
	select {
	case ev := <-a.Terminal.C():
		t.Fatalf("resync presented %s again: %+v", res.Task.ID, ev)
	case <-time.After(150 * time.Millisecond):
	}
	if got := a.Notify.Presented(); len(got) != 1 || got[0] != res.Task.ID {
		t.Fatalf("unexpected presented set: %v", got)
	}
}

func TestAppRestoresPendingRemindersOnRestart(t *testing.T) {
	cfg := testConfig(t)
	first, err := New(cfg, discard(), Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := first.Tasks.Add(context.Background(), model.TaskDraft{Title: "Dentist", ReminderAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := New(cfg, discard(), Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if _, ok := second.Notify.Pending(res.Task.ID); !ok {
		t.Fatalf("expected reminder rescheduled after restart")
	}
}

func TestAppUsesSeedSettingsAndGormDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = storage.DriverGorm
	cfg.Defaults.DefaultDelay = "45m"
	a, err := New(cfg, discard(), Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := a.Tasks.Settings().DefaultDelay; got != "45m" {
		t.Fatalf("seed default delay not applied: %q", got)
	}
	cat, ok := a.Notify.Category(notify.CategoryReminder)
	if !ok || cat.Actions[1].Title != "Delay 45m" {
		t.Fatalf("category not registered from seed: %+v", cat)
	}
}

func TestAppRejectsBadResyncSpec(t *testing.T) {
	cfg := testConfig(t)
	cfg.Resync.Spec = "every now and then"
	a, err := New(cfg, discard(), Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Close()
	if err := a.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron spec to fail start")
	}
}
