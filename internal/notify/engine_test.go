package notify

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func req(id string, at time.Time) Request {
	return Request{
		Identifier: id,
		TriggerAt:  at,
		Content:    Content{Title: id, CategoryID: CategoryReminder, Payload: Payload{TaskID: TaskIDFromIdentifier(id)}},
	}
}

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(req("later", now.Add(80*time.Millisecond))); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(req("sooner", now.Add(20*time.Millisecond))); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitRequest(t, engine.C(), time.Second)
	second := waitRequest(t, engine.C(), time.Second)
	if first.Identifier != "sooner" || second.Identifier != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.Identifier, second.Identifier)
	}
}

func TestEngineScheduleReplacesPendingIdentifier(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	if err := engine.Schedule(req("task-1", now.Add(time.Hour))); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	moved := req("task-1", now.Add(20*time.Millisecond))
	moved.Content.Title = "moved"
	if err := engine.Schedule(moved); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if engine.Len() != 1 {
		t.Fatalf("expected one pending request, got %d", engine.Len())
	}

	got := waitRequest(t, engine.C(), time.Second)
	if got.Content.Title != "moved" {
		t.Fatalf("expected replaced request to fire, got %+v", got)
	}
	if _, ok := engine.Pending("task-1"); ok {
		t.Fatal("fired request should no longer be pending")
	}
}

func TestEngineCancelPreventsDelivery(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	_ = engine.Schedule(req("cancelled", now.Add(30*time.Millisecond)))
	_ = engine.Schedule(req("kept", now.Add(60*time.Millisecond)))

	if !engine.Cancel("cancelled") {
		t.Fatal("expected cancel to find pending request")
	}
	if engine.Cancel("cancelled") {
		t.Fatal("second cancel should be a no-op")
	}
	if engine.Cancel("never-scheduled") {
		t.Fatal("cancel of unknown identifier should be a no-op")
	}

	got := waitRequest(t, engine.C(), time.Second)
	if got.Identifier != "kept" {
		t.Fatalf("expected only kept to fire, got %s", got.Identifier)
	}
	select {
	case extra := <-engine.C():
		t.Fatalf("unexpected extra request %s", extra.Identifier)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(req(fmt.Sprintf("evt-%d", i), at)); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesRequest(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(Request{Identifier: "bad"}); !errors.Is(err, ErrInvalidTriggerTime) {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	if err := engine.Schedule(Request{TriggerAt: time.Now()}); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestScheduleAfterStopFails(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	engine.Stop()
	if err := engine.Schedule(req("late", time.Now())); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func waitRequest(t *testing.T, ch <-chan Request, timeout time.Duration) Request {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for request")
		return Request{}
	}
}
