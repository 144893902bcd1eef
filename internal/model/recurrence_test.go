package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceNextAfterCountsFromCompletion(t *testing.T) {
	rule := RecurrenceRule{IntervalHours: 24}
	done := time.Date(2026, 2, 9, 12, 17, 0, 0, time.UTC)
	next, err := rule.NextAfter(done)
	if err != nil {
		t.Fatalf("next after completion failed: %v", err)
	}
	if next.Format("2006-01-02 15:04") != "2026-02-10 12:17" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestRecurrenceRequiresPositiveInterval(t *testing.T) {
	for _, hours := range []int{0, -3, int(MaxIntervalHours) + 1} {
		_, err := RecurrenceRule{IntervalHours: hours}.NextAfter(time.Now())
		if !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("interval %d: expected ErrInvalidInterval, got %v", hours, err)
		}
	}
}

func TestRecurrenceLongestIntervalStaysInFuture(t *testing.T) {
	done := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	next, err := RecurrenceRule{IntervalHours: int(MaxIntervalHours)}.NextAfter(done)
	if err != nil {
		t.Fatalf("longest interval rejected: %v", err)
	}
	if !next.After(done) {
		t.Fatalf("next occurrence %s is not after %s", next, done)
	}
}

func TestRecurrenceRequiresCompletionTime(t *testing.T) {
	if _, err := (RecurrenceRule{IntervalHours: 1}).NextAfter(time.Time{}); err == nil {
		t.Fatal("expected error for zero completion time")
	}
}

func TestRecurrencePreview(t *testing.T) {
	rule := RecurrenceRule{IntervalHours: 8}
	list, err := rule.Preview(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), 3)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	want := []string{"2026-02-05 08:00", "2026-02-05 16:00", "2026-02-06 00:00"}
	if len(list) != len(want) {
		t.Fatalf("expected %d preview items, got %d", len(want), len(list))
	}
	for i := range list {
		if got := list[i].Format("2006-01-02 15:04"); got != want[i] {
			t.Fatalf("preview[%d] got %s want %s", i, got, want[i])
		}
	}
	empty, err := rule.Preview(time.Now(), 0)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty preview, got %v %v", empty, err)
	}
}
