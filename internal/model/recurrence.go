package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultIntervalHours is the loop length used when a recurring task does not set one.
const DefaultIntervalHours = 24

// MaxIntervalHours is the longest loop a time.Duration can hold.
const MaxIntervalHours = math.MaxInt64 / int64(time.Hour)

var ErrInvalidInterval = errors.New("model: invalid recurrence interval")

// RecurrenceRule puts a task in loop mode: completing it moves the reminder
// IntervalHours past the completion instant instead of closing the task.
type RecurrenceRule struct {
	IntervalHours int
}

func (r RecurrenceRule) Validate() error {
	if r.IntervalHours <= 0 || int64(r.IntervalHours) > MaxIntervalHours {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.IntervalHours)
	}
	return nil
}

func (r RecurrenceRule) Interval() time.Duration {
	return time.Duration(r.IntervalHours) * time.Hour
}

// NextAfter counts from the completion instant, not from the previous
// reminder, so the cadence drifts with how late the task was marked done.
func (r RecurrenceRule) NextAfter(completedAt time.Time) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	if completedAt.IsZero() {
		return time.Time{}, errors.New("model: completion time required for recurrence")
	}
	return completedAt.Add(r.Interval()), nil
}

// Preview lists the next count triggers assuming each cycle is completed
// exactly when it fires.
func (r RecurrenceRule) Preview(from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, count)
	cursor := from
	for i := 0; i < count; i++ {
		next, err := r.NextAfter(cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		cursor = next
	}
	return out, nil
}
