package workinghours

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock = errors.New("workinghours: invalid clock")
	ErrInvalidMode  = errors.New("workinghours: invalid mode")
)

// Clock is a wall-clock minute of the day, written "HH:MM".
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(raw string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q, expected HH:MM", ErrInvalidClock, raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: bad hour in %q", ErrInvalidClock, raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: bad minute in %q", ErrInvalidClock, raw)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

func MustClock(raw string) Clock {
	c, err := ParseClock(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Mode replaces the pair of "working hours" / "24 hour" switches: exactly
// one of them is on at any time.
type Mode string

const (
	ModeAllDay     Mode = "all_day"
	ModeRestricted Mode = "restricted"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeAllDay, ModeRestricted:
		return true
	default:
		return false
	}
}

// Window is the daily [Start, End] interval during which reminders may fire.
// Start and End are kept while the mode is AllDay so switching back restores them.
type Window struct {
	Mode  Mode  `json:"mode"`
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func Restricted(start, end Clock) Window {
	return Window{Mode: ModeRestricted, Start: start, End: end}
}

func (w Window) Validate() error {
	if !w.Mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, w.Mode)
	}
	for _, c := range []Clock{w.Start, w.End} {
		if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
			return fmt.Errorf("%w: %02d:%02d", ErrInvalidClock, c.Hour, c.Minute)
		}
	}
	return nil
}

func (w Window) Enforced() bool {
	return w.Mode == ModeRestricted
}

// Contains reports whether t's local minute of day lies in the inclusive
// window. A window whose start is after its end wraps past midnight.
func (w Window) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	start, end := w.Start.Minutes(), w.End.Minutes()
	if start <= end {
		return m >= start && m <= end
	}
	return m >= start || m <= end
}

// Adjust returns t when it is inside the window, otherwise the next window
// start: later the same day when t is before start, else the next day.
func (w Window) Adjust(t time.Time) time.Time {
	if w.Contains(t) {
		return t
	}
	y, mo, d := t.Date()
	if w.Start.Minutes() <= w.End.Minutes() && t.Hour()*60+t.Minute() > w.End.Minutes() {
		d++
	}
	return time.Date(y, mo, d, w.Start.Hour, w.Start.Minute, 0, 0, t.Location())
}

func (w Window) String() string {
	if !w.Enforced() {
		return "all day"
	}
	return w.Start.String() + "-" + w.End.String()
}
