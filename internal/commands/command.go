package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/nudge/internal/delay"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

type Type string

const (
	TypeAdd          Type = "add"
	TypeDone         Type = "done"
	TypeDelay        Type = "delay"
	TypeDelete       Type = "delete"
	TypeWindow       Type = "window"
	TypeDefaultDelay Type = "default-delay"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

// DefaultLead is how far ahead a new task is due when add names no time.
const DefaultLead = time.Hour

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Title     string
	In        time.Duration
	At        *workinghours.Clock
	LoopHours int
	FollowUp  time.Duration
	Anytime   bool
}

// ReminderAt resolves the requested time against now. An "at" clock that
// already passed today means tomorrow.
func (a AddArgs) ReminderAt(now time.Time) time.Time {
	switch {
	case a.In > 0:
		return now.Add(a.In)
	case a.At != nil:
		y, m, d := now.Date()
		at := time.Date(y, m, d, a.At.Hour, a.At.Minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		return at
	default:
		return now.Add(DefaultLead)
	}
}

// TargetArgs points at a task by its 1-based position in the list.
type TargetArgs struct {
	Index int
}

type DelayArgs struct {
	Index  int
	Amount string
}

type WindowArgs struct {
	AllDay bool
	Start  workinghours.Clock
	End    workinghours.Clock
}

type DefaultDelayArgs struct {
	Amount string
}

type Command struct {
	Type         Type
	Raw          string
	Add          *AddArgs
	Done         *TargetArgs
	Delay        *DelayArgs
	Delete       *TargetArgs
	Window       *WindowArgs
	DefaultDelay *DefaultDelayArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		target, err := parseTarget(head, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeDone, Raw: input, Done: &target}, nil
	case TypeDelete:
		target, err := parseTarget(head, args)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: TypeDelete, Raw: input, Delete: &target}, nil
	case TypeDelay:
		return parseDelay(input, args)
	case TypeWindow:
		return parseWindow(input, args)
	case TypeDefaultDelay:
		return parseDefaultDelay(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	title := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		word := strings.ToLower(args[i])
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}
		switch {
		case word == "in" && delay.Valid(next):
			out.In = delay.Parse(next)
			if out.In <= 0 {
				return Command{}, invalid("add: in needs a positive amount, got %q", next)
			}
			i++
		case word == "at" && isClock(next):
			clock, _ := workinghours.ParseClock(next)
			out.At = &clock
			i++
		case word == "loop" && next != "":
			hours, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(next), "h"))
			if err != nil || hours <= 0 {
				return Command{}, invalid("add: bad loop interval %q", next)
			}
			out.LoopHours = hours
			i++
		case word == "follow" && delay.Valid(next):
			out.FollowUp = delay.Parse(next)
			i++
		case word == "anytime":
			out.Anytime = true
		default:
			title = append(title, args[i])
		}
	}
	out.Title = strings.TrimSpace(strings.Join(title, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	if out.In > 0 && out.At != nil {
		return Command{}, invalid("add: use either in or at, not both")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseTarget(head string, args []string) (TargetArgs, error) {
	if len(args) == 0 {
		return TargetArgs{}, invalid("%s requires a task number", head)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil || n <= 0 {
		return TargetArgs{}, invalid("%s: bad task number %q", head, args[0])
	}
	return TargetArgs{Index: n}, nil
}

func parseDelay(raw string, args []string) (Command, error) {
	target, err := parseTarget(string(TypeDelay), args)
	if err != nil {
		return Command{}, err
	}
	// The amount is passed through untouched: unknown formats fall back to
	// the default delay downstream.
	amount := strings.TrimSpace(strings.Join(args[1:], ""))
	return Command{Type: TypeDelay, Raw: raw, Delay: &DelayArgs{Index: target.Index, Amount: amount}}, nil
}

func parseWindow(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("window requires HH:MM-HH:MM or allday")
	}
	arg := strings.ToLower(args[0])
	if arg == "allday" || arg == "all-day" || arg == "24h" {
		return Command{Type: TypeWindow, Raw: raw, Window: &WindowArgs{AllDay: true}}, nil
	}
	startRaw, endRaw, ok := strings.Cut(arg, "-")
	if !ok {
		return Command{}, invalid("window: bad range %q", args[0])
	}
	start, err := workinghours.ParseClock(startRaw)
	if err != nil {
		return Command{}, invalid("window: bad start %q", startRaw)
	}
	end, err := workinghours.ParseClock(endRaw)
	if err != nil {
		return Command{}, invalid("window: bad end %q", endRaw)
	}
	return Command{Type: TypeWindow, Raw: raw, Window: &WindowArgs{Start: start, End: end}}, nil
}

func parseDefaultDelay(raw string, args []string) (Command, error) {
	amount := strings.Join(args, "")
	if !delay.Valid(amount) {
		return Command{}, invalid("default-delay: bad amount %q", amount)
	}
	return Command{Type: TypeDefaultDelay, Raw: raw, DefaultDelay: &DefaultDelayArgs{Amount: delay.Format(delay.Parse(amount))}}, nil
}

func isClock(s string) bool {
	_, err := workinghours.ParseClock(s)
	return err == nil
}
