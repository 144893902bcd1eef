// Package notify delivers scheduled reminder notifications and reports the
// actions users take on them.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	CategoryReminder = "reminder"

	ActionDone    = "done_action"
	ActionDelay   = "delay_action"
	ActionDefault = "default"

	followUpSuffix = "_followup"
)

var (
	ErrInvalidTriggerTime = errors.New("notify: invalid trigger time")
	ErrInvalidIdentifier  = errors.New("notify: empty identifier")
	ErrStopped            = errors.New("notify: service stopped")
)

// Payload travels with a notification and comes back with its actions.
type Payload struct {
	TaskID       string `json:"task_id"`
	IsSequential bool   `json:"is_sequential"`
	IsPrimary    bool   `json:"is_primary"`
}

type Content struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	CategoryID string  `json:"category_id"`
	Payload    Payload `json:"payload"`
}

// Request schedules Content under Identifier. Scheduling an identifier that
// is already pending replaces the pending request.
type Request struct {
	Identifier string    `json:"identifier"`
	Content    Content   `json:"content"`
	TriggerAt  time.Time `json:"trigger_at"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Identifier) == "" {
		return ErrInvalidIdentifier
	}
	if r.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	return nil
}

type ActionButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Category struct {
	ID      string         `json:"id"`
	Actions []ActionButton `json:"actions"`
}

// Action is a user response to a presented notification.
type Action struct {
	Identifier string  `json:"identifier"`
	ActionID   string  `json:"action_id"`
	Payload    Payload `json:"payload"`
}

// TaskID resolves the task the action refers to, falling back to the
// notification identifier when the payload is empty.
func (a Action) TaskID() string {
	if a.Payload.TaskID != "" {
		return a.Payload.TaskID
	}
	return TaskIDFromIdentifier(a.Identifier)
}

// IsFollowUp reports whether the action came from the follow-up notification.
func (a Action) IsFollowUp() bool {
	if a.Payload.TaskID != "" {
		return !a.Payload.IsPrimary
	}
	return IsFollowUpIdentifier(a.Identifier)
}

type Service interface {
	Schedule(ctx context.Context, req Request) error
	Cancel(ctx context.Context, identifier string) error
	DismissPresented(ctx context.Context, identifier string) error
	RegisterCategory(ctx context.Context, category Category) error
	Actions() <-chan Action
}

// Presenter shows due notifications to the user.
type Presenter interface {
	Present(ctx context.Context, n Presentation) error
	Dismiss(ctx context.Context, identifier string) error
}

// Presentation is a due request together with the buttons of its category.
type Presentation struct {
	Request Request
	Actions []ActionButton
}

// ActionSink accepts actions produced by presenters.
type ActionSink interface {
	Deliver(a Action) bool
}

func FollowUpIdentifier(taskID string) string {
	return taskID + followUpSuffix
}

func IsFollowUpIdentifier(identifier string) bool {
	return strings.HasSuffix(identifier, followUpSuffix)
}

func TaskIDFromIdentifier(identifier string) string {
	return strings.TrimSuffix(identifier, followUpSuffix)
}
