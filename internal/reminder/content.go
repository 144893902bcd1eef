package reminder

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
)

const (
	titleLimit = 27
	bodyLimit  = 57

	placeholderBody = "Tap to open your task."
	followUpPrefix  = "⏰ Still pending: "
)

// BuildContent renders the primary notification for task.
func BuildContent(task model.Task) notify.Content {
	body := truncate(strings.TrimSpace(task.Description), bodyLimit)
	if suffix := delaySuffix(task.DelayCount); suffix != "" {
		body += suffix
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = placeholderBody
	}
	return notify.Content{
		Title:      truncate(task.Title, titleLimit),
		Body:       body,
		CategoryID: notify.CategoryReminder,
		Payload: notify.Payload{
			TaskID:       task.ID,
			IsSequential: task.FollowUp != nil,
			IsPrimary:    true,
		},
	}
}

// BuildFollowUpContent is the attention-flagged variant of BuildContent.
func BuildFollowUpContent(task model.Task) notify.Content {
	c := BuildContent(task)
	c.Title = followUpPrefix + c.Title
	c.Payload.IsPrimary = false
	return c
}

func delaySuffix(count int) string {
	switch {
	case count <= 0:
		return ""
	case count == 1:
		return " (Delayed once)"
	default:
		return fmt.Sprintf(" (Delayed %dx)", count)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
