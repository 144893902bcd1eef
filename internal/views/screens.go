package views

import (
	"fmt"
	"strings"
)

type TaskPanelData struct {
	TableView string
	Count     int
	Active    int
	Window    string
}

type TaskDetailData struct {
	ID              string
	Title           string
	DescriptionView string
	ReminderAt      string
	EffectiveAt     string
	Completed       bool
	DelayCount      int
	OriginalAt      string
	Recurrence      string
	CompletionCount int
	LastCompletedAt string
	FollowUp        string
	Anytime         bool
	Upcoming        []string
}

type AlertData struct {
	Title      string
	Body       string
	FollowUp   bool
	ActionKeys []string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderTaskPanel(data TaskPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("tasks: %d (%d active) | window: %s\n", data.Count, data.Active, data.Window))
	if data.Count == 0 {
		b.WriteString(dimStyle.Render("(no tasks, press / and type: add <title> in 30m)"))
		return b.String()
	}
	b.WriteString(data.TableView)
	return strings.TrimSpace(b.String())
}

func RenderTaskDetail(data TaskDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	title := data.Title
	if data.Completed {
		title = doneStyle.Render(title)
	}
	b.WriteString("details:\n")
	b.WriteString(title + "\n")
	b.WriteString(fmt.Sprintf("reminder: %s\n", data.ReminderAt))
	if data.EffectiveAt != "" && data.EffectiveAt != data.ReminderAt {
		b.WriteString(fmt.Sprintf("fires at: %s (working hours)\n", data.EffectiveAt))
	}
	if data.DelayCount > 0 {
		b.WriteString(fmt.Sprintf("delayed: %dx, originally %s\n", data.DelayCount, data.OriginalAt))
	}
	if data.Recurrence != "" {
		b.WriteString(fmt.Sprintf("repeats: %s | done %d time(s)\n", data.Recurrence, data.CompletionCount))
		if data.LastCompletedAt != "" {
			b.WriteString(fmt.Sprintf("last done: %s\n", data.LastCompletedAt))
		}
	}
	if data.FollowUp != "" {
		b.WriteString(fmt.Sprintf("follow-up: after %s\n", data.FollowUp))
	}
	if data.Anytime {
		b.WriteString("ignores working hours\n")
	}
	if len(data.Upcoming) > 0 {
		b.WriteString("next if done now:\n")
		for _, u := range data.Upcoming {
			b.WriteString("- " + u + "\n")
		}
	}
	if data.DescriptionView != "" {
		b.WriteString("\n" + data.DescriptionView)
	}
	return strings.TrimSpace(b.String())
}

func RenderAlerts(alerts []AlertData) string {
	if len(alerts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, a := range alerts {
		marker := " "
		if i == 0 {
			marker = ">"
		}
		line := fmt.Sprintf("%s %s: %s", marker, a.Title, a.Body)
		if a.FollowUp {
			line = errorStyle.Render(line)
		}
		b.WriteString(line)
		if i == 0 && len(a.ActionKeys) > 0 {
			b.WriteString("  " + dimStyle.Render("["+strings.Join(a.ActionKeys, "] [")+"]"))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "\ncommand: " + inputView
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("\nhelp:\n%s\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}
