package update

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/nudge/internal/delay"
	"github.com/sandeepkv93/nudge/internal/lifecycle"
	domainmodel "github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/reminder"
	"github.com/sandeepkv93/nudge/internal/views"
)

const (
	rowTimeLayout    = "Mon 02 Jan 15:04"
	detailTimeLayout = "2006-01-02 15:04"
)

func (m *Model) reload() {
	if m.svc == nil {
		return
	}
	m.Tasks = m.svc.Tasks()
	m.Settings = m.svc.Settings()
	m.syncTable()
}

// syncTable rebuilds the rows and keeps the cursor on the selected task
// when it still exists.
func (m *Model) syncTable() {
	rows := make([]table.Row, 0, len(m.Tasks))
	cursor := 0
	for i, t := range m.Tasks {
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			t.ReminderAt.In(m.loc).Format(rowTimeLayout),
			t.Title,
			taskState(t),
		})
		if t.ID == m.SelectedID {
			cursor = i
		}
	}
	m.taskTable.SetRows(rows)
	if len(rows) == 0 {
		m.SelectedID = ""
		return
	}
	m.taskTable.SetCursor(cursor)
	m.SelectedID = m.Tasks[cursor].ID
}

func (m *Model) syncSelectionToCursor() {
	i := m.taskTable.Cursor()
	if i >= 0 && i < len(m.Tasks) {
		m.SelectedID = m.Tasks[i].ID
	}
}

func taskState(t domainmodel.Task) string {
	switch {
	case t.Completed:
		return "done"
	case t.DelayCount > 0:
		return fmt.Sprintf("delayed %dx", t.DelayCount)
	case t.IsRecurring():
		return fmt.Sprintf("every %dh", t.Recurrence.IntervalHours)
	default:
		return "open"
	}
}

func (m Model) selectedTask() (domainmodel.Task, bool) {
	for _, t := range m.Tasks {
		if t.ID == m.SelectedID {
			return t, true
		}
	}
	return domainmodel.Task{}, false
}

// taskAt resolves the 1-based row number palette commands use.
func (m Model) taskAt(index int) (domainmodel.Task, error) {
	if index < 1 || index > len(m.Tasks) {
		return domainmodel.Task{}, fmt.Errorf("no task #%d", index)
	}
	return m.Tasks[index-1], nil
}

// mutate runs fn off the update loop and reports the outcome as a ResultMsg.
func (m Model) mutate(verb string, fn func(ctx context.Context) (lifecycle.Result, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := fn(ctx)
		if err != nil {
			return ResultMsg{Err: err}
		}
		return ResultMsg{Text: fmt.Sprintf("%s: %s", verb, res.Task.Title), Warning: res.Scheduling}
	}
}

func (m Model) mutateSettings(fn func(*domainmodel.Settings)) tea.Cmd {
	svc, timeout := m.svc, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := svc.UpdateSettings(ctx, fn)
		if err != nil {
			return ResultMsg{Err: err}
		}
		text := fmt.Sprintf("settings saved: window %s, default delay %s", res.Settings.Window, res.Settings.DefaultDelay)
		return ResultMsg{Text: text, Warning: res.Scheduling}
	}
}

func (m Model) toggleSelected() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		return nil
	}
	verb := "completed"
	if task.Completed {
		verb = "reopened"
	}
	svc := m.svc
	return m.mutate(verb, func(ctx context.Context) (lifecycle.Result, error) {
		return svc.ToggleComplete(ctx, task.ID)
	})
}

func (m Model) delaySelected() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		return nil
	}
	svc := m.svc
	return m.mutate("delayed "+m.Settings.DefaultDelay, func(ctx context.Context) (lifecycle.Result, error) {
		return svc.Delay(ctx, task.ID, "")
	})
}

func (m Model) deleteSelected() tea.Cmd {
	task, ok := m.selectedTask()
	if !ok {
		return nil
	}
	svc := m.svc
	return m.mutate("deleted", func(ctx context.Context) (lifecycle.Result, error) {
		return svc.Delete(ctx, task.ID)
	})
}

func (m Model) renderTaskPanel() string {
	active := 0
	for _, t := range m.Tasks {
		if t.IsActive() {
			active++
		}
	}
	return views.RenderTaskPanel(views.TaskPanelData{
		TableView: m.taskTable.View(),
		Count:     len(m.Tasks),
		Active:    active,
		Window:    m.Settings.Window.String(),
	})
}

func (m Model) renderDetailPane() string {
	task, ok := m.selectedTask()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{})
	}
	data := views.TaskDetailData{
		ID:              task.ID,
		Title:           task.Title,
		DescriptionView: views.RenderMarkdown(task.Description),
		ReminderAt:      task.ReminderAt.In(m.loc).Format(detailTimeLayout),
		Completed:       task.Completed,
		DelayCount:      task.DelayCount,
		CompletionCount: task.CompletionCount,
		Anytime:         task.IgnoreWorkingHours,
	}
	if task.IsActive() {
		data.EffectiveAt = reminder.EffectiveAt(task, m.Settings, m.loc).Format(detailTimeLayout)
	}
	if task.OriginalReminderAt != nil {
		data.OriginalAt = task.OriginalReminderAt.In(m.loc).Format(detailTimeLayout)
	}
	if task.IsRecurring() {
		data.Recurrence = fmt.Sprintf("every %dh after completion", task.Recurrence.IntervalHours)
		if task.LastCompletedAt != nil {
			data.LastCompletedAt = task.LastCompletedAt.In(m.loc).Format(detailTimeLayout)
		}
		if upcoming, err := task.Recurrence.Preview(m.now(), previewCount); err == nil {
			for _, at := range upcoming {
				data.Upcoming = append(data.Upcoming, at.In(m.loc).Format(detailTimeLayout))
			}
		}
	}
	if task.FollowUp != nil {
		data.FollowUp = delay.Format(task.FollowUp.After)
	}
	return views.RenderTaskDetail(data)
}

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg { return tickMsg(t) })
}
