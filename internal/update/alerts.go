package update

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/nudge/internal/lifecycle"
	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/views"
)

func waitForEventCmd(ch <-chan notify.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

func (m *Model) applyEvent(ev notify.Event) {
	if ev.Withdrawn {
		m.removeAlert(ev.Identifier)
		return
	}
	req := ev.Presentation.Request
	m.removeAlert(req.Identifier)
	m.Alerts = append(m.Alerts, Alert{
		Identifier: req.Identifier,
		Content:    req.Content,
		Actions:    ev.Presentation.Actions,
	})
	if len(m.Alerts) > maxAlerts {
		m.Alerts = m.Alerts[len(m.Alerts)-maxAlerts:]
	}
	m.Status = StatusBar{Text: "reminder: " + req.Content.Title}
}

func (m *Model) removeAlert(identifier string) {
	out := m.Alerts[:0]
	for _, a := range m.Alerts {
		if a.Identifier != identifier {
			out = append(out, a)
		}
	}
	m.Alerts = out
}

// respondToAlert answers the oldest alert with actionID, the same way a
// button press on a desktop notification would.
func (m Model) respondToAlert(actionID string) (Model, tea.Cmd) {
	if len(m.Alerts) == 0 {
		return m, nil
	}
	alert := m.Alerts[0]
	m.Alerts = append([]Alert(nil), m.Alerts[1:]...)
	action := notify.Action{
		Identifier: alert.Identifier,
		ActionID:   actionID,
		Payload:    alert.Content.Payload,
	}
	if m.sink != nil {
		if !m.sink.Deliver(action) {
			m.Status = StatusBar{Text: "action dropped: notification service stopped", IsError: true}
			return m, nil
		}
		return m, func() tea.Msg { return RefreshMsg{} }
	}
	svc := m.svc
	return m, m.mutate(actionVerb(actionID), func(ctx context.Context) (lifecycle.Result, error) {
		return svc.HandleAction(ctx, action)
	})
}

func actionVerb(actionID string) string {
	switch actionID {
	case notify.ActionDone:
		return "done"
	case notify.ActionDelay:
		return "delayed"
	default:
		return "opened"
	}
}

func (m Model) renderAlerts() string {
	data := make([]views.AlertData, 0, len(m.Alerts))
	for _, a := range m.Alerts {
		item := views.AlertData{
			Title:    a.Content.Title,
			Body:     a.Content.Body,
			FollowUp: !a.Content.Payload.IsPrimary,
		}
		for _, b := range a.Actions {
			switch b.ID {
			case notify.ActionDone:
				item.ActionKeys = append(item.ActionKeys, m.Keys.AlertDone+" "+b.Title)
			case notify.ActionDelay:
				item.ActionKeys = append(item.ActionKeys, m.Keys.AlertDelay+" "+b.Title)
			}
		}
		item.ActionKeys = append(item.ActionKeys, m.Keys.AlertDismiss+" dismiss")
		data = append(data, item)
	}
	return views.RenderAlerts(data)
}
