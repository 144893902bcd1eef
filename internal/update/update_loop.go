package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/views"
)

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEventCmd(m.events), tickCmd(m.refresh))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Palette.Active {
			if typed.String() == m.Keys.Help && m.commandInput.Value() == "" {
				m.HelpVisible = !m.HelpVisible
				return m, nil
			}
			return m.handlePaletteKey(typed)
		}
		return m.handleKey(typed)
	case tickMsg:
		m.reload()
		return m, tickCmd(m.refresh)
	case RefreshMsg:
		m.reload()
		return m, nil
	case EventMsg:
		m.applyEvent(typed.Event)
		return m, waitForEventCmd(m.events)
	case ResultMsg:
		switch {
		case typed.Err != nil:
			m.LastError = typed.Err
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		case typed.Warning != nil:
			m.LastError = typed.Warning
			m.Status = StatusBar{Text: fmt.Sprintf("%s (notification problem: %v)", typed.Text, typed.Warning), IsError: true}
		default:
			m.Status = StatusBar{Text: typed.Text}
		}
		m.reload()
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Palette:
		return m.openPalette(), nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case m.Keys.Toggle:
		return m, m.toggleSelected()
	case m.Keys.Delay:
		return m, m.delaySelected()
	case m.Keys.Delete:
		return m, m.deleteSelected()
	case m.Keys.AlertDone:
		return m.respondToAlert(notify.ActionDone)
	case m.Keys.AlertDelay:
		return m.respondToAlert(notify.ActionDelay)
	case m.Keys.AlertDismiss:
		return m.respondToAlert(notify.ActionDefault)
	}
	var cmd tea.Cmd
	m.taskTable, cmd = m.taskTable.Update(msg)
	m.syncSelectionToCursor()
	return m, cmd
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	right := m.renderDetailPane() +
		views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()) +
		m.renderHelpIfVisible()
	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("nudge | window: %s | default delay: %s", m.Settings.Window, m.Settings.DefaultDelay),
		Alerts:     m.renderAlerts(),
		LeftPane:   m.renderTaskPanel(),
		RightPane:  right,
		StatusLine: m.Status.Text,
		IsError:    m.Status.IsError,
		Footer: fmt.Sprintf("keys: j/k move | %s done | %s delay | %s delete | %s cmd | %s help | %s quit",
			m.Keys.Toggle, m.Keys.Delay, m.Keys.Delete, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
	})
}
