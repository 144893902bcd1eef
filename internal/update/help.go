package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/nudge/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	var plain []string
	for _, kb := range m.bindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	plain = append(plain,
		"palette:",
		"  add <title> [in 2h | at 18:30] [loop 24] [follow 10m] [anytime]",
		"  done N | delay N [1h30m] | delete N",
		"  window 09:00-17:00 | window allday | default-delay 45m",
	)
	bindings := m.helpBindings()
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{short: bindings, full: [][]key.Binding{bindings}}),
	})
}

func (m Model) bindings() []KeyBinding {
	return []KeyBinding{
		{Key: "j/k", Action: "move selection"},
		{Key: m.Keys.Toggle, Action: "toggle complete"},
		{Key: m.Keys.Delay, Action: "delay by default delay"},
		{Key: m.Keys.Delete, Action: "delete task"},
		{Key: m.Keys.AlertDone, Action: "mark alerted task done"},
		{Key: m.Keys.AlertDelay, Action: "delay alerted task"},
		{Key: m.Keys.AlertDismiss, Action: "dismiss alert"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.bindings()))
	for _, kb := range m.bindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
