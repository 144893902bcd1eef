package update

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/nudge/internal/commands"
	"github.com/sandeepkv93/nudge/internal/lifecycle"
	domainmodel "github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

func (m Model) openPalette() Model {
	m.Palette.Active = true
	m.Palette.Input = ""
	m.commandInput.Focus()
	m.commandInput.SetValue("")
	m.Status = StatusBar{Text: "command palette active"}
	return m
}

func (m Model) closePalette() Model {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	return m
}

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

// executePaletteCommand parses the palette input and turns it into a
// service call. Task numbers refer to the rows currently on screen.
func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	parsed, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	svc := m.svc
	var cmd tea.Cmd
	res, err := commands.Execute(parsed, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			draft := domainmodel.TaskDraft{
				Title:              a.Title,
				ReminderAt:         a.ReminderAt(m.now().In(m.loc)),
				Recurring:          a.LoopHours > 0,
				IntervalHours:      a.LoopHours,
				IgnoreWorkingHours: a.Anytime,
				FollowUpAfter:      a.FollowUp,
			}
			cmd = m.mutate("added", func(ctx context.Context) (lifecycle.Result, error) {
				return svc.Add(ctx, draft)
			})
			return commands.Result{Message: "adding " + a.Title}, nil
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := m.taskAt(t.Index)
			if err != nil {
				return commands.Result{}, err
			}
			cmd = m.mutate("toggled", func(ctx context.Context) (lifecycle.Result, error) {
				return svc.ToggleComplete(ctx, task.ID)
			})
			return commands.Result{Message: "toggling " + task.Title}, nil
		},
		Delay: func(d commands.DelayArgs) (commands.Result, error) {
			task, err := m.taskAt(d.Index)
			if err != nil {
				return commands.Result{}, err
			}
			cmd = m.mutate("delayed", func(ctx context.Context) (lifecycle.Result, error) {
				return svc.Delay(ctx, task.ID, d.Amount)
			})
			return commands.Result{Message: "delaying " + task.Title}, nil
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := m.taskAt(t.Index)
			if err != nil {
				return commands.Result{}, err
			}
			cmd = m.mutate("deleted", func(ctx context.Context) (lifecycle.Result, error) {
				return svc.Delete(ctx, task.ID)
			})
			return commands.Result{Message: "deleting " + task.Title}, nil
		},
		Window: func(w commands.WindowArgs) (commands.Result, error) {
			cmd = m.mutateSettings(func(s *domainmodel.Settings) {
				if w.AllDay {
					s.SetTwentyFourHourMode(true)
					return
				}
				s.Window = workinghours.Restricted(w.Start, w.End)
			})
			return commands.Result{Message: "updating working hours"}, nil
		},
		DefaultDelay: func(d commands.DefaultDelayArgs) (commands.Result, error) {
			cmd = m.mutateSettings(func(s *domainmodel.Settings) {
				s.DefaultDelay = d.Amount
			})
			return commands.Result{Message: "updating default delay"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	m.Status = StatusBar{Text: res.Message}
	return m, cmd
}
