// Package update is the bubbletea program: it renders the task list and
// routes keys, palette commands and due notifications to the lifecycle.
package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/sandeepkv93/nudge/internal/lifecycle"
	domainmodel "github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
)

// TaskService is the part of *lifecycle.Service the UI drives.
type TaskService interface {
	Add(ctx context.Context, draft domainmodel.TaskDraft) (lifecycle.Result, error)
	ToggleComplete(ctx context.Context, id string) (lifecycle.Result, error)
	Delay(ctx context.Context, id, amount string) (lifecycle.Result, error)
	Delete(ctx context.Context, id string) (lifecycle.Result, error)
	HandleAction(ctx context.Context, action notify.Action) (lifecycle.Result, error)
	Tasks() []domainmodel.Task
	Settings() domainmodel.Settings
	UpdateSettings(ctx context.Context, fn func(*domainmodel.Settings)) (lifecycle.SettingsResult, error)
}

type Options struct {
	Service TaskService
	// Events carries due notifications, usually from a notify.ChannelPresenter.
	Events <-chan notify.Event
	// Sink receives alert button presses. Without one they go straight to
	// Service.HandleAction.
	Sink     notify.ActionSink
	Location *time.Location
	Now      func() time.Time
	Refresh  time.Duration
	Timeout  time.Duration
}

const (
	defaultRefresh = 5 * time.Second
	defaultTimeout = 5 * time.Second
	maxAlerts      = 5
	previewCount   = 3
)

type StatusBar struct {
	Text    string
	IsError bool
}

type KeyMap struct {
	Toggle       string
	Delay        string
	Delete       string
	Palette      string
	AlertDone    string
	AlertDelay   string
	AlertDismiss string
	Help         string
	Quit         string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// Alert is a notification that fired while the UI was open.
type Alert struct {
	Identifier string
	Content    notify.Content
	Actions    []notify.ActionButton
}

type Model struct {
	Tasks       []domainmodel.Task
	Settings    domainmodel.Settings
	SelectedID  string
	Alerts      []Alert
	Palette     CommandPaletteState
	HelpVisible bool
	Status      StatusBar
	Keys        KeyMap
	Quitting    bool
	LastError   error

	svc     TaskService
	events  <-chan notify.Event
	sink    notify.ActionSink
	loc     *time.Location
	now     func() time.Time
	refresh time.Duration
	timeout time.Duration

	taskTable    table.Model
	commandInput textinput.Model
	helpModel    help.Model
}

type tickMsg time.Time

// RefreshMsg reloads tasks and settings from the service.
type RefreshMsg struct{}

type EventMsg struct {
	Event notify.Event
}

// ResultMsg reports a finished mutation. Warning carries a notification
// failure on an otherwise successful change.
type ResultMsg struct {
	Text    string
	Err     error
	Warning error
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

func NewModel(opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	m := Model{
		Settings: domainmodel.DefaultSettings(),
		Keys: KeyMap{
			Toggle:       "x",
			Delay:        "z",
			Delete:       "d",
			Palette:      "/",
			AlertDone:    "a",
			AlertDelay:   "s",
			AlertDismiss: "esc",
			Help:         "?",
			Quit:         "q",
		},
		svc:     opts.Service,
		events:  opts.Events,
		sink:    opts.Sink,
		loc:     opts.Location,
		now:     opts.Now,
		refresh: opts.Refresh,
		timeout: opts.Timeout,
	}
	m.initBubbleComponents()
	m.reload()
	return m
}

func (m *Model) initBubbleComponents() {
	cols := []table.Column{
		{Title: "#", Width: 3},
		{Title: "When", Width: 16},
		{Title: "Title", Width: 26},
		{Title: "State", Width: 12},
	}
	m.taskTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(12))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "add Call mom in 2h loop 24 follow 10m"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 44

	m.helpModel = help.New()
}
