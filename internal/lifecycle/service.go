// Package lifecycle owns the task collection: every state transition goes
// through Service, which persists it and then brings the pending
// notifications in line with the new state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/nudge/internal/delay"
	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/storage"
)

// Scheduler is the notification side of a transition. *reminder.Scheduler
// implements it.
type Scheduler interface {
	Schedule(ctx context.Context, task model.Task, settings model.Settings) error
	Cancel(ctx context.Context, taskID string) error
	CancelIdentifier(ctx context.Context, identifier string) error
	Dismiss(ctx context.Context, taskID string) error
	DismissIdentifier(ctx context.Context, identifier string) error
	Retire(ctx context.Context, taskID string) error
	RegisterCategory(ctx context.Context, settings model.Settings) error
}

type Options struct {
	Now    func() time.Time
	NewID  func() string
	Logger *slog.Logger

	// Defaults is used until settings have been saved once.
	Defaults model.Settings
}

// Result is the outcome of a successful transition. Scheduling holds any
// notification failure; the transition itself is durable regardless.
type Result struct {
	Task       model.Task
	Scheduling error
}

type SettingsResult struct {
	Settings   model.Settings
	Scheduling error
}

type Service struct {
	repo  storage.Repository
	sched Scheduler
	now   func() time.Time
	newID func() string
	log   *slog.Logger

	defaults   model.Settings
	locks      *keyedMutex
	settingsMu sync.Mutex

	mu       sync.RWMutex
	tasks    map[string]model.Task
	settings model.Settings
}

func New(repo storage.Repository, sched Scheduler, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Defaults == (model.Settings{}) {
		opts.Defaults = model.DefaultSettings()
	}
	return &Service{
		repo:     repo,
		sched:    sched,
		now:      opts.Now,
		newID:    opts.NewID,
		log:      opts.Logger.With("component", "lifecycle"),
		locks:    newKeyedMutex(),
		tasks:    make(map[string]model.Task),
		settings: opts.Defaults,
		defaults: opts.Defaults,
	}
}

// Load reads settings and tasks from the repository and reschedules every
// active task, so notifications survive a restart.
func (s *Service) Load(ctx context.Context) error {
	settings, ok, err := s.repo.GetSettings(ctx)
	if err != nil {
		return &PersistenceError{Op: "load settings", Err: err}
	}
	if !ok {
		settings = s.defaults
	}
	tasks, err := s.repo.ListTasks(ctx, storage.TaskListFilter{})
	if err != nil {
		return &PersistenceError{Op: "load tasks", Err: err}
	}

	s.mu.Lock()
	s.settings = settings
	s.tasks = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	s.mu.Unlock()

	if err := s.sched.RegisterCategory(ctx, settings); err != nil {
		s.log.Warn("register category failed", "err", err)
	}
	if err := s.Resync(ctx); err != nil {
		s.log.Warn("resync after load incomplete", "err", err)
	}
	s.log.Info("tasks loaded", "count", len(tasks), "window", settings.Window.String())
	return nil
}

// Resync reschedules every active task against the current settings.
func (s *Service) Resync(ctx context.Context) error {
	var errs []error
	for _, t := range s.Tasks() {
		if !t.IsActive() {
			continue
		}
		if err := s.resyncOne(ctx, t.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) resyncOne(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	task, ok := s.get(id)
	if !ok || !task.IsActive() {
		return nil
	}
	return s.sched.Schedule(ctx, task, s.Settings())
}

func (s *Service) Add(ctx context.Context, draft model.TaskDraft) (Result, error) {
	task, err := draft.Build(s.newID(), s.now())
	if err != nil {
		return Result{}, err
	}
	unlock := s.locks.Lock(task.ID)
	defer unlock()

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return Result{}, &PersistenceError{Op: "add", TaskID: task.ID, Err: err}
	}
	s.put(task)
	s.log.Info("task added", "task_id", task.ID, "reminder_at", task.ReminderAt, "recurring", task.IsRecurring())
	return Result{Task: task.Clone(), Scheduling: s.sched.Schedule(ctx, task, s.Settings())}, nil
}

// Update merges patch into the task. A non-empty patch always reschedules:
// every editable field shows up in the notification.
func (s *Service) Update(ctx context.Context, id string, patch model.TaskPatch) (Result, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, ok := s.get(id)
	if !ok {
		return Result{}, notFound(id)
	}
	if patch.IsEmpty() {
		return Result{Task: current}, nil
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return Result{}, err
	}
	if err := s.persist(ctx, "update", updated); err != nil {
		return Result{}, err
	}
	s.log.Info("task updated", "task_id", id, "reminder_changed", patch.ChangesReminder())
	return Result{Task: updated.Clone(), Scheduling: s.sched.Schedule(ctx, updated, s.Settings())}, nil
}

func (s *Service) ToggleComplete(ctx context.Context, id string) (Result, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.toggleLocked(ctx, id)
}

func (s *Service) toggleLocked(ctx context.Context, id string) (Result, error) {
	current, ok := s.get(id)
	if !ok {
		return Result{}, notFound(id)
	}
	now := s.now()
	next := current.Clone()

	if current.IsRecurring() {
		reminderAt, err := current.Recurrence.NextAfter(now)
		if err != nil {
			return Result{}, err
		}
		next.CompletionCount++
		next.LastCompletedAt = &now
		next.ReminderAt = reminderAt
		next.DelayCount = 0
		next.OriginalReminderAt = nil
		next.Completed = false
		if err := s.persist(ctx, "complete", next); err != nil {
			return Result{}, err
		}
		schedErr := errors.Join(
			s.sched.Schedule(ctx, next, s.Settings()),
			s.sched.Dismiss(ctx, id),
		)
		s.log.Info("recurring task completed", "task_id", id, "completion_count", next.CompletionCount, "next_at", reminderAt)
		return Result{Task: next.Clone(), Scheduling: schedErr}, nil
	}

	next.Completed = !current.Completed
	if err := s.persist(ctx, "toggle", next); err != nil {
		return Result{}, err
	}
	var schedErr error
	if next.Completed {
		schedErr = s.sched.Retire(ctx, id)
	} else {
		schedErr = s.sched.Schedule(ctx, next, s.Settings())
	}
	s.log.Info("task toggled", "task_id", id, "completed", next.Completed)
	return Result{Task: next.Clone(), Scheduling: schedErr}, nil
}

// Delay pushes the reminder back by amount, or by the default delay when
// amount is empty. Unparseable amounts fall back to delay.Default.
func (s *Service) Delay(ctx context.Context, id, amount string) (Result, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.delayLocked(ctx, id, amount)
}

func (s *Service) delayLocked(ctx context.Context, id, amount string) (Result, error) {
	current, ok := s.get(id)
	if !ok {
		return Result{}, notFound(id)
	}
	if amount == "" {
		amount = s.Settings().DefaultDelay
	}
	by := delay.Parse(amount)

	next := current.Clone()
	if next.OriginalReminderAt == nil {
		original := current.ReminderAt
		next.OriginalReminderAt = &original
	}
	next.DelayCount++
	next.ReminderAt = current.ReminderAt.Add(by)
	if err := s.persist(ctx, "delay", next); err != nil {
		return Result{}, err
	}
	s.log.Info("task delayed", "task_id", id, "by", delay.Format(by), "delay_count", next.DelayCount)
	return Result{Task: next.Clone(), Scheduling: s.sched.Schedule(ctx, next, s.Settings())}, nil
}

// Delete retires both notifications and removes the task. When the
// repository refuses, the notifications are restored.
func (s *Service) Delete(ctx context.Context, id string) (Result, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, ok := s.get(id)
	if !ok {
		return Result{}, notFound(id)
	}
	schedErr := s.sched.Retire(ctx, id)
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.drop(id)
			return Result{}, fmt.Errorf("%w: %w", ErrTaskNotFound, err)
		}
		if current.IsActive() {
			if rerr := s.sched.Schedule(ctx, current, s.Settings()); rerr != nil {
				s.log.Warn("restore notifications after failed delete", "task_id", id, "err", rerr)
			}
		}
		return Result{}, &PersistenceError{Op: "delete", TaskID: id, Err: err}
	}
	s.drop(id)
	s.log.Info("task deleted", "task_id", id)
	return Result{Task: current, Scheduling: schedErr}, nil
}

// HandleAction applies a notification button press. The sibling
// notification is withdrawn first so nothing stale fires later.
func (s *Service) HandleAction(ctx context.Context, action notify.Action) (Result, error) {
	id := action.TaskID()
	if id == "" {
		return Result{}, notFound(id)
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	sibling := notify.FollowUpIdentifier(id)
	if action.IsFollowUp() {
		sibling = id
	}
	schedErr := errors.Join(
		s.sched.CancelIdentifier(ctx, sibling),
		s.sched.DismissIdentifier(ctx, sibling),
	)

	current, ok := s.get(id)
	if !ok {
		return Result{Scheduling: schedErr}, notFound(id)
	}

	var (
		res Result
		err error
	)
	switch action.ActionID {
	case notify.ActionDone:
		if current.Completed && !current.IsRecurring() {
			s.log.Debug("done ignored for completed task", "task_id", id)
			return Result{Task: current, Scheduling: schedErr}, nil
		}
		res, err = s.toggleLocked(ctx, id)
	case notify.ActionDelay:
		res, err = s.delayLocked(ctx, id, "")
		if err == nil && action.Identifier != "" {
			res.Scheduling = errors.Join(res.Scheduling, s.sched.DismissIdentifier(ctx, action.Identifier))
		}
	default:
		return Result{Task: current, Scheduling: schedErr}, nil
	}
	if err != nil {
		return Result{Scheduling: schedErr}, err
	}
	res.Scheduling = errors.Join(schedErr, res.Scheduling)
	return res, nil
}

// Listen feeds actions into HandleAction until ctx ends or actions closes.
func (s *Service) Listen(ctx context.Context, actions <-chan notify.Action) {
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-actions:
			if !ok {
				return
			}
			res, err := s.HandleAction(ctx, a)
			if err != nil {
				s.log.Warn("handle action failed", "identifier", a.Identifier, "action", a.ActionID, "err", err)
				continue
			}
			if res.Scheduling != nil {
				s.log.Warn("handle action scheduling incomplete", "identifier", a.Identifier, "err", res.Scheduling)
			}
		}
	}
}

// Tasks returns a snapshot ordered by reminder time.
func (s *Service) Tasks() []model.Task {
	s.mu.RLock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReminderAt.Equal(out[j].ReminderAt) {
			return out[i].ReminderAt.Before(out[j].ReminderAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) Task(id string) (model.Task, bool) {
	return s.get(id)
}

func (s *Service) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings applies fn to a copy of the settings. The new value is
// visible immediately and rolled back if it cannot be saved. A window
// change reschedules every active task; a default delay change relabels
// the Delay button.
func (s *Service) UpdateSettings(ctx context.Context, fn func(*model.Settings)) (SettingsResult, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	prev := s.Settings()
	next := prev
	fn(&next)
	if err := next.Validate(); err != nil {
		return SettingsResult{Settings: prev}, err
	}
	if next == prev {
		return SettingsResult{Settings: prev}, nil
	}

	s.setSettings(next)
	if err := s.repo.SaveSettings(ctx, next); err != nil {
		s.setSettings(prev)
		return SettingsResult{Settings: prev}, &PersistenceError{Op: "update settings", Err: err}
	}

	var errs []error
	if next.DefaultDelay != prev.DefaultDelay {
		errs = append(errs, s.sched.RegisterCategory(ctx, next))
	}
	if next.Window != prev.Window {
		errs = append(errs, s.Resync(ctx))
	}
	s.log.Info("settings updated", "window", next.Window.String(), "default_delay", next.DefaultDelay)
	return SettingsResult{Settings: next, Scheduling: errors.Join(errs...)}, nil
}

func (s *Service) persist(ctx context.Context, op string, task model.Task) error {
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.drop(task.ID)
			return fmt.Errorf("%w: %w", ErrTaskNotFound, err)
		}
		return &PersistenceError{Op: op, TaskID: task.ID, Err: err}
	}
	s.put(task)
	return nil
}

func (s *Service) get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	return t.Clone(), true
}

func (s *Service) put(t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
}

func (s *Service) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

func (s *Service) setSettings(v model.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = v
}
