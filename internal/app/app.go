// Package app assembles the storage, notification and lifecycle layers into
// one running process, shared by the server and the terminal UI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/nudge/internal/config"
	"github.com/sandeepkv93/nudge/internal/lifecycle"
	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/reminder"
	"github.com/sandeepkv93/nudge/internal/storage"
)

type Options struct {
	// Terminal adds a ChannelPresenter so an attached UI sees due reminders.
	Terminal bool
}

type App struct {
	Config   config.Config
	Location *time.Location
	Log      *slog.Logger

	Repo     storage.Repository
	Notify   *notify.LocalService
	Tasks    *lifecycle.Service
	Terminal *notify.ChannelPresenter
	Telegram *notify.TelegramPresenter

	cron   *cron.Cron
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	seed, err := cfg.SeedSettings()
	if err != nil {
		return nil, err
	}

	repo, err := storage.Open(cfg.Database.Driver, cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	a := &App{Config: cfg, Location: loc, Log: log, Repo: repo}

	var presenters notify.MultiPresenter
	if cfg.Notifications.Desktop {
		presenters = append(presenters, notify.NewDesktopPresenter())
	}
	if opts.Terminal {
		a.Terminal = notify.NewChannelPresenter(cfg.Notifications.EngineBuffer)
		presenters = append(presenters, a.Terminal)
	}
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		a.Telegram, err = notify.NewTelegramPresenter(tg.Token, tg.ChatID, log)
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		presenters = append(presenters, a.Telegram)
	}
	if len(presenters) == 0 {
		log.Warn("no notification presenter enabled; reminders will only be logged")
		presenters = append(presenters, notify.NoopPresenter{})
	}

	a.Notify = notify.NewLocalService(presenters, notify.LocalOptions{
		EngineBuffer: cfg.Notifications.EngineBuffer,
		Logger:       log,
	})
	sched := reminder.New(a.Notify, reminder.Options{Location: loc, Logger: log})
	a.Tasks = lifecycle.New(repo, sched, lifecycle.Options{Logger: log, Defaults: seed})
	return a, nil
}

// Start loads the stored tasks, reschedules them and runs the background
// loops: notification delivery, action handling, telegram polling and the
// periodic resync.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	a.Notify.Start(ctx)
	if err := a.Tasks.Load(ctx); err != nil {
		return err
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Tasks.Listen(ctx, a.Notify.Actions())
	}()

	if a.Telegram != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.Telegram.Listen(ctx, a.Notify)
		}()
	}

	if spec := a.Config.Resync.Spec; spec != "" {
		a.cron = cron.New(
			cron.WithLocation(a.Location),
			cron.WithLogger(cron.PrintfLogger(slog.NewLogLogger(a.Log.Handler(), slog.LevelDebug))),
		)
		if _, err := a.cron.AddFunc(spec, func() { a.resync(ctx) }); err != nil {
			return fmt.Errorf("resync spec %q: %w", spec, err)
		}
		a.cron.Start()
	}
	return nil
}

func (a *App) resync(ctx context.Context) {
	if err := a.Tasks.Resync(ctx); err != nil {
		a.Log.Warn("periodic resync incomplete", "err", err)
		return
	}
	a.Log.Debug("periodic resync done")
}

// Close stops the background loops and releases storage. It is safe to call
// after a failed Start.
func (a *App) Close() error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.Notify.Stop()
	a.wg.Wait()
	return a.Repo.Close()
}
