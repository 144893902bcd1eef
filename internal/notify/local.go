package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

type LocalOptions struct {
	EngineBuffer int
	ActionBuffer int
	Logger       *slog.Logger
}

// LocalService is an in-process Service. Pending requests live in an Engine;
// due ones are handed to a Presenter, and presenters report user actions back
// through Deliver.
type LocalService struct {
	engine    *Engine
	presenter Presenter
	log       *slog.Logger

	mu         sync.Mutex
	categories map[string]Category
	presented  map[string]Request
	// armed holds the latest request scheduled per identifier until it is
	// presented or cancelled. presenting holds requests handed to the
	// presenter; dismissing one of those withdraws it once Present returns.
	armed      map[string]Request
	presenting map[string]Request

	started  bool
	actions  chan Action
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewLocalService(presenter Presenter, opts LocalOptions) *LocalService {
	if presenter == nil {
		presenter = NoopPresenter{}
	}
	if opts.ActionBuffer <= 0 {
		opts.ActionBuffer = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LocalService{
		engine:     NewEngine(opts.EngineBuffer),
		presenter:  presenter,
		log:        opts.Logger.With("component", "notify"),
		categories: make(map[string]Category),
		presented:  make(map[string]Request),
		armed:      make(map[string]Request),
		presenting: make(map[string]Request),
		actions:    make(chan Action, opts.ActionBuffer),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs the engine and the presentation loop until Stop or ctx ends.
func (s *LocalService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.engine.Start()
	go s.run(ctx)
}

func (s *LocalService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.engine.Stop()
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.doneCh
	}
}

func (s *LocalService) run(ctx context.Context) {
	defer close(s.doneCh)
	for {
		select {
		case req, ok := <-s.engine.C():
			if !ok {
				return
			}
			s.present(ctx, req)
		case <-ctx.Done():
			s.stopOnce.Do(func() { close(s.stopCh) })
			s.engine.Stop()
			return
		}
	}
}

func (s *LocalService) present(ctx context.Context, req Request) {
	s.mu.Lock()
	latest, armed := s.armed[req.Identifier]
	if !armed || !sameRequest(latest, req) {
		s.mu.Unlock()
		s.log.Debug("stale notification dropped", "identifier", req.Identifier)
		return
	}
	if _, superseded := s.engine.Pending(req.Identifier); superseded {
		s.mu.Unlock()
		return
	}
	delete(s.armed, req.Identifier)
	s.presenting[req.Identifier] = req
	buttons := append([]ActionButton(nil), s.categories[req.Content.CategoryID].Actions...)
	s.mu.Unlock()

	err := s.presenter.Present(ctx, Presentation{Request: req, Actions: buttons})

	s.mu.Lock()
	_, still := s.presenting[req.Identifier]
	delete(s.presenting, req.Identifier)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("present notification failed", "identifier", req.Identifier, "err", err)
		return
	}
	if !still {
		s.mu.Unlock()
		if err := s.presenter.Dismiss(ctx, req.Identifier); err != nil {
			s.log.Warn("withdraw dismissed notification failed", "identifier", req.Identifier, "err", err)
		}
		return
	}
	s.presented[req.Identifier] = req
	s.mu.Unlock()
	s.log.Debug("notification presented", "identifier", req.Identifier, "task_id", req.Content.Payload.TaskID)
}

// Schedule arms req. A request identical to the one already on screen is
// not armed again, so a periodic resync does not repeat a notification the
// user has not answered yet.
func (s *LocalService) Schedule(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if shown, ok := s.presented[req.Identifier]; ok && sameRequest(shown, req) {
		return nil
	}
	if shown, ok := s.presenting[req.Identifier]; ok && sameRequest(shown, req) {
		return nil
	}
	if err := s.engine.Schedule(req); err != nil {
		return err
	}
	s.armed[req.Identifier] = req
	s.log.Debug("notification scheduled", "identifier", req.Identifier, "trigger_at", req.TriggerAt)
	return nil
}

func (s *LocalService) Cancel(_ context.Context, identifier string) error {
	s.mu.Lock()
	cancelled := s.engine.Cancel(identifier)
	delete(s.armed, identifier)
	s.mu.Unlock()
	if cancelled {
		s.log.Debug("notification cancelled", "identifier", identifier)
	}
	return nil
}

func (s *LocalService) DismissPresented(ctx context.Context, identifier string) error {
	s.mu.Lock()
	_, ok := s.presented[identifier]
	delete(s.presented, identifier)
	delete(s.presenting, identifier)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.presenter.Dismiss(ctx, identifier)
}

func sameRequest(a, b Request) bool {
	return a.TriggerAt.Equal(b.TriggerAt) && a.Content == b.Content
}

func (s *LocalService) RegisterCategory(_ context.Context, category Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category.Actions = append([]ActionButton(nil), category.Actions...)
	s.categories[category.ID] = category
	return nil
}

func (s *LocalService) Actions() <-chan Action {
	return s.actions
}

// Deliver queues a user action. It returns false once the service stopped.
func (s *LocalService) Deliver(a Action) bool {
	select {
	case <-s.stopCh:
		return false
	default:
	}
	select {
	case s.actions <- a:
		return true
	case <-s.stopCh:
		return false
	}
}

func (s *LocalService) Pending(identifier string) (Request, bool) {
	return s.engine.Pending(identifier)
}

// Presented lists the identifiers currently on screen, sorted.
func (s *LocalService) Presented() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.presented))
	for id := range s.presented {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *LocalService) Category(id string) (Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok
}

func (s *LocalService) Dropped() uint64 {
	return s.engine.Dropped()
}

type NoopPresenter struct{}

func (NoopPresenter) Present(context.Context, Presentation) error { return nil }
func (NoopPresenter) Dismiss(context.Context, string) error        { return nil }
