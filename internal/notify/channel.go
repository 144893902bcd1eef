package notify

import (
	"context"
	"errors"
	"sync"
)

// Event is what a ChannelPresenter emits: a presentation, or a withdrawal
// of Identifier.
type Event struct {
	Presentation Presentation
	Withdrawn    bool
	Identifier   string
}

// ChannelPresenter forwards notifications to an in-process consumer such as
// the terminal UI. Sends never block; a full buffer drops the event.
type ChannelPresenter struct {
	out chan Event

	mu      sync.Mutex
	dropped uint64
}

var ErrPresenterFull = errors.New("notify: presenter buffer full")

func NewChannelPresenter(buffer int) *ChannelPresenter {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelPresenter{out: make(chan Event, buffer)}
}

func (p *ChannelPresenter) C() <-chan Event {
	return p.out
}

func (p *ChannelPresenter) Present(_ context.Context, n Presentation) error {
	return p.send(Event{Presentation: n, Identifier: n.Request.Identifier})
}

func (p *ChannelPresenter) Dismiss(_ context.Context, identifier string) error {
	return p.send(Event{Withdrawn: true, Identifier: identifier})
}

func (p *ChannelPresenter) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

func (p *ChannelPresenter) send(ev Event) error {
	select {
	case p.out <- ev:
		return nil
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		return ErrPresenterFull
	}
}

// MultiPresenter fans out to several presenters. It fails only when every
// presenter fails.
type MultiPresenter []Presenter

func (m MultiPresenter) Present(ctx context.Context, n Presentation) error {
	return m.each(func(p Presenter) error { return p.Present(ctx, n) })
}

func (m MultiPresenter) Dismiss(ctx context.Context, identifier string) error {
	return m.each(func(p Presenter) error { return p.Dismiss(ctx, identifier) })
}

func (m MultiPresenter) each(fn func(Presenter) error) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == m.count() {
		return errors.Join(errs...)
	}
	return nil
}

func (m MultiPresenter) count() int {
	n := 0
	for _, p := range m {
		if p != nil {
			n++
		}
	}
	return n
}
