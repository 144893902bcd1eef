// Package notifytest provides an in-memory notify.Service for tests.
package notifytest

import (
	"context"
	"sort"
	"sync"

	"github.com/sandeepkv93/nudge/internal/notify"
)

type Call struct {
	Method     string
	Identifier string
	Request    notify.Request
}

// Recorder records every call and keeps the set of pending requests. Set the
// *Err fields to make the matching method fail.
type Recorder struct {
	mu         sync.Mutex
	calls      []Call
	pending    map[string]notify.Request
	presented  map[string]bool
	categories map[string]notify.Category
	actions    chan notify.Action

	ScheduleErr error
	CancelErr   error
	DismissErr  error
	CategoryErr error
}

func NewRecorder() *Recorder {
	return &Recorder{
		pending:    make(map[string]notify.Request),
		presented:  make(map[string]bool),
		categories: make(map[string]notify.Category),
		actions:    make(chan notify.Action, 16),
	}
}

func (r *Recorder) Schedule(_ context.Context, req notify.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "Schedule", Identifier: req.Identifier, Request: req})
	if r.ScheduleErr != nil {
		return r.ScheduleErr
	}
	if err := req.Validate(); err != nil {
		return err
	}
	r.pending[req.Identifier] = req
	return nil
}

func (r *Recorder) Cancel(_ context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "Cancel", Identifier: identifier})
	if r.CancelErr != nil {
		return r.CancelErr
	}
	delete(r.pending, identifier)
	return nil
}

func (r *Recorder) DismissPresented(_ context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "DismissPresented", Identifier: identifier})
	if r.DismissErr != nil {
		return r.DismissErr
	}
	delete(r.presented, identifier)
	return nil
}

func (r *Recorder) RegisterCategory(_ context.Context, category notify.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Method: "RegisterCategory", Identifier: category.ID})
	if r.CategoryErr != nil {
		return r.CategoryErr
	}
	r.categories[category.ID] = category
	return nil
}

func (r *Recorder) Actions() <-chan notify.Action {
	return r.actions
}

// Deliver queues an action as if the user pressed a button.
func (r *Recorder) Deliver(a notify.Action) bool {
	r.actions <- a
	return true
}

// Present marks identifier as shown, as a real service would when it fires.
func (r *Recorder) Present(identifier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, identifier)
	r.presented[identifier] = true
}

func (r *Recorder) Pending(identifier string) (notify.Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.pending[identifier]
	return req, ok
}

func (r *Recorder) PendingIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.pending))
	for id := range r.pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Recorder) IsPresented(identifier string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presented[identifier]
}

func (r *Recorder) Category(id string) (notify.Category, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	return c, ok
}

func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsFor returns the methods called for identifier, in order.
func (r *Recorder) CallsFor(identifier string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0)
	for _, c := range r.calls {
		if c.Identifier == identifier {
			out = append(out, c.Method)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

var _ notify.Service = (*Recorder)(nil)
