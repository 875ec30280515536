package wizard

import (
	"context"
	"log/slog"
	"time"

	"github.com/tbxark/formwizard/store"
	"github.com/tbxark/formwizard/types"
)

// Submitter is the account-provisioning collaborator. It receives the flat
// field map and nothing else.
type Submitter interface {
	Submit(ctx context.Context, fields types.Fields) error
}

type SubmitterFunc func(ctx context.Context, fields types.Fields) error

func (f SubmitterFunc) Submit(ctx context.Context, fields types.Fields) error {
	return f(ctx, fields)
}

// Scheduler runs background work such as dependent-list fetches. The default
// starts a goroutine; hosts with their own event loop can queue the task.
type Scheduler func(task func())

func goScheduler(task func()) { go task() }

type Option func(*Wizard)

func WithStore(s store.SessionStore) Option {
	return func(w *Wizard) {
		if s != nil {
			w.store = s
		}
	}
}

func WithSubmitter(s Submitter) Option {
	return func(w *Wizard) { w.submitter = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		if now != nil {
			w.now = now
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(w *Wizard) {
		if s != nil {
			w.schedule = s
		}
	}
}

// WithOnChange registers a callback fired after background work changed what
// the host should render, e.g. a dependent list finished loading. It runs on
// the goroutine that completed the work.
func WithOnChange(fn func()) Option {
	return func(w *Wizard) { w.onChange = fn }
}
