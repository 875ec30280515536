package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tbxark/formwizard/types"
)

type jobKind int

const (
	jobSave jobKind = iota
	jobClear
)

type job struct {
	kind    jobKind
	ctx     context.Context
	session types.FormSession
}

// WriteBehind moves Save and Clear off the interactive path. Writes run in
// order on one goroutine; a newer write for a key replaces one still queued,
// so only the latest whole-session snapshot reaches the store.
type WriteBehind struct {
	next   SessionStore
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]job
	queue   []string
	busy    bool
	waiters []chan struct{}
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

var _ SessionStore = (*WriteBehind)(nil)

func NewWriteBehind(next SessionStore, logger *slog.Logger) *WriteBehind {
	if logger == nil {
		logger = slog.Default()
	}
	w := &WriteBehind{
		next:    next,
		logger:  logger,
		pending: map[string]job{},
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Load waits for queued writes so it never observes an older record than the
// caller last saved.
func (w *WriteBehind) Load(ctx context.Context, formKey string) types.FormSession {
	if err := w.Flush(ctx); err != nil {
		w.logger.Warn("Flush before load interrupted", "form_key", formKey, "error", err)
	}
	return w.next.Load(ctx, formKey)
}

func (w *WriteBehind) Save(ctx context.Context, formKey string, session types.FormSession) {
	w.enqueue(formKey, job{kind: jobSave, ctx: context.WithoutCancel(ctx), session: session.Clone()})
}

func (w *WriteBehind) Clear(ctx context.Context, formKey string) {
	w.enqueue(formKey, job{kind: jobClear, ctx: context.WithoutCancel(ctx)})
}

func (w *WriteBehind) enqueue(formKey string, j job) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.exec(formKey, j)
		return
	}
	if _, queued := w.pending[formKey]; !queued {
		w.queue = append(w.queue, formKey)
	}
	w.pending[formKey] = j
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every write queued before the call has been applied.
func (w *WriteBehind) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.queue) == 0 && !w.busy {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the worker. Later writes run inline.
func (w *WriteBehind) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	close(w.stop)
	<-w.done
	return nil
}

func (w *WriteBehind) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *WriteBehind) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.busy = false
			waiters := w.waiters
			w.waiters = nil
			w.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		key := w.queue[0]
		w.queue = w.queue[1:]
		j := w.pending[key]
		delete(w.pending, key)
		w.busy = true
		w.mu.Unlock()

		w.exec(key, j)
	}
}

func (w *WriteBehind) exec(formKey string, j job) {
	switch j.kind {
	case jobSave:
		w.next.Save(j.ctx, formKey, j.session)
	case jobClear:
		w.next.Clear(j.ctx, formKey)
	}
}
