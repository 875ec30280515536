package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tbxark/formwizard/store"
	"github.com/tbxark/formwizard/types"
)

// ErrStale marks a result that arrived after its parent was replaced.
var ErrStale = errors.New("stale resolution discarded")

const DefaultTimeout = 8 * time.Second

type Option func(*Resolver)

// WithRootList makes an empty parent a valid key, for top-level lists such as
// countries that depend on nothing.
func WithRootList() Option {
	return func(r *Resolver) { r.requireParent = false }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCache keeps ready lists per parent so switching back to a parent does
// not hit the network again.
func WithCache(c store.Cache[[]types.Option]) Option {
	return func(r *Resolver) { r.cache = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver owns one DependentList. Resolve and Apply may be called from
// different goroutines; only the result tagged with the latest request is
// ever applied.
type Resolver struct {
	name          string
	fetch         Fetcher
	requireParent bool
	timeout       time.Duration
	cache         store.Cache[[]types.Option]
	logger        *slog.Logger

	seq     atomic.Uint64
	mu      sync.Mutex
	list    DependentList
	current Request
}

func New(name string, fetch Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		name:          name,
		fetch:         fetch,
		requireParent: true,
		timeout:       DefaultTimeout,
		logger:        slog.Default(),
		list:          DependentList{Status: types.ListIdle},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Resolver) Name() string { return r.name }

func (r *Resolver) List() DependentList {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.list
	out.Options = append([]types.Option(nil), r.list.Options...)
	return out
}

func (r *Resolver) Current() Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resolve switches the list to parent. It never blocks: the list becomes
// loading (or idle for an empty parent, or ready from cache) and the returned
// request must be fetched when the bool is true. Every call invalidates all
// earlier requests.
func (r *Resolver) Resolve(ctx context.Context, parent string) (Request, bool) {
	parent = strings.TrimSpace(parent)
	tag := r.seq.Add(1)
	req := Request{Tag: tag, Parent: parent}

	if parent == "" && r.requireParent {
		r.mu.Lock()
		r.current = req
		r.list = DependentList{Status: types.ListIdle}
		r.mu.Unlock()
		return req, false
	}

	if opts, ok := r.cached(ctx, parent); ok {
		r.mu.Lock()
		r.current = req
		r.list = DependentList{Parent: parent, Status: types.ListReady, Options: opts}
		r.mu.Unlock()
		return req, false
	}

	r.mu.Lock()
	r.current = req
	r.list = DependentList{Parent: parent, Status: types.ListLoading}
	r.mu.Unlock()
	r.logger.Debug("Resolving dependent list", "list", r.name, "parent", parent, "tag", tag)
	return req, true
}

// Fetch performs the remote call for req. It blocks and must run off the
// interactive path.
func (r *Resolver) Fetch(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	opts, err := r.fetch(ctx, req.Parent)
	if err != nil {
		return Result{Request: req, Err: &types.ResolutionError{Parent: req.Parent, Err: err}}
	}
	return Result{Request: req, Options: opts}
}

// Apply installs res if it still answers the current request and reports
// whether it did. Stale results are dropped silently.
func (r *Resolver) Apply(ctx context.Context, res Result) bool {
	r.mu.Lock()
	if res.Tag != r.current.Tag || res.Parent != r.current.Parent {
		r.mu.Unlock()
		r.logger.Debug("Discarding stale resolution", "list", r.name, "parent", res.Parent, "tag", res.Tag, "error", ErrStale)
		return false
	}
	switch {
	case res.Err != nil:
		r.list = DependentList{Parent: res.Parent, Status: types.ListError, Err: res.Err}
	case len(res.Options) == 0:
		r.list = DependentList{Parent: res.Parent, Status: types.ListEmpty}
	default:
		r.list = DependentList{Parent: res.Parent, Status: types.ListReady, Options: append([]types.Option(nil), res.Options...)}
	}
	status := r.list.Status
	r.mu.Unlock()

	if res.Err != nil {
		r.logger.Warn("Dependent list unavailable, offering manual entry", "list", r.name, "parent", res.Parent, "error", res.Err)
	}
	if status == types.ListReady && r.cache != nil {
		if err := r.cache.Set(ctx, res.Parent, res.Options); err != nil {
			r.logger.Debug("Caching dependent list failed", "list", r.name, "error", err)
		}
	}
	return true
}

// ResolveAsync is Resolve followed by Fetch on a new goroutine; done receives
// the result and whether it was applied.
func (r *Resolver) ResolveAsync(ctx context.Context, parent string, done func(Result, bool)) {
	req, needsFetch := r.Resolve(ctx, parent)
	if !needsFetch {
		if done != nil {
			done(Result{Request: req, Options: r.List().Options}, true)
		}
		return
	}
	go func() {
		res := r.Fetch(ctx, req)
		applied := r.Apply(ctx, res)
		if done != nil {
			done(res, applied)
		}
	}()
}

func (r *Resolver) cached(ctx context.Context, parent string) ([]types.Option, bool) {
	if r.cache == nil {
		return nil, false
	}
	opts, ok, err := r.cache.Get(ctx, parent)
	if err != nil || !ok || len(opts) == 0 {
		return nil, false
	}
	return append([]types.Option(nil), opts...), true
}
