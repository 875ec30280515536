package formwizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tbxark/formwizard/codeinput"
	"github.com/tbxark/formwizard/config"
	"github.com/tbxark/formwizard/onboarding"
	"github.com/tbxark/formwizard/resolver"
	"github.com/tbxark/formwizard/store"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/visibility"
	"github.com/tbxark/formwizard/wizard"
)

type options struct {
	logger    *slog.Logger
	provider  resolver.Provider
	now       func() time.Time
	scheduler wizard.Scheduler
	onChange  func()
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithProvider replaces the reference-data source, which otherwise comes
// from resolver.data or the bundled list.
func WithProvider(p resolver.Provider) Option {
	return func(o *options) { o.provider = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithScheduler(s wizard.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// Onboarding is a ready-to-mount onboarding wizard with its storage.
type Onboarding struct {
	Config   config.Config
	Wizard   *wizard.Wizard
	Provider resolver.Provider

	closers []func() error
}

// NewOnboarding assembles the onboarding wizard described by cfg. The caller
// must Mount the wizard and Close the result.
func NewOnboarding(cfg config.Config, submitter wizard.Submitter, opts ...Option) (*Onboarding, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	provider, err := loadProvider(cfg.Resolver, o.provider)
	if err != nil {
		return nil, err
	}

	engine, err := onboarding.NewEngine(onboarding.Options{
		MinAge:         cfg.Wizard.MinAge,
		PhoneMinDigits: cfg.Wizard.PhoneMinDigits,
		Now:            o.now,
	}, visibility.New(visibility.WithLogger(o.logger)))
	if err != nil {
		return nil, err
	}

	ob := &Onboarding{Config: cfg, Provider: provider}
	sessions, err := ob.openStore(cfg.Store, onboarding.Schema(engine), o)
	if err != nil {
		return nil, err
	}

	def := onboarding.Definition(cfg.Wizard.FormKey, engine, provider,
		resolver.WithTimeout(cfg.Resolver.Timeout),
		resolver.WithCache(store.NewMemoryCache[[]types.Option]()),
		resolver.WithLogger(o.logger),
	)
	w, err := wizard.New(def,
		wizard.WithStore(sessions),
		wizard.WithSubmitter(submitter),
		wizard.WithLogger(o.logger),
		wizard.WithClock(o.now),
		wizard.WithScheduler(o.scheduler),
		wizard.WithOnChange(o.onChange),
	)
	if err != nil {
		_ = ob.Close()
		return nil, err
	}
	ob.Wizard = w
	return ob, nil
}

func loadProvider(cfg config.ResolverConfig, override resolver.Provider) (resolver.Provider, error) {
	if override != nil {
		return override, nil
	}
	if cfg.Data != "" {
		p, err := resolver.LoadStaticProvider(cfg.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to load reference data: %w", err)
		}
		return p, nil
	}
	p, err := onboarding.DefaultProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to load bundled reference data: %w", err)
	}
	return p, nil
}

func (ob *Onboarding) openStore(cfg config.StoreConfig, schema store.FormSchema, o options) (store.SessionStore, error) {
	var core store.Cache[[]byte]
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := store.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open form store: %w", err)
		}
		ob.closers = append(ob.closers, db.Close)
		core = db
	default:
		core = store.NewMemoryCache[[]byte]()
	}

	var sessions store.SessionStore = store.NewFormStore(core, cfg.Namespace, schema,
		store.WithLogger(o.logger),
		store.WithClock(o.now),
	)
	if cfg.WriteBehind {
		wb := store.NewWriteBehind(sessions, o.logger)
		ob.closers = append([]func() error{wb.Close}, ob.closers...)
		sessions = wb
	}
	return sessions, nil
}

// NewCodeInput returns a verification-code control of the configured length.
func (ob *Onboarding) NewCodeInput(onComplete codeinput.CompleteFunc) *codeinput.Input {
	return codeinput.New(ob.Config.Code.Length, onComplete)
}

// Close flushes pending writes and releases the store.
func (ob *Onboarding) Close() error {
	var errs []error
	for _, closeFn := range ob.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	ob.closers = nil
	return errors.Join(errs...)
}

// LogSubmitter is a Submitter for hosts without a provisioning backend: it
// logs the collected field names at Info and accepts the submission.
func LogSubmitter(logger *slog.Logger) wizard.Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return wizard.SubmitterFunc(func(ctx context.Context, fields types.Fields) error {
		logger.InfoContext(ctx, "Account submitted", "fields", len(fields), "email", fields.String(onboarding.FieldEmail))
		return nil
	})
}
