package testcases

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tbxark/formwizard"
	"github.com/tbxark/formwizard/config"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/wizard"
)

type onboardingOptions struct {
	driver    string
	path      string
	formKey   string
	submitter wizard.Submitter
}

type OnboardingOption func(*onboardingOptions)

// WithSQLite stores sessions in the database at path instead of memory.
func WithSQLite(path string) OnboardingOption {
	return func(o *onboardingOptions) {
		o.driver = config.DriverSQLite
		o.path = path
	}
}

func WithFormKey(key string) OnboardingOption {
	return func(o *onboardingOptions) { o.formKey = key }
}

func WithSubmitter(s wizard.Submitter) OnboardingOption {
	return func(o *onboardingOptions) { o.submitter = s }
}

// Today is the clock every scenario runs against.
func Today() time.Time {
	return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
}

// Recorder is a Submitter that keeps every payload it accepts.
type Recorder struct {
	mu       sync.Mutex
	payloads []types.Fields
}

func (r *Recorder) Submit(_ context.Context, fields types.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, fields)
	return nil
}

func (r *Recorder) Payloads() []types.Fields {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Fields(nil), r.payloads...)
}

func NewTestOnboarding(t *testing.T, opts ...OnboardingOption) *formwizard.Onboarding {
	t.Helper()
	o := &onboardingOptions{
		driver:    config.DriverMemory,
		path:      filepath.Join(t.TempDir(), "forms.db"),
		formKey:   "onboarding",
		submitter: &Recorder{},
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := config.Config{
		Store:    config.StoreConfig{Driver: o.driver, Path: o.path, Namespace: "form", WriteBehind: true},
		Resolver: config.ResolverConfig{Timeout: time.Second},
		Wizard:   config.WizardConfig{FormKey: o.formKey, MinAge: 18, PhoneMinDigits: 10},
		Code:     config.CodeConfig{Length: 6},
		Log:      config.LogConfig{Level: "warn"},
	}
	ob, err := formwizard.NewOnboarding(cfg, o.submitter,
		formwizard.WithClock(Today),
		formwizard.WithScheduler(func(task func()) { task() }),
	)
	if err != nil {
		t.Fatalf("failed to create onboarding: %v", err)
	}
	t.Cleanup(func() {
		if err := ob.Close(); err != nil {
			t.Errorf("failed to close onboarding: %v", err)
		}
	})
	ob.Wizard.Mount(context.Background())
	return ob
}
