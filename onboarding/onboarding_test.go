package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/resolver"
	"github.com/tbxark/formwizard/store"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/visibility"
	"github.com/tbxark/formwizard/wizard"
)

func today() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

type flakyProvider struct {
	resolver.Provider
}

func (flakyProvider) ListRegions(context.Context, string) ([]string, error) {
	return nil, errors.New("regions service timed out")
}

type fixture struct {
	wizard    *wizard.Wizard
	store     *store.FormStore
	submitted []types.Fields
}

func newFixture(t *testing.T, provider resolver.Provider) *fixture {
	t.Helper()
	if provider == nil {
		p, err := DefaultProvider()
		require.NoError(t, err)
		provider = p
	}
	engine, err := NewEngine(Options{Now: today}, visibility.New())
	require.NoError(t, err)
	f := &fixture{store: store.NewFormStore(store.NewMemoryCache[[]byte](), "form", Schema(engine))}
	w, err := wizard.New(Definition("", engine, provider),
		wizard.WithStore(f.store),
		wizard.WithScheduler(func(task func()) { task() }),
		wizard.WithSubmitter(wizard.SubmitterFunc(func(_ context.Context, fields types.Fields) error {
			f.submitted = append(f.submitted, fields)
			return nil
		})),
	)
	require.NoError(t, err)
	f.wizard = w
	return f
}

func (f *fixture) set(ctx context.Context, values map[string]any) {
	for name, value := range values {
		f.wizard.SetField(ctx, name, value)
	}
}

var stepValues = []map[string]any{
	{FieldFullName: "Ada Lovelace", FieldDateOfBirth: "1990-12-10"},
	{FieldEmail: "ada@example.com", FieldPhone: "+1 (555) 010-2030"},
	{FieldCountry: "CA"},
	{FieldPassword: "Analytic4l!", FieldConfirmPassword: "Analytic4l!"},
	{FieldOccupation: "Mathematician", FieldSourceOfFunds: "salary", FieldNewsletter: true},
}

func TestStepsDeclareSixSteps(t *testing.T) {
	engine, err := NewEngine(Options{}, visibility.New())
	require.NoError(t, err)
	assert.Equal(t, 6, engine.TotalSteps())

	defaults := engine.Defaults()
	assert.Equal(t, false, defaults[FieldNewsletter])
	assert.Equal(t, false, defaults[FieldAcceptTerms])
	assert.Equal(t, "", defaults[FieldRegionText])
	assert.Len(t, defaults, 15)
}

func TestCompleteOnboarding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.wizard.Mount(ctx)

	countries, ok := f.wizard.List(FieldCountry)
	require.True(t, ok)
	require.Equal(t, types.ListReady, countries.Status)

	for i, values := range stepValues {
		f.set(ctx, values)
		if values[FieldCountry] == "CA" {
			f.set(ctx, map[string]any{FieldRegion: "Ontario", FieldCity: "Toronto", FieldPostalCode: "M5V 2T6"})
		}
		require.Truef(t, f.wizard.Next(ctx), "step %d errors: %v", i+1, f.wizard.Errors())
	}
	assert.Equal(t, types.State(6), f.wizard.State())
	assert.Contains(t, f.wizard.Summary(), "Toronto")

	assert.False(t, f.wizard.Submit(ctx))
	f.wizard.SetField(ctx, FieldAcceptTerms, true)
	require.True(t, f.wizard.Submit(ctx))

	require.Len(t, f.submitted, 1)
	got := f.submitted[0]
	assert.Len(t, got, 15)
	assert.Equal(t, "Ontario", got[FieldRegion])
	assert.Equal(t, true, got[FieldNewsletter])
	assert.NotContains(t, got, "current_step")
	assert.Equal(t, types.Submitted, f.wizard.State())
}

func TestAgeGateBlocksMinors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.wizard.Mount(ctx)
	f.set(ctx, map[string]any{FieldFullName: "Young Person", FieldDateOfBirth: "2008-03-02"})

	assert.Empty(t, f.wizard.Check(FieldDateOfBirth))
	assert.False(t, f.wizard.Next(ctx))
	assert.Equal(t, "You must be at least 18 years old to register", f.wizard.FieldError(FieldDateOfBirth))

	f.wizard.SetField(ctx, FieldDateOfBirth, "2008-03-01")
	assert.True(t, f.wizard.Next(ctx))
}

func TestRegionFallback(t *testing.T) {
	ctx := context.Background()
	cases := map[string]resolver.Provider{
		"empty list": nil,
		"failed fetch": func() resolver.Provider {
			p, err := DefaultProvider()
			require.NoError(t, err)
			return flakyProvider{Provider: p}
		}(),
	}
	for name, provider := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, provider)
			f.wizard.Mount(ctx)
			f.set(ctx, stepValues[0])
			require.True(t, f.wizard.Next(ctx))
			f.set(ctx, stepValues[1])
			require.True(t, f.wizard.Next(ctx))

			country := "CA"
			if provider == nil {
				country = "MC"
			}
			f.set(ctx, map[string]any{FieldCountry: country, FieldCity: "Somewhere", FieldPostalCode: "98000"})
			list, _ := f.wizard.List(FieldRegion)
			assert.True(t, list.NeedsFallback())

			assert.False(t, f.wizard.Next(ctx))
			assert.Equal(t, map[string]string{FieldRegionText: "State / Province is required"}, f.wizard.Errors())
			f.wizard.SetField(ctx, FieldRegionText, "Monte Carlo")
			assert.True(t, f.wizard.Next(ctx))
		})
	}
}

func TestPasswordStepMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.wizard.Mount(ctx)
	f.set(ctx, map[string]any{FieldPassword: "alllower1", FieldConfirmPassword: "different"})

	assert.Equal(t, "Password must contain an uppercase letter", f.wizard.Check(FieldPassword))
	assert.Equal(t, "Passwords do not match", f.wizard.Check(FieldConfirmPassword))
	assert.Len(t, f.wizard.PasswordChecklist(FieldPassword), 5)
}

func TestResetFromStepFive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.wizard.Mount(ctx)
	for _, values := range stepValues[:4] {
		f.set(ctx, values)
		if values[FieldCountry] == "CA" {
			f.set(ctx, map[string]any{FieldRegion: "Quebec", FieldCity: "Montreal", FieldPostalCode: "H2X 1Y4"})
		}
		require.True(t, f.wizard.Next(ctx))
	}
	f.set(ctx, stepValues[4])
	require.Equal(t, types.State(5), f.wizard.State())
	require.Equal(t, 5, f.store.Load(ctx, FormKey).CurrentStep)

	f.wizard.Reset(ctx)
	assert.Equal(t, types.State(1), f.wizard.State())
	assert.Equal(t, "", f.wizard.Session().Fields.String(FieldEmail))

	loaded := f.store.Load(ctx, FormKey)
	assert.Equal(t, 1, loaded.CurrentStep)
	assert.Equal(t, "", loaded.Fields.String(FieldFullName))
	assert.Equal(t, "", loaded.Fields.String(FieldOccupation))
	assert.Equal(t, false, loaded.Fields[FieldNewsletter])
}

func TestResumeAfterRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.wizard.Mount(ctx)
	f.set(ctx, stepValues[0])
	require.True(t, f.wizard.Next(ctx))
	f.set(ctx, map[string]any{FieldEmail: "ada@example.com"})

	engine, err := NewEngine(Options{Now: today}, visibility.New())
	require.NoError(t, err)
	provider, err := DefaultProvider()
	require.NoError(t, err)
	restarted, err := wizard.New(Definition(FormKey, engine, provider),
		wizard.WithStore(f.store),
		wizard.WithScheduler(func(task func()) { task() }),
		wizard.WithSubmitter(wizard.SubmitterFunc(func(context.Context, types.Fields) error { return nil })),
	)
	require.NoError(t, err)
	restarted.Mount(ctx)

	assert.Equal(t, types.State(2), restarted.State())
	assert.Equal(t, "ada@example.com", restarted.Value(FieldEmail))
	assert.Equal(t, "Ada Lovelace", restarted.Value(FieldFullName))
}
