package formwizard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/config"
	"github.com/tbxark/formwizard/onboarding"
	"github.com/tbxark/formwizard/types"
)

func testConfig(t *testing.T, driver string) config.Config {
	t.Helper()
	return config.Config{
		Store: config.StoreConfig{
			Driver:      driver,
			Path:        filepath.Join(t.TempDir(), "forms.db"),
			Namespace:   "form",
			WriteBehind: true,
		},
		Resolver: config.ResolverConfig{Timeout: time.Second},
		Wizard:   config.WizardConfig{FormKey: "onboarding", MinAge: 18, PhoneMinDigits: 10},
		Code:     config.CodeConfig{Length: 4},
		Log:      config.LogConfig{Level: "info"},
	}
}

func syncScheduler(task func()) { task() }

func TestOnboardingResumesFromSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.DriverSQLite)

	first, err := NewOnboarding(cfg, LogSubmitter(nil), WithScheduler(syncScheduler))
	require.NoError(t, err)
	first.Wizard.Mount(ctx)
	first.Wizard.SetField(ctx, onboarding.FieldFullName, "Ada Lovelace")
	first.Wizard.SetField(ctx, onboarding.FieldDateOfBirth, "1990-12-10")
	require.True(t, first.Wizard.Next(ctx))
	first.Wizard.SetField(ctx, onboarding.FieldEmail, "ada@example.com")
	require.NoError(t, first.Close())

	second, err := NewOnboarding(cfg, LogSubmitter(nil), WithScheduler(syncScheduler))
	require.NoError(t, err)
	defer second.Close()
	second.Wizard.Mount(ctx)

	assert.Equal(t, types.State(2), second.Wizard.State())
	assert.Equal(t, "ada@example.com", second.Wizard.Value(onboarding.FieldEmail))
	countries, ok := second.Wizard.List(onboarding.FieldCountry)
	require.True(t, ok)
	assert.Equal(t, types.ListReady, countries.Status)
}

func TestOnboardingMemoryDriverAndCodeInput(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Store.WriteBehind = false

	ob, err := NewOnboarding(cfg, LogSubmitter(nil))
	require.NoError(t, err)
	defer ob.Close()

	var codes []string
	input := ob.NewCodeInput(func(code string) { codes = append(codes, code) })
	assert.Equal(t, 4, input.Len())
	input.Paste("9876")
	assert.Equal(t, []string{"9876"}, codes)
}

func TestNewOnboardingRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t, "postgres")
	_, err := NewOnboarding(cfg, LogSubmitter(nil))
	assert.ErrorContains(t, err, "unknown store.driver")

	cfg = testConfig(t, config.DriverMemory)
	cfg.Resolver.Data = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewOnboarding(cfg, LogSubmitter(nil))
	assert.ErrorContains(t, err, "failed to load reference data")
}
