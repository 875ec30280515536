package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard"
	"github.com/tbxark/formwizard/config"
	"github.com/tbxark/formwizard/types"
)

func newTestOnboarding(t *testing.T) *formwizard.Onboarding {
	t.Helper()
	cfg := config.Config{
		Store:    config.StoreConfig{Driver: config.DriverMemory, Path: filepath.Join(t.TempDir(), "unused.db"), Namespace: "form"},
		Resolver: config.ResolverConfig{Timeout: time.Second},
		Wizard:   config.WizardConfig{FormKey: "onboarding", MinAge: 18, PhoneMinDigits: 10},
		Code:     config.CodeConfig{Length: 6},
		Log:      config.LogConfig{Level: "error"},
	}
	ob, err := formwizard.NewOnboarding(cfg, formwizard.LogSubmitter(nil), formwizard.WithScheduler(func(task func()) { task() }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })
	return ob
}

const fullScript = `
# personal
full_name = Ada Lovelace
date_of_birth = 1990-12-10
next
email = ada@example.com
phone = +44 20 7946 0018
next
country = GB
region = England
city = London
postal_code = SW1A 1AA
next
password = Analytic4l!
confirm_password = Analytic4l!
next
occupation = Mathematician
source_of_funds = savings
newsletter = true
next
accept_terms = true
submit
`

func TestRunScriptSubmits(t *testing.T) {
	ctx := context.Background()
	ob := newTestOnboarding(t)
	ob.Wizard.Mount(ctx)

	var out bytes.Buffer
	require.NoError(t, runScript(ctx, ob.Wizard, strings.NewReader(fullScript), &out))
	assert.Equal(t, types.Submitted, ob.Wizard.State())
	assert.Contains(t, out.String(), "submit: step 6 -> submitted")
	assert.Equal(t, 5, strings.Count(out.String(), "next: step"))
}

func TestRunScriptReportsRefusals(t *testing.T) {
	ctx := context.Background()
	ob := newTestOnboarding(t)
	ob.Wizard.Mount(ctx)

	var out bytes.Buffer
	script := "full_name = Ada\nnext\nquit\nnext\n"
	require.NoError(t, runScript(ctx, ob.Wizard, strings.NewReader(script), &out))
	assert.Contains(t, out.String(), "next refused on step 1")
	assert.Contains(t, out.String(), "full_name: Please enter your first and last name")
	assert.Contains(t, out.String(), "Saved on step 1 of 6.")

	err := runScript(ctx, ob.Wizard, strings.NewReader("fly away\n"), &out)
	assert.ErrorContains(t, err, "line 1")
}
