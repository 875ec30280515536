package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/formwizard/onboarding"
	"github.com/tbxark/formwizard/wizard"
)

// Registration holds valid answers for each onboarding step, in step order.
var Registration = []map[string]any{
	{onboarding.FieldFullName: "Grace Hopper", onboarding.FieldDateOfBirth: "1986-12-09"},
	{onboarding.FieldEmail: "grace@example.com", onboarding.FieldPhone: "+1 212 555 0199"},
	{onboarding.FieldCountry: "US"},
	{onboarding.FieldPassword: "C0bol!Rules", onboarding.FieldConfirmPassword: "C0bol!Rules"},
	{onboarding.FieldOccupation: "Rear admiral", onboarding.FieldSourceOfFunds: "salary", onboarding.FieldNewsletter: true},
	{onboarding.FieldAcceptTerms: true},
}

// Address is filled after the country so the region list is already ready.
var Address = map[string]any{
	onboarding.FieldRegion:     "New York",
	onboarding.FieldCity:       "New York",
	onboarding.FieldPostalCode: "10001",
}

// FillStep enters the answers of step (1-indexed) into w.
func FillStep(ctx context.Context, w *wizard.Wizard, step int) {
	for name, value := range Registration[step-1] {
		w.SetField(ctx, name, value)
	}
	if step == 3 {
		for name, value := range Address {
			w.SetField(ctx, name, value)
		}
	}
}

// AdvanceTo fills and confirms every step before target.
func AdvanceTo(t *testing.T, ctx context.Context, w *wizard.Wizard, target int) {
	t.Helper()
	for step := int(w.State()); step < target; step++ {
		FillStep(ctx, w, step)
		if !w.Next(ctx) {
			t.Fatalf("step %d refused: %v", step, w.Errors())
		}
	}
}
