package testcases

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tbxark/formwizard/onboarding"
)

// TestMultipleForms keeps two form keys apart in one database.
func TestMultipleForms(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "forms.db")

	personal := NewTestOnboarding(t, WithSQLite(path), WithFormKey("onboarding-personal"))
	AdvanceTo(t, ctx, personal.Wizard, 2)
	if err := personal.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	business := NewTestOnboarding(t, WithSQLite(path), WithFormKey("onboarding-business"))
	if business.Wizard.State() != 1 {
		t.Fatalf("second form should start fresh, got %s", business.Wizard.State())
	}
	business.Wizard.SetField(ctx, onboarding.FieldFullName, "Business Owner")
	business.Wizard.Reset(ctx)
	if err := business.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	resumed := NewTestOnboarding(t, WithSQLite(path), WithFormKey("onboarding-personal"))
	if resumed.Wizard.State() != 2 {
		t.Errorf("resetting another form must not touch this one, got %s", resumed.Wizard.State())
	}
	if got := resumed.Wizard.Value(onboarding.FieldFullName); got != "Grace Hopper" {
		t.Errorf("expected Grace Hopper, got %v", got)
	}
}
