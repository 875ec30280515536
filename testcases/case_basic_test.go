package testcases

import (
	"context"
	"testing"

	"github.com/tbxark/formwizard/onboarding"
	"github.com/tbxark/formwizard/types"
)

// TestBasicUsage walks every step and submits.
func TestBasicUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	recorder := &Recorder{}
	ob := NewTestOnboarding(t, WithSubmitter(recorder))
	w := ob.Wizard

	AdvanceTo(t, ctx, w, 6)
	if w.State() != 6 {
		t.Fatalf("expected step 6, got %s", w.State())
	}
	FillStep(ctx, w, 6)
	if !w.Submit(ctx) {
		t.Fatalf("submit refused: %v %s", w.Errors(), w.FormError())
	}
	if w.State() != types.Submitted {
		t.Errorf("expected submitted, got %s", w.State())
	}

	payloads := recorder.Payloads()
	if len(payloads) != 1 {
		t.Fatalf("expected one submission, got %d", len(payloads))
	}
	got := payloads[0]
	if got.String(onboarding.FieldEmail) != "grace@example.com" {
		t.Errorf("expected email grace@example.com, got %q", got.String(onboarding.FieldEmail))
	}
	if got.String(onboarding.FieldRegion) != "New York" {
		t.Errorf("expected region New York, got %q", got.String(onboarding.FieldRegion))
	}
	if !got.Bool(onboarding.FieldAcceptTerms) {
		t.Error("accept_terms should be true")
	}

	if session := w.Session(); session.ID == "" {
		t.Error("session should have an id after editing")
	}
	t.Logf("submitted %d fields", len(got))
}
