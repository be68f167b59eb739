// Package workflow tests cover the status table and proof-action effects.
package workflow

import (
	"errors"
	"testing"

	"mailportal/internal/apperr"
)

func TestCanTransitionTable(t *testing.T) {
	allowed := [][2]string{
		{StatusDraft, StatusAssetsUploaded},
		{StatusAssetsUploaded, StatusProofing},
		{StatusProofing, StatusApproved},
		{StatusProofing, StatusAssetsUploaded},
		{StatusApproved, StatusPrinting},
		{StatusApproved, StatusInvoiced},
		{StatusApproved, StatusComplete},
		{StatusPrinting, StatusInvoiced},
		{StatusInvoiced, StatusComplete},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]string{
		{StatusDraft, StatusProofing},
		{StatusAssetsUploaded, StatusDraft},
		{StatusApproved, StatusProofing},
		{StatusComplete, StatusDraft},
		{StatusInvoiced, StatusPrinting},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be denied", tr[0], tr[1])
		}
	}
}

func TestCanTransitionSameStateIsNoOp(t *testing.T) {
	if !CanTransition(StatusProofing, StatusProofing) {
		t.Fatalf("same-state move should be allowed")
	}
	if CanTransition("BOGUS", "BOGUS") {
		t.Fatalf("unknown status should not be allowed")
	}
}

func TestValidateTransitionErrors(t *testing.T) {
	if err := ValidateTransition(StatusDraft, "SHIPPED"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := ValidateTransition(StatusComplete, StatusDraft); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := ValidateTransition(StatusDraft, StatusAssetsUploaded); err != nil {
		t.Fatalf("expected allowed transition, got %v", err)
	}
}

func TestAssetsComplete(t *testing.T) {
	if AssetsComplete(AssetThreshold - 1) {
		t.Fatalf("below threshold should not be complete")
	}
	if !AssetsComplete(AssetThreshold) {
		t.Fatalf("at threshold should be complete")
	}
}

func TestEffectOfProofActionApprove(t *testing.T) {
	eff, err := EffectOfProofAction(StatusProofing, ActionApproved)
	if err != nil {
		t.Fatalf("EffectOfProofAction: %v", err)
	}
	if eff.NewStatus != StatusApproved || !eff.StampApproved {
		t.Fatalf("unexpected effect: %+v", eff)
	}

	// Approving outside PROOFING is rejected.
	if _, err := EffectOfProofAction(StatusDraft, ActionApproved); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEffectOfProofActionRequestChanges(t *testing.T) {
	eff, err := EffectOfProofAction(StatusProofing, ActionRequestChanges)
	if err != nil {
		t.Fatalf("EffectOfProofAction: %v", err)
	}
	if eff.NewStatus != StatusAssetsUploaded || eff.StampApproved {
		t.Fatalf("unexpected effect: %+v", eff)
	}

	// Outside PROOFING it only appends to the trail.
	eff, err = EffectOfProofAction(StatusApproved, ActionRequestChanges)
	if err != nil {
		t.Fatalf("EffectOfProofAction: %v", err)
	}
	if eff.NewStatus != "" {
		t.Fatalf("expected no status move, got %+v", eff)
	}
}

func TestEffectOfProofActionUnknown(t *testing.T) {
	if _, err := EffectOfProofAction(StatusProofing, "SIGNED_OFF"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
