// Package workflow defines the campaign status state machine: the ordered
// states, the allowed transitions, and the asset-count gate.
package workflow

import (
	"fmt"

	"mailportal/internal/apperr"
)

// Campaign statuses, in workflow order.
const (
	StatusDraft          = "DRAFT"
	StatusAssetsUploaded = "ASSETS_UPLOADED"
	StatusProofing       = "PROOFING"
	StatusApproved       = "APPROVED"
	StatusPrinting       = "PRINTING"
	StatusInvoiced       = "INVOICED"
	StatusComplete       = "COMPLETE"
)

// Proof event actions.
const (
	ActionApproved        = "APPROVED"
	ActionRequestChanges  = "REQUEST_CHANGES"
	ActionUploaded        = "UPLOADED"
	ActionViewed          = "VIEWED"
	ActionChangesComplete = "CHANGES_COMPLETE"
)

// AssetThreshold is the file count that completes a campaign's asset set
// (three buckslips, letter reply, outer envelope, mail list).
const AssetThreshold = 6

// transitions is the strict table. Status moves are monotonic along the
// workflow order except the PROOFING send-back.
var transitions = map[string][]string{
	StatusDraft:          {StatusAssetsUploaded},
	StatusAssetsUploaded: {StatusProofing},
	StatusProofing:       {StatusApproved, StatusAssetsUploaded},
	StatusApproved:       {StatusPrinting, StatusInvoiced, StatusComplete},
	StatusPrinting:       {StatusInvoiced, StatusComplete},
	StatusInvoiced:       {StatusComplete},
	StatusComplete:       {},
}

// IsStatus reports whether s names a workflow state.
func IsStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from→to is in the table.
// A same-state move is permitted as a no-op.
func CanTransition(from, to string) bool {
	if from == to {
		return IsStatus(from)
	}
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ValidateTransition wraps CanTransition in the error taxonomy.
func ValidateTransition(from, to string) error {
	if !IsStatus(to) {
		return fmt.Errorf("unknown status %q: %w", to, apperr.ErrValidation)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot move %s to %s: %w", from, to, apperr.ErrValidation)
	}
	return nil
}

// AssetsComplete reports whether a campaign's file count reaches the
// upload threshold that gates DRAFT→ASSETS_UPLOADED.
func AssetsComplete(fileCount int) bool {
	return fileCount >= AssetThreshold
}

// ProofEffect is the status side effect of a review action.
type ProofEffect struct {
	NewStatus     string // empty when the action does not move the workflow
	StampApproved bool
}

// EffectOfProofAction resolves what recording an action does to a job in the
// given status. APPROVED requires the job to be in PROOFING and stamps
// approvedAt; REQUEST_CHANGES sends a PROOFING job back to ASSETS_UPLOADED.
// Other actions append to the audit trail without moving the workflow.
func EffectOfProofAction(jobStatus, action string) (ProofEffect, error) {
	switch action {
	case ActionApproved:
		if jobStatus != StatusProofing {
			return ProofEffect{}, fmt.Errorf("cannot approve a %s job: %w", jobStatus, apperr.ErrValidation)
		}
		return ProofEffect{NewStatus: StatusApproved, StampApproved: true}, nil
	case ActionRequestChanges:
		if jobStatus == StatusProofing {
			return ProofEffect{NewStatus: StatusAssetsUploaded}, nil
		}
		return ProofEffect{}, nil
	case ActionUploaded, ActionViewed, ActionChangesComplete:
		return ProofEffect{}, nil
	default:
		return ProofEffect{}, fmt.Errorf("unknown proof action %q: %w", action, apperr.ErrValidation)
	}
}
