// Package policy is the single authorization decision point. Handlers call
// it instead of re-deriving role branches inline.
package policy

import (
	"fmt"

	"mailportal/internal/apperr"
	"mailportal/internal/db"
)

// Authorize decides whether a requester may act on a resource owned by
// ownerUserID. ADMIN and STAFF are allowed on any resource; CLIENT only on
// its own. The decision is pure; callers resolve the resource first so a
// missing resource yields NotFound before any Forbidden.
func Authorize(requesterID, role, ownerUserID string) error {
	if IsStaff(role) {
		return nil
	}
	if role == db.RoleClient && requesterID != "" && requesterID == ownerUserID {
		return nil
	}
	return fmt.Errorf("user %s on resource of %s: %w", requesterID, ownerUserID, apperr.ErrForbidden)
}

// IsStaff reports whether a role carries staff privileges.
func IsStaff(role string) bool {
	return role == db.RoleAdmin || role == db.RoleStaff
}
