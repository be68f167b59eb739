// Package apperr defines the portal's error taxonomy. Components wrap these
// sentinels; the HTTP boundary maps them to status codes.
package apperr

import "errors"

var (
	// ErrNotFound means a resource id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the authorization policy denied an existing resource.
	ErrForbidden = errors.New("access denied")
	// ErrValidation means malformed or disallowed input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means a duplicate unique key (email, username).
	ErrConflict = errors.New("already exists")
)
