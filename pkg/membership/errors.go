package membership

import "errors"

var (
	// ErrUnauthenticated is returned when no valid session was presented.
	ErrUnauthenticated = errors.New("membership.unauthenticated")

	// ErrNotAMember is returned when the user has no membership in the tenant.
	ErrNotAMember = errors.New("membership.not_a_member")

	// ErrInsufficientRole is returned when the member's role is below the required one.
	ErrInsufficientRole = errors.New("membership.insufficient_role")

	// ErrStoreUnavailable is returned when membership could not be checked.
	ErrStoreUnavailable = errors.New("membership.store_unavailable")

	// ErrInvalidRole is returned when parsing an unknown role.
	ErrInvalidRole = errors.New("membership.invalid_role")

	// ErrNotInContext is returned when no authorized context is present.
	ErrNotInContext = errors.New("membership.not_in_context")
)
