package pgstore

import "errors"

var (
	// ErrSlugTaken is returned by CreateTenant when the slug already exists.
	ErrSlugTaken = errors.New("pgstore: slug already taken")
	// ErrInvalidStatus is returned by SetTenantStatus for unknown statuses.
	ErrInvalidStatus = errors.New("pgstore: invalid tenant status")
)
