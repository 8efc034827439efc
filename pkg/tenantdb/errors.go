package tenantdb

import "errors"

var (
	// ErrScopeNotSet is returned when the tenant setting could not be applied
	// or verified. The transaction is rolled back and the callback never runs.
	ErrScopeNotSet = errors.New("tenantdb: tenant scope not set")

	// ErrScopeClosed is returned when a Scope is used after its callback returned.
	ErrScopeClosed = errors.New("tenantdb: scope closed")

	// ErrRLSBypass is returned when the database role would bypass row level security.
	ErrRLSBypass = errors.New("tenantdb: database role bypasses row level security")

	// ErrInvalidTenantID is returned for the zero tenant id.
	ErrInvalidTenantID = errors.New("tenantdb: invalid tenant id")
)
