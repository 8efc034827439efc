// Package membership decides whether an authenticated user may act inside a tenant.
//
// Authorizer.Authorize validates the session token first and only then looks
// up the (tenant, user) membership. A valid session is never enough on its
// own: a member of one tenant is rejected with ErrNotAMember everywhere else.
//
// Require wraps handlers with that check. It reads the tenant id injected by
// tenant.Middleware and never derives it from the request. Unauthenticated and
// non-member callers get an identical 401; a member with too low a role gets
// 403.
//
//	r.With(membership.Require(authz, extractor, membership.RoleAdmin)).
//		Post("/api/projects", createProject)
//
// Roles rank owner > admin > member.
package membership
