// Package tenantdb scopes database access to a single tenant using
// PostgreSQL row level security.
//
// Tenant tables carry policies of the form
//
//	USING (tenant_id = NULLIF(current_setting('app.current_tenant_id', true), '')::uuid)
//
// with ENABLE and FORCE ROW LEVEL SECURITY. When the setting is missing the
// comparison is NULL and no row matches, so a forgotten scope yields empty
// results rather than another tenant's data.
//
// Gate.WithTenantScope is the only entry point to those tables. It opens a
// transaction, binds the setting with set_config(..., true) as the first
// statement, verifies it, and hands the callback a *Scope. The setting is
// local to the transaction and disappears on commit or rollback, so pooled
// connections are never reused with a stale tenant.
//
//	err := gate.WithTenantScope(ctx, tenantID, func(ctx context.Context, s *tenantdb.Scope) error {
//		_, err := s.Exec(ctx, "INSERT INTO projects (tenant_id, name) VALUES ($1, $2)", s.TenantID(), name)
//		return err
//	})
//
// Superusers and roles with BYPASSRLS ignore policies; Gate.VerifyRole
// refuses to run with such a role.
package tenantdb
