// Package pgstore is the PostgreSQL store behind the tenant directory and
// the membership verifier, plus the admin mutations used by the CLI.
//
// Migrations embeds the goose schema: tenants, tenant_memberships and the
// tenant-scoped projects table with ENABLE and FORCE ROW LEVEL SECURITY and a
// policy keyed on the app.current_tenant_id setting. Apply it with pg.Migrate
// using a privileged role; the service should connect as a role that is
// neither superuser nor BYPASSRLS (tenantdb.Gate.VerifyRole checks this).
//
// Status changes do not touch any cache. Callers follow every mutation with
// tenant.Directory.Invalidate for the slug so that replicas drop their copy.
package pgstore
