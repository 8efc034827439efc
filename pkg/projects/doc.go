// Package projects is the tenant-scoped data API of the gateway's demo
// application. Every function takes a *tenantdb.Scope, so project rows can
// only be read or written inside Gate.WithTenantScope where the
// app.current_tenant_id setting is bound and the projects row policy applies.
package projects
