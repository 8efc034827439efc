package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/pgstore"
	"github.com/dmitrymomot/tenantgate/pkg/slug"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

func newTenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "manage tenants",
	}
	cmd.AddCommand(
		newTenantCreateCmd(),
		newTenantShowCmd(),
		newTenantStatusCmd("suspend", "suspend a tenant; its hosts answer 403 (or 404 when concealed)", tenant.StatusSuspended),
		newTenantStatusCmd("activate", "reactivate a tenant", tenant.StatusActive),
		newTenantStatusCmd("delete", "mark a tenant pending deletion; its hosts are rejected", tenant.StatusPendingDeletion),
	)
	return cmd
}

func newTenantCreateCmd() *cobra.Command {
	var name, tenantSlug, plan string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "create an active tenant",
		RunE: runAdmin(func(ctx context.Context, a *admin) error {
			s := tenantSlug
			if s == "" {
				s = slug.Make(name)
			}
			if err := tenant.ValidateSlug(s, a.cfg.reserved()); err != nil {
				return fmt.Errorf("slug %q: %w", s, err)
			}

			t, err := a.store.CreateTenant(ctx, pgstore.CreateTenantParams{Slug: s, Name: name, Plan: plan})
			if err != nil {
				return err
			}
			// A lookup before creation may have cached "not found".
			a.invalidate(ctx, t.Slug)
			a.log.InfoContext(ctx, "tenant created", logger.TenantID(t.ID.String()), logger.TenantSlug(t.Slug))
			return a.print(t)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&tenantSlug, "slug", "", "subdomain label (derived from --name when empty)")
	cmd.Flags().StringVar(&plan, "plan", "free", "billing plan")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTenantShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "print a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), func(ctx context.Context, a *admin) error {
				t, err := a.store.FindTenantBySlug(ctx, args[0])
				if err != nil {
					return notFound(args[0], err)
				}
				return a.print(t)
			})
		},
	}
}

func newTenantStatusCmd(use, short string, status tenant.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <slug>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), func(ctx context.Context, a *admin) error {
				t, err := a.store.SetTenantStatus(ctx, args[0], status)
				if err != nil {
					return notFound(args[0], err)
				}
				a.invalidate(ctx, t.Slug)
				a.log.InfoContext(ctx, "tenant status changed",
					logger.TenantID(t.ID.String()),
					logger.TenantSlug(t.Slug),
					logger.Reason(string(status)),
				)
				return a.print(t)
			})
		},
	}
}
