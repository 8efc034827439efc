package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantgate/pkg/logger"
	"github.com/dmitrymomot/tenantgate/pkg/membership"
	"github.com/dmitrymomot/tenantgate/pkg/tenant"
)

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "manage tenant memberships",
	}
	cmd.AddCommand(newMemberAddCmd(), newMemberRemoveCmd(), newMemberListCmd())
	return cmd
}

// lookup resolves the tenant by slug straight from the store, ignoring status.
func (a *admin) lookup(ctx context.Context, slug string) (*tenant.Tenant, error) {
	t, err := a.store.FindTenantBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(slug, err)
	}
	return t, nil
}

func newMemberAddCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "add <tenant-slug> <user-id>",
		Short: "grant a user a role in a tenant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := membership.ParseRole(role)
			if err != nil {
				return err
			}
			userID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}
			return withAdmin(cmd.Context(), func(ctx context.Context, a *admin) error {
				t, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				m, err := a.store.AddMember(ctx, t.ID, userID, r)
				if err != nil {
					return err
				}
				a.log.InfoContext(ctx, "member added",
					logger.TenantSlug(t.Slug), logger.UserID(userID.String()), logger.Role(string(r)))
				return a.print(m)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", string(membership.RoleMember), "owner, admin or member")
	return cmd
}

func newMemberRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <tenant-slug> <user-id>",
		Short: "revoke a user's membership; effective on the user's next request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("user id: %w", err)
			}
			return withAdmin(cmd.Context(), func(ctx context.Context, a *admin) error {
				t, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				if err := a.store.RemoveMember(ctx, t.ID, userID); err != nil {
					return err
				}
				a.log.InfoContext(ctx, "member removed",
					logger.TenantSlug(t.Slug), logger.UserID(userID.String()))
				return nil
			})
		},
	}
}

func newMemberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <tenant-slug>",
		Short: "list a tenant's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), func(ctx context.Context, a *admin) error {
				t, err := a.lookup(ctx, args[0])
				if err != nil {
					return err
				}
				members, err := a.store.ListMembers(ctx, t.ID)
				if err != nil {
					return err
				}
				return a.print(members)
			})
		},
	}
}
