// Command tenantgate runs the multi-tenant gateway and its admin tooling.
//
//	tenantgate serve                     start the HTTP gateway
//	tenantgate migrate                   apply database migrations
//	tenantgate tenant create --name ...  manage tenants
//	tenantgate member add ...            manage memberships
//
// All settings come from the environment (and an optional .env file).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const errExitCode = 1

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(errExitCode)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "tenantgate",
		Short:         "multi-tenant resolution and isolation gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if envFile != "" {
				dotenvFiles = []string{envFile}
			}
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newTenantCmd(),
		newMemberCmd(),
	)
	return cmd
}
