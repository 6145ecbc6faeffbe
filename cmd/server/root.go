package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the auth service CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth-service",
		Short: "Stateless bearer-token authentication service",
		Long: `auth-service issues and verifies signed bearer tokens and manages
user credentials. Verification needs only the signing secret, so any
number of replicas can validate tokens without shared session state.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file path (.env)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
