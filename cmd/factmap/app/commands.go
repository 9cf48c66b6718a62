package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/factmap/cmd/factmap/cmd/apply"
	"github.com/agentstation/factmap/cmd/factmap/cmd/plan"
	"github.com/agentstation/factmap/cmd/factmap/cmd/resolve"
	"github.com/agentstation/factmap/cmd/factmap/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(plan.NewCommand(a))
	rootCmd.AddCommand(apply.NewCommand(a))
	rootCmd.AddCommand(resolve.NewCommand(a))
	rootCmd.AddCommand(version.NewCommand(a))
}
