// Package plan implements the plan command.
package plan

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/cmd/application"
	"github.com/agentstation/factmap/internal/cmd/cmdutil"
	"github.com/agentstation/factmap/internal/cmd/output"
)

// NewCommand creates the plan command with app dependencies.
func NewCommand(app application.Application) *cobra.Command {
	var flags *cmdutil.BundleFlags

	cmd := &cobra.Command{
		Use:     "plan",
		GroupID: "core",
		Short:   "Show what a bundle file would change",
		Long: `Plan fetches every record named in the bundle file and classifies each
desired fact without writing anything:

  satisfied  an equivalent statement already carries everything
  augment    an equivalent statement exists but lacks qualifiers,
             references or the desired rank
  add        no equivalent statement exists; a new one is created
  skipped    a skip rule or hook dropped the fact
  rejected   the fact is malformed`,
		Example: `  factmap plan -f bundle.yaml                 # Plan every record
  factmap plan -f bundle.toml -r Q42          # Plan one record
  factmap plan -f bundle.yaml -o json         # Machine-readable plan`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	flags = cmdutil.AddBundleFlags(cmd)
	return cmd
}

func run(ctx context.Context, app application.Application, flags *cmdutil.BundleFlags, w io.Writer) error {
	bundles, err := flags.Load()
	if err != nil {
		return err
	}

	bot, err := app.Bot(factmap.WithDryRun(true))
	if err != nil {
		return err
	}

	results, feedErr := bot.FeedRecords(ctx, bundles.IDs, bundles.Builder,
		factmap.WithSkipErroredRecords(flags.SkipErrored))
	format := output.DetectFormat(app.OutputFormat())
	if err := cmdutil.WriteResults(w, format, cmdutil.ViewPlan, results); err != nil {
		return err
	}
	return feedErr
}
