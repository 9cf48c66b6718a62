// Package apply implements the apply command.
package apply

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/cmd/application"
	"github.com/agentstation/factmap/internal/cmd/cmdutil"
	"github.com/agentstation/factmap/internal/cmd/output"
)

type applyFlags struct {
	*cmdutil.BundleFlags
	Summary   string
	DryRun    bool
	EditGroup string
}

// NewCommand creates the apply command with app dependencies.
func NewCommand(app application.Application) *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:     "apply",
		GroupID: "core",
		Short:   "Write the changes a bundle file needs",
		Long: `Apply reconciles every record named in the bundle file and writes the
missing statements, qualifiers, references and rank changes in one edit per
record. All edits of a run share an edit group, linked from the summary.

Writing requires FACTMAP_TOKEN (or token in the config file). An edit
conflict re-fetches the record and plans it again.`,
		Example: `  factmap apply -f bundle.yaml                          # Apply every record
  factmap apply -f bundle.yaml --summary "import from VIAF"
  factmap apply -f bundle.yaml --skip-errored           # Keep going on failures
  factmap apply -f bundle.yaml --dry-run                # Same as plan, summary view`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	flags.BundleFlags = cmdutil.AddBundleFlags(cmd)
	cmd.Flags().StringVar(&flags.Summary, "summary", "", "Edit summary (default from config)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Plan without writing")
	cmd.Flags().StringVar(&flags.EditGroup, "edit-group", "", "Reuse an edit group ID instead of generating one")

	return cmd
}

func (f *applyFlags) botOptions(app application.Application) []factmap.Option {
	var opts []factmap.Option
	if f.Summary != "" {
		cfg := app.Config()
		cfg.EditSummary = f.Summary
		opts = append(opts, factmap.WithConfig(cfg))
	}
	if f.DryRun {
		opts = append(opts, factmap.WithDryRun(true))
	}
	if f.EditGroup != "" {
		opts = append(opts, factmap.WithEditGroup(f.EditGroup))
	}
	return opts
}

func run(ctx context.Context, app application.Application, flags *applyFlags, w io.Writer) error {
	bundles, err := flags.Load()
	if err != nil {
		return err
	}

	bot, err := app.Bot(flags.botOptions(app)...)
	if err != nil {
		return err
	}
	app.Logger().Info().
		Str("edit_group", bot.EditGroup()).
		Int("records", len(bundles.IDs)).
		Msg("Applying bundle")

	results, feedErr := bot.FeedRecords(ctx, bundles.IDs, bundles.Builder,
		factmap.WithSkipErroredRecords(flags.SkipErrored))
	format := output.DetectFormat(app.OutputFormat())
	if err := cmdutil.WriteResults(w, format, cmdutil.ViewSummary, results); err != nil {
		return err
	}
	if feedErr != nil {
		return feedErr
	}
	if failed := factmap.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d records failed: %w", len(failed), len(results), factmap.Err(results))
	}
	return nil
}
