// Package resolve implements the resolve command.
package resolve

import (
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/factmap/cmd/application"
	"github.com/agentstation/factmap/internal/cmd/output"
	"github.com/agentstation/factmap/pkg/wikibase"
)

// Match is one resolved key.
type Match struct {
	Key     string   `json:"key" yaml:"key"`
	Records []string `json:"records" yaml:"records"`
}

// NewCommand creates the resolve command with app dependencies.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "resolve PROPERTY=VALUE...",
		GroupID: "core",
		Short:   "Find records by external identifier",
		Long: `Resolve looks up the records whose PROPERTY statement has VALUE, using
the SPARQL endpoint. Keys without a match are listed with no records.`,
		Example: `  factmap resolve P214=113230702
  factmap resolve P214=113230702 P227=119033364 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]wikibase.Key, 0, len(args))
			for _, arg := range args {
				key, err := wikibase.ParseKey(arg)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			resolver, err := app.Resolver()
			if err != nil {
				return err
			}
			found, err := resolver.ResolveIDs(cmd.Context(), keys...)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), keys, found)
		},
	}
}

func write(w io.Writer, format output.Format, keys []wikibase.Key, found map[wikibase.Key][]string) error {
	matches := make([]Match, 0, len(keys))
	seen := make(map[wikibase.Key]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		records := append([]string{}, found[k]...)
		sort.Strings(records)
		matches = append(matches, Match{Key: k.String(), Records: records})
	}

	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, matches)
	}
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{m.Key, strings.Join(m.Records, ", ")})
	}
	return output.NewFormatter(format).Format(w, output.Data{
		Headers: []string{"Key", "Records"},
		Rows:    rows,
	})
}
