// Package cmdutil provides shared flags and loaders for factmap commands.
package cmdutil

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/agentstation/factmap/internal/bundlefile"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/reconciler"
)

// BundleFlags selects the bundle file and the records to reconcile.
type BundleFlags struct {
	File        string
	Records     []string
	SkipErrored bool
}

// AddBundleFlags adds the bundle flags to a command.
func AddBundleFlags(cmd *cobra.Command) *BundleFlags {
	flags := &BundleFlags{}

	cmd.Flags().StringVarP(&flags.File, "file", "f", "",
		"Bundle file (.yaml, .yml or .toml)")
	cmd.Flags().StringSliceVarP(&flags.Records, "record", "r", nil,
		"Only reconcile these record IDs (default: every record in the file)")
	cmd.Flags().BoolVar(&flags.SkipErrored, "skip-errored", false,
		"Continue with the next record when one fails")
	_ = cmd.MarkFlagRequired("file")

	return flags
}

// Bundles is a loaded bundle file ready to feed to a bot.
type Bundles struct {
	File    *bundlefile.File
	Builder reconciler.BundleBuilder
	IDs     []string
}

// Load reads the bundle file and resolves the record selection. Selected
// records must appear in the file.
func (f *BundleFlags) Load() (*Bundles, error) {
	file, err := bundlefile.Load(f.File)
	if err != nil {
		return nil, err
	}
	builder, err := file.Builder()
	if err != nil {
		return nil, err
	}

	ids := unique(file.IDs())
	if len(f.Records) > 0 {
		for _, id := range f.Records {
			if !slices.Contains(ids, id) {
				return nil, errors.NewNotFoundError("record", id)
			}
		}
		ids = f.Records
	}
	return &Bundles{File: file, Builder: builder, IDs: ids}, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
