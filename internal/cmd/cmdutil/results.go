package cmdutil

import (
	"fmt"
	"io"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/internal/cmd/emoji"
	"github.com/agentstation/factmap/internal/cmd/output"
	"github.com/agentstation/factmap/pkg/reconciler"
)

// View selects how results are rendered as a table.
type View int

// Table views.
const (
	ViewPlan View = iota
	ViewSummary
)

// Reconciled returns the results that carry a reconciliation result.
func Reconciled(results []factmap.RecordResult) []*reconciler.Result {
	out := make([]*reconciler.Result, 0, len(results))
	for _, r := range results {
		if r.Result != nil {
			out = append(out, r.Result)
		}
	}
	return out
}

// WriteResults renders results in format. Tables use view; JSON and YAML
// always carry the full plan.
func WriteResults(w io.Writer, format output.Format, view View, results []factmap.RecordResult) error {
	reconciled := Reconciled(results)
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, output.ResultViews(reconciled))
	}

	data := output.SummaryData(reconciled)
	if view == ViewPlan {
		data = output.PlanData(reconciled, format == output.FormatWide)
	}
	if len(data.Rows) > 0 {
		if err := output.NewFormatter(format).Format(w, data); err != nil {
			return err
		}
	}
	return WriteStatus(w, results)
}

// WriteStatus writes one status line per record.
func WriteStatus(w io.Writer, results []factmap.RecordResult) error {
	for _, r := range results {
		var line string
		switch {
		case r.Err != nil:
			line = fmt.Sprintf("%s %s: %v", emoji.Error, r.RecordID, r.Err)
		case r.Result.Skipped:
			line = fmt.Sprintf("%s %s", emoji.Optional, r.Result.Summary())
		case len(r.Result.Errors) > 0:
			line = fmt.Sprintf("%s %s (%d errors)", emoji.Warning, r.Result.Summary(), len(r.Result.Errors))
		default:
			line = fmt.Sprintf("%s %s", emoji.Success, r.Result.Summary())
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
