package output

import (
	"strconv"
	"strings"

	"github.com/agentstation/factmap/pkg/planner"
	"github.com/agentstation/factmap/pkg/reconciler"
)

// EntryView is the serializable form of a plan entry.
type EntryView struct {
	Index             int      `json:"index" yaml:"index"`
	Property          string   `json:"property" yaml:"property"`
	Value             string   `json:"value" yaml:"value"`
	Classification    string   `json:"classification" yaml:"classification"`
	Target            string   `json:"target,omitempty" yaml:"target,omitempty"`
	Reasons           []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	MissingQualifiers int      `json:"missing_qualifiers,omitempty" yaml:"missing_qualifiers,omitempty"`
	MissingReferences int      `json:"missing_references,omitempty" yaml:"missing_references,omitempty"`
	RankChange        string   `json:"rank_change,omitempty" yaml:"rank_change,omitempty"`
	SkipReason        string   `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	Error             string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResultView is the serializable form of a reconciliation result.
type ResultView struct {
	RecordID     string          `json:"record_id" yaml:"record_id"`
	BaseRevision int64           `json:"base_revision" yaml:"base_revision"`
	Outcome      planner.Outcome `json:"outcome" yaml:"outcome"`
	Entries      []EntryView     `json:"entries" yaml:"entries"`
	Removals     []string        `json:"removals,omitempty" yaml:"removals,omitempty"`
	Revision     int64           `json:"revision,omitempty" yaml:"revision,omitempty"`
	DryRun       bool            `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Skipped      bool            `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Summary      string          `json:"summary" yaml:"summary"`
	Errors       []string        `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewResultView flattens a result for JSON or YAML output.
func NewResultView(r *reconciler.Result) ResultView {
	view := ResultView{
		RecordID: r.RecordID,
		Outcome:  r.Outcome,
		Entries:  []EntryView{},
		DryRun:   r.Metadata.DryRun,
		Skipped:  r.Skipped,
		Summary:  r.Summary(),
	}
	if r.Plan != nil {
		view.BaseRevision = r.Plan.BaseRevision
		for i := range r.Plan.Entries {
			view.Entries = append(view.Entries, newEntryView(&r.Plan.Entries[i]))
		}
		for _, h := range r.Plan.Removals {
			view.Removals = append(view.Removals, h.ID)
		}
	}
	if r.Persisted != nil {
		view.Revision = r.Persisted.Revision
	}
	for _, err := range r.Errors {
		view.Errors = append(view.Errors, err.Error())
	}
	return view
}

func newEntryView(e *planner.Entry) EntryView {
	view := EntryView{
		Index:             e.Index,
		Property:          string(e.Desired.Property()),
		Value:             e.Desired.Value().String(),
		Classification:    e.Classification.String(),
		Target:            target(e.Target),
		MissingQualifiers: len(e.MissingQualifiers),
		MissingReferences: len(e.MissingReferences),
		SkipReason:        e.SkipReason,
	}
	for _, r := range e.Reasons {
		view.Reasons = append(view.Reasons, string(r))
	}
	if e.RankChange != nil {
		view.RankChange = e.RankChange.String()
	}
	if e.Err != nil {
		view.Error = e.Err.Error()
	}
	return view
}

func target(h planner.Handle) string {
	switch {
	case !h.Valid():
		return ""
	case h.ID != "":
		return h.ID
	case h.Pending:
		return "pending #" + strconv.Itoa(h.Index)
	}
	return "#" + strconv.Itoa(h.Index)
}

// PlanData renders one row per plan entry and per removal. Wide output adds
// the payload columns.
func PlanData(results []*reconciler.Result, wide bool) Data {
	headers := []string{"Record", "#", "Property", "Value", "Classification", "Target", "Detail"}
	align := []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "Qualifiers", "References", "Rank")
		align = append(align, AlignRight, AlignRight, AlignLeft)
	}

	var rows [][]string
	for _, r := range results {
		view := NewResultView(r)
		for _, e := range view.Entries {
			row := []string{view.RecordID, strconv.Itoa(e.Index), e.Property, e.Value, e.Classification, e.Target, detail(e)}
			if wide {
				row = append(row, strconv.Itoa(e.MissingQualifiers), strconv.Itoa(e.MissingReferences), e.RankChange)
			}
			rows = append(rows, row)
		}
		for _, id := range view.Removals {
			row := []string{view.RecordID, "", "", "", "remove", id, ""}
			if wide {
				row = append(row, "", "", "")
			}
			rows = append(rows, row)
		}
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

func detail(e EntryView) string {
	switch {
	case e.Error != "":
		return e.Error
	case e.SkipReason != "":
		return e.SkipReason
	}
	return strings.Join(e.Reasons, ", ")
}

// SummaryData renders one row per record with its outcome counts.
func SummaryData(results []*reconciler.Result) Data {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		o := r.Outcome
		revision := ""
		if r.Persisted != nil {
			revision = strconv.FormatInt(r.Persisted.Revision, 10)
		}
		rows = append(rows, []string{
			r.RecordID,
			strconv.Itoa(o.Satisfied),
			strconv.Itoa(o.Augmented),
			strconv.Itoa(o.Added),
			strconv.Itoa(o.Removed),
			strconv.Itoa(o.Skipped),
			strconv.Itoa(o.Rejected),
			revision,
		})
	}
	return Data{
		Headers:         []string{"Record", "Satisfied", "Augmented", "Added", "Removed", "Skipped", "Rejected", "Revision"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
}

// ResultViews flattens results for JSON or YAML output.
func ResultViews(results []*reconciler.Result) []ResultView {
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		views = append(views, NewResultView(r))
	}
	return views
}
