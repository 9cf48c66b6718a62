package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/planner"
)

// PersistResult describes a completed write.
type PersistResult struct {
	RecordID string
	Revision int64
	Writes   int
}

// Result represents the outcome of reconciling one record.
type Result struct {
	RecordID string
	Record   *claims.Record
	Plan     *planner.Plan
	Outcome  planner.Outcome

	// Skipped is set when a BeforeBundleBuild hook skipped the record.
	Skipped bool

	// Persisted is nil unless writes were stored.
	Persisted *PersistResult

	Metadata ResultMetadata

	// Errors holds per-fact failures. They never abort the record.
	Errors []error
}

// ResultMetadata contains metadata about the reconciliation run.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	DryRun    bool
}

// NewResult creates a new result with defaults.
func NewResult(recordID string, dryRun bool) *Result {
	return &Result{
		RecordID: recordID,
		Errors:   []error{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
			DryRun:    dryRun,
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}

// IsSuccess returns true if no fact failed.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Err joins the per-fact errors, or returns nil.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// HasChanges returns true if the plan writes anything.
func (r *Result) HasChanges() bool {
	return r.Plan != nil && r.Plan.HasWrites()
}

// WasApplied returns true if writes were persisted.
func (r *Result) WasApplied() bool {
	return r.Persisted != nil
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	o := r.Outcome
	counts := fmt.Sprintf("%d satisfied, %d augmented, %d added, %d removed, %d skipped, %d rejected",
		o.Satisfied, o.Augmented, o.Added, o.Removed, o.Skipped, o.Rejected)

	switch {
	case r.Skipped:
		return fmt.Sprintf("%s skipped by hook", r.RecordID)
	case r.Metadata.DryRun && r.HasChanges():
		return fmt.Sprintf("%s dry run: %s", r.RecordID, counts)
	case r.WasApplied():
		return fmt.Sprintf("%s edited (revision %d): %s", r.RecordID, r.Persisted.Revision, counts)
	case r.HasChanges():
		return fmt.Sprintf("%s changes planned but not applied: %s", r.RecordID, counts)
	default:
		return fmt.Sprintf("%s up to date: %s", r.RecordID, counts)
	}
}
