package planner

import (
	"github.com/agentstation/factmap/pkg/claims"
)

// Entry is the decision for one desired fact. MissingQualifiers and
// MissingReferences hold what will be written: the additions for an
// AugmentExisting entry and the full payload for an AddNew entry.
type Entry struct {
	Index             int
	Desired           claims.DesiredFact
	Classification    Classification
	Target            Handle
	MissingQualifiers []claims.DesiredQualifier
	MissingReferences []claims.DesiredReference
	RankChange        *claims.Rank
	Reasons           []Reason
	SkipReason        string
	Err               error
}

// HasPayload reports whether the entry carries anything to write.
func (e *Entry) HasPayload() bool {
	switch e.Classification {
	case AddNew:
		return true
	case AugmentExisting:
		return len(e.MissingQualifiers) > 0 || len(e.MissingReferences) > 0 || e.RankChange != nil
	}
	return false
}

// Skip marks the entry skipped and clears its payload.
func (e *Entry) Skip(reason string) {
	e.Classification = Skipped
	e.SkipReason = reason
	e.MissingQualifiers = nil
	e.MissingReferences = nil
	e.RankChange = nil
	e.Reasons = nil
}

// NewClaimAdded reports whether the entry creates a statement.
func (e *Entry) NewClaimAdded() bool {
	return e.Classification == AddNew
}

// ClaimModified reports whether the entry creates a statement or changes
// an existing statement's rank.
func (e *Entry) ClaimModified() bool {
	return e.NewClaimAdded() || (e.Classification == AugmentExisting && e.RankChange != nil)
}

// Outcome counts entries per classification.
type Outcome struct {
	Satisfied int
	Augmented int
	Added     int
	Skipped   int
	Rejected  int
	Removed   int
}

// Changed reports whether the plan writes anything.
func (o Outcome) Changed() bool {
	return o.Augmented+o.Added+o.Removed > 0
}

// Total returns the number of classified entries.
func (o Outcome) Total() int {
	return o.Satisfied + o.Augmented + o.Added + o.Skipped + o.Rejected
}

// Plan is the reconciliation result for one record.
type Plan struct {
	RecordID        string
	BaseRevision    int64
	Record          *claims.Record
	Entries         []Entry
	Removals        []Handle
	IgnoredRemovals []claims.Removal
}

// Outcome tallies the plan.
func (p *Plan) Outcome() Outcome {
	var o Outcome
	for i := range p.Entries {
		switch p.Entries[i].Classification {
		case Satisfied:
			o.Satisfied++
		case AugmentExisting:
			o.Augmented++
		case AddNew:
			o.Added++
		case Skipped:
			o.Skipped++
		case Rejected:
			o.Rejected++
		}
	}
	o.Removed = len(p.Removals)
	return o
}

// HasWrites reports whether persisting the plan would change the record.
func (p *Plan) HasWrites() bool {
	return p.Outcome().Changed()
}

// Errors returns the errors of rejected entries.
func (p *Plan) Errors() []error {
	var errs []error
	for i := range p.Entries {
		if p.Entries[i].Err != nil {
			errs = append(errs, p.Entries[i].Err)
		}
	}
	return errs
}

// WriteKind is the kind of a persistence operation.
type WriteKind uint8

// Write kinds.
const (
	WriteCreate WriteKind = iota
	WriteUpdate
	WriteRemove
)

// String returns the write kind name.
func (k WriteKind) String() string {
	switch k {
	case WriteCreate:
		return "create"
	case WriteUpdate:
		return "update"
	default:
		return "remove"
	}
}

// Write is one persistence operation. Fact holds the complete statement to
// store: the new statement for a create, and the existing statement with the
// additions merged in for an update. A remove only sets FactID.
type Write struct {
	Kind    WriteKind
	FactID  string
	Fact    claims.Fact
	Entries []int
}

// Writes consolidates the plan into persistence operations: one create per
// AddNew entry with augments on the pending statement folded in, one update
// per touched existing statement, then one remove per resolved removal.
func (p *Plan) Writes() []Write {
	var writes []Write
	creates := make(map[int]int)
	updates := make(map[int]int)

	for i := range p.Entries {
		e := &p.Entries[i]
		switch e.Classification {
		case AddNew:
			creates[e.Index] = len(writes)
			writes = append(writes, Write{
				Kind:    WriteCreate,
				Fact:    payloadFact(e),
				Entries: []int{e.Index},
			})
		case AugmentExisting:
			var w *Write
			if e.Target.Pending {
				at, ok := creates[e.Target.Index]
				if !ok {
					continue
				}
				w = &writes[at]
			} else {
				at, ok := updates[e.Target.Index]
				if !ok {
					at = len(writes)
					updates[e.Target.Index] = at
					writes = append(writes, Write{
						Kind:   WriteUpdate,
						FactID: e.Target.ID,
						Fact:   copyFact(p.Record.Facts[e.Target.Index]),
					})
				}
				w = &writes[at]
			}
			mergeInto(&w.Fact, e)
			w.Entries = append(w.Entries, e.Index)
		}
	}

	for _, h := range p.Removals {
		writes = append(writes, Write{Kind: WriteRemove, FactID: h.ID})
	}
	return writes
}

// payloadFact is the statement an AddNew entry creates.
func payloadFact(e *Entry) claims.Fact {
	f := claims.Fact{
		Property: e.Desired.Property(),
		Value:    e.Desired.Value(),
	}
	if r, ok := e.Desired.Rank(); ok {
		f.Rank = r
	}
	for _, q := range e.MissingQualifiers {
		f.Qualifiers = append(f.Qualifiers, q.Snak())
	}
	for _, r := range e.MissingReferences {
		f.References = append(f.References, r.Reference())
	}
	return f
}

func mergeInto(f *claims.Fact, e *Entry) {
	for _, q := range e.MissingQualifiers {
		f.Qualifiers = append(f.Qualifiers, q.Snak())
	}
	for _, r := range e.MissingReferences {
		f.References = append(f.References, r.Reference())
	}
	if e.RankChange != nil {
		f.Rank = *e.RankChange
	}
}

func copyFact(f claims.Fact) claims.Fact {
	f.Qualifiers = append([]claims.Snak(nil), f.Qualifiers...)
	refs := make([]claims.Reference, len(f.References))
	for i, r := range f.References {
		refs[i] = claims.Reference{Hash: r.Hash, Snaks: append([]claims.Snak(nil), r.Snaks...)}
	}
	if len(refs) == 0 {
		refs = nil
	}
	f.References = refs
	return f
}
