// Package planner classifies each desired fact of a bundle against the
// current state of a record and turns the decisions into writes.
package planner

import (
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/equivalence"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/values"
)

// Planner is stateless and safe for concurrent use.
type Planner struct {
	matcher      *equivalence.Matcher
	alwaysNew    map[claims.PropertyID]bool
	unitRequired map[claims.PropertyID]bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithMatcher replaces the default equivalence matcher.
func WithMatcher(m *equivalence.Matcher) Option {
	return func(p *Planner) {
		if m != nil {
			p.matcher = m
		}
	}
}

// WithAlwaysAddNewFactForQualifier treats every desired qualifier of the
// given properties as if it forced a new fact.
func WithAlwaysAddNewFactForQualifier(props ...claims.PropertyID) Option {
	return func(p *Planner) {
		for _, prop := range props {
			p.alwaysNew[prop] = true
		}
	}
}

// WithUnitRequired rejects unit-less quantities on the given properties.
func WithUnitRequired(props ...claims.PropertyID) Option {
	return func(p *Planner) {
		for _, prop := range props {
			p.unitRequired[prop] = true
		}
	}
}

// New returns a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		matcher:      equivalence.New(),
		alwaysNew:    make(map[claims.PropertyID]bool),
		unitRequired: make(map[claims.PropertyID]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Matcher returns the equivalence matcher in use.
func (p *Planner) Matcher() *equivalence.Matcher {
	return p.matcher
}

// Candidates is the set of facts a desired fact may bind to: the record's
// facts that are not being removed, plus statements pending creation earlier
// in the same bundle.
type Candidates struct {
	facts   []claims.Fact
	handles []Handle
}

// NewCandidates returns the record's facts minus the removed ones.
func NewCandidates(record *claims.Record, removed []Handle) *Candidates {
	skip := make(map[int]bool, len(removed))
	for _, h := range removed {
		skip[h.Index] = true
	}
	c := &Candidates{}
	if record == nil {
		return c
	}
	for i, f := range record.Facts {
		if skip[i] {
			continue
		}
		c.facts = append(c.facts, copyFact(f))
		c.handles = append(c.handles, Handle{Index: i, ID: f.ID})
	}
	return c
}

// Len returns the number of candidates.
func (c *Candidates) Len() int {
	return len(c.facts)
}

// apply folds a committed entry into the candidate view.
func (c *Candidates) apply(e *Entry) {
	switch e.Classification {
	case AddNew:
		c.facts = append(c.facts, payloadFact(e))
		c.handles = append(c.handles, Handle{Index: e.Index, Pending: true})
	case AugmentExisting:
		for i, h := range c.handles {
			if h == e.Target {
				mergeInto(&c.facts[i], e)
				return
			}
		}
	}
}

// Classify decides what to do with one desired fact. It never returns
// Unclassified.
func (p *Planner) Classify(record *claims.Record, candidates *Candidates, desired claims.DesiredFact) Entry {
	e := Entry{Desired: desired, Target: noHandle}
	if err := p.validate(desired); err != nil {
		e.Classification = Rejected
		e.Err = err
		return e
	}

	forced := p.forcedQualifiers(desired)
	idx, ok := p.matcher.FindMatchingFactWith(candidates.facts, desired, forced)
	if !ok {
		p.classifyUnmatched(candidates, desired, forced, &e)
		return e
	}

	fact := candidates.facts[idx]
	e.Target = candidates.handles[idx]
	e.MissingQualifiers = p.matcher.MissingQualifiers(fact, desired.Qualifiers())
	e.MissingReferences = p.matcher.MissingReferences(fact, desired.References())
	if r, set := desired.Rank(); set && r != fact.Rank {
		e.RankChange = &r
		e.Reasons = append(e.Reasons, ReasonDifferentRank)
	}
	for _, q := range e.MissingQualifiers {
		if len(fact.QualifiersFor(q.Property())) == 0 {
			e.Reasons = appendReason(e.Reasons, ReasonMissingQualifierProperty)
		} else {
			e.Reasons = appendReason(e.Reasons, ReasonMissingQualifierValue)
		}
	}
	if len(e.MissingReferences) > 0 {
		e.Reasons = append(e.Reasons, ReasonMissingReference)
	}

	e.Classification = AugmentExisting
	if !e.HasPayload() {
		e.Classification = Satisfied
		e.Reasons = nil
	}
	return e
}

func (p *Planner) classifyUnmatched(candidates *Candidates, desired claims.DesiredFact, forced []claims.Snak, e *Entry) {
	if desired.ReferenceOnly() {
		e.Skip("no existing statement to reference")
		return
	}

	var sameProperty, sameValue, conflicting, conflictingLanguage bool
	want := desired.Snak()
	for _, f := range candidates.facts {
		if f.Property != want.Property {
			continue
		}
		sameProperty = true
		if p.matcher.SnakEqual(f.MainSnak(), want) {
			sameValue = true
			continue
		}
		conflicting = true
		if want.Value.Kind() == values.KindMonolingual && f.Value.Kind() == values.KindMonolingual &&
			f.Value.Language() == want.Value.Language() {
			conflictingLanguage = true
		}
	}

	switch {
	case desired.SkipsIfConflicting() && conflicting:
		e.Skip("property already has other values")
		return
	case desired.SkipsIfConflictingLanguage() && conflictingLanguage:
		e.Skip("property already has a value in this language")
		return
	}

	e.Classification = AddNew
	switch {
	case len(forced) > 0 && sameValue:
		e.Reasons = []Reason{ReasonNewClaimFromQualifier}
	case sameProperty:
		e.Reasons = []Reason{ReasonMissingValue}
	default:
		e.Reasons = []Reason{ReasonMissingProperty}
	}
	var empty claims.Fact
	e.MissingQualifiers = p.matcher.MissingQualifiers(empty, desired.Qualifiers())
	e.MissingReferences = p.matcher.MissingReferences(empty, desired.References())
}

// validate checks every snak of the fact and the unit requirement.
func (p *Planner) validate(desired claims.DesiredFact) error {
	if err := desired.Validate(); err != nil {
		return err
	}
	check := func(s claims.Snak) error {
		if !p.unitRequired[s.Property] {
			return nil
		}
		if err := values.RequireUnit(s.Value); err != nil {
			var mv *errors.MalformedValueError
			if errors.As(err, &mv) {
				mv.Property = string(s.Property)
			}
			return err
		}
		return nil
	}
	if err := check(desired.Snak()); err != nil {
		return err
	}
	for _, q := range desired.Qualifiers() {
		if err := check(q.Snak()); err != nil {
			return err
		}
	}
	return nil
}

// forcedQualifiers returns the qualifier values a matching statement must
// already carry.
func (p *Planner) forcedQualifiers(desired claims.DesiredFact) []claims.Snak {
	var forced []claims.Snak
	for _, q := range desired.Qualifiers() {
		if q.ForcesNewFact() || p.alwaysNew[q.Property()] {
			forced = append(forced, q.Snak())
		}
	}
	return forced
}

func appendReason(reasons []Reason, r Reason) []Reason {
	for _, have := range reasons {
		if have == r {
			return reasons
		}
	}
	return append(reasons, r)
}

// ResolveRemovals maps removal directives to the statements they name.
// Nothing is resolved unless allow is set; unresolved directives are
// returned as ignored.
func (p *Planner) ResolveRemovals(record *claims.Record, removals []claims.Removal, allow bool) ([]Handle, []claims.Removal) {
	if !allow || record == nil {
		return nil, append([]claims.Removal(nil), removals...)
	}
	var (
		handles []Handle
		ignored []claims.Removal
		seen    = make(map[int]bool)
	)
	for _, r := range removals {
		matched := false
		for i, f := range record.Facts {
			if !p.removalMatches(r, f) {
				continue
			}
			matched = true
			if !seen[i] {
				seen[i] = true
				handles = append(handles, Handle{Index: i, ID: f.ID})
			}
		}
		if !matched {
			ignored = append(ignored, r)
		}
	}
	return handles, ignored
}

func (p *Planner) removalMatches(r claims.Removal, f claims.Fact) bool {
	if r.FactID != "" {
		return f.ID == r.FactID
	}
	return p.matcher.SnakEqual(f.MainSnak(), claims.NewSnak(r.Property, r.Value))
}

// Session plans one bundle against one record, entry by entry. Callers that
// need to intervene between classification and commit use it directly;
// Plan drives it in one call.
type Session struct {
	planner    *Planner
	plan       *Plan
	candidates *Candidates
}

// Begin starts planning against record.
func (p *Planner) Begin(record *claims.Record, removals []claims.Removal, allowRemoval bool) *Session {
	handles, ignored := p.ResolveRemovals(record, removals, allowRemoval)
	plan := &Plan{
		Record:          record,
		Removals:        handles,
		IgnoredRemovals: ignored,
	}
	if record != nil {
		plan.RecordID = record.ID
		plan.BaseRevision = record.Revision
	}
	return &Session{
		planner:    p,
		plan:       plan,
		candidates: NewCandidates(record, handles),
	}
}

// Classify classifies the next desired fact without committing it.
func (s *Session) Classify(desired claims.DesiredFact) Entry {
	e := s.planner.Classify(s.plan.Record, s.candidates, desired)
	e.Index = len(s.plan.Entries)
	return e
}

// Commit appends the entry to the plan. An augment left with nothing to
// write becomes Skipped, as does a new statement that lost a qualifier it
// was forced to carry.
func (s *Session) Commit(e Entry) {
	e.Index = len(s.plan.Entries)
	switch e.Classification {
	case AugmentExisting:
		if !e.HasPayload() {
			e.Skip("nothing left to write")
		}
	case AddNew:
		if !s.keepsForced(&e) {
			e.Skip("forced qualifier dropped")
		}
	case Unclassified:
		e.Skip("unclassified")
	}
	s.plan.Entries = append(s.plan.Entries, e)
	s.candidates.apply(&s.plan.Entries[e.Index])
}

func (s *Session) keepsForced(e *Entry) bool {
	for _, want := range s.planner.forcedQualifiers(e.Desired) {
		found := false
		for _, q := range e.MissingQualifiers {
			if s.planner.matcher.SnakEqual(q.Snak(), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Skip commits desired as Skipped without classifying it.
func (s *Session) Skip(desired claims.DesiredFact, reason string) {
	e := Entry{Desired: desired, Target: noHandle}
	e.Skip(reason)
	s.Commit(e)
}

// Plan returns the plan built so far.
func (s *Session) Plan() *Plan {
	return s.plan
}

// Plan classifies every fact of the bundle in order.
func (p *Planner) Plan(record *claims.Record, bundle claims.Bundle, allowRemoval bool) *Plan {
	s := p.Begin(record, bundle.Removals, allowRemoval)
	for _, df := range bundle.Facts {
		s.Commit(s.Classify(df))
	}
	return s.Plan()
}
