// Package equivalence decides whether an existing fact already asserts what a
// desired fact asks for, and which desired qualifiers and references an
// existing fact still lacks.
package equivalence

import (
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/values"
)

// TieBreaker chooses among several equivalent existing facts. candidates
// holds indexes into facts in enumeration order and is never empty; the
// returned value must be one of them.
type TieBreaker func(candidates []int, facts []claims.Fact) int

// FirstMatch binds to the first equivalent fact in enumeration order.
func FirstMatch(candidates []int, _ []claims.Fact) int {
	return candidates[0]
}

// PreferNonDeprecated binds to the first equivalent fact that is not
// deprecated, falling back to the first match.
func PreferNonDeprecated(candidates []int, facts []claims.Fact) int {
	for _, i := range candidates {
		if facts[i].Rank != claims.RankDeprecated {
			return i
		}
	}
	return candidates[0]
}

// Matcher implements the equivalence rules. The zero value is not usable;
// call New.
type Matcher struct {
	respectDeprecated bool
	tieBreak          TieBreaker
	equal             values.EqualFunc
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithRespectDeprecatedRank controls whether deprecated facts are eligible
// matches. Defaults to true: a deprecated fact is not absent.
func WithRespectDeprecatedRank(respect bool) Option {
	return func(m *Matcher) { m.respectDeprecated = respect }
}

// WithTieBreaker overrides FirstMatch.
func WithTieBreaker(tb TieBreaker) Option {
	return func(m *Matcher) {
		if tb != nil {
			m.tieBreak = tb
		}
	}
}

// WithValueEqual replaces values.Equal. The function must still be an
// equivalence relation or planning becomes order dependent.
func WithValueEqual(eq values.EqualFunc) Option {
	return func(m *Matcher) {
		if eq != nil {
			m.equal = eq
		}
	}
}

// New returns a Matcher.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		respectDeprecated: true,
		tieBreak:          FirstMatch,
		equal:             values.Equal,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SnakEqual reports whether two snaks share a property and equivalent values.
func (m *Matcher) SnakEqual(a, b claims.Snak) bool {
	return a.Property == b.Property && m.equal(a.Value, b.Value)
}

// Candidates returns the indexes of every eligible fact equivalent to the
// desired fact's main snak, in enumeration order.
func (m *Matcher) Candidates(existing []claims.Fact, desired claims.DesiredFact) []int {
	var out []int
	want := desired.Snak()
	for i, f := range existing {
		if f.Property != want.Property {
			continue
		}
		if !m.respectDeprecated && f.Rank == claims.RankDeprecated {
			continue
		}
		if m.equal(f.Value, want.Value) {
			out = append(out, i)
		}
	}
	return out
}

// FindMatchingFact returns the index of the existing fact the desired fact
// binds to.
func (m *Matcher) FindMatchingFact(existing []claims.Fact, desired claims.DesiredFact) (int, bool) {
	return m.FindMatchingFactWith(existing, desired, nil)
}

// FindMatchingFactWith is FindMatchingFact restricted to facts that already
// carry every snak in required as a qualifier.
func (m *Matcher) FindMatchingFactWith(existing []claims.Fact, desired claims.DesiredFact, required []claims.Snak) (int, bool) {
	candidates := m.Candidates(existing, desired)
	if len(required) > 0 {
		kept := candidates[:0]
		for _, i := range candidates {
			if m.hasAll(existing[i].Qualifiers, required) {
				kept = append(kept, i)
			}
		}
		candidates = kept
	}
	if len(candidates) == 0 {
		return -1, false
	}
	return m.tieBreak(candidates, existing), true
}

// HasQualifier reports whether fact carries a qualifier equivalent to s.
func (m *Matcher) HasQualifier(fact claims.Fact, s claims.Snak) bool {
	return m.contains(fact.Qualifiers, s)
}

// MissingQualifiers returns the desired qualifiers fact does not carry. Each
// desired value needs its own equivalent qualifier; another value under the
// same property does not count. Duplicates collapse.
func (m *Matcher) MissingQualifiers(fact claims.Fact, desired []claims.DesiredQualifier) []claims.DesiredQualifier {
	var missing []claims.DesiredQualifier
	for _, q := range desired {
		if m.contains(fact.Qualifiers, q.Snak()) {
			continue
		}
		if q.SkipsIfConflicting() && len(fact.QualifiersFor(q.Property())) > 0 {
			continue
		}
		duplicate := false
		for _, prev := range missing {
			if m.SnakEqual(prev.Snak(), q.Snak()) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			missing = append(missing, q)
		}
	}
	return missing
}

// MissingReferences returns the desired references no existing reference of
// fact satisfies. References are atomic: one absent snak makes the whole
// desired reference missing.
func (m *Matcher) MissingReferences(fact claims.Fact, desired []claims.DesiredReference) []claims.DesiredReference {
	var missing []claims.DesiredReference
	for _, r := range desired {
		if m.referencePresent(fact.References, r) {
			continue
		}
		duplicate := false
		for _, prev := range missing {
			if m.sameSnakSet(matchSnaks(prev), matchSnaks(r)) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			missing = append(missing, r)
		}
	}
	return missing
}

// ReferenceSatisfied reports whether existing holds every matching snak of
// desired. Extra snaks on existing do not matter.
func (m *Matcher) ReferenceSatisfied(existing claims.Reference, desired claims.DesiredReference) bool {
	return m.hasAll(existing.Snaks, matchSnaks(desired))
}

func (m *Matcher) referencePresent(refs []claims.Reference, desired claims.DesiredReference) bool {
	for _, ref := range refs {
		if m.ReferenceSatisfied(ref, desired) {
			return true
		}
	}
	return false
}

// matchSnaks falls back to all snaks for references made only of volatile ones.
func matchSnaks(r claims.DesiredReference) []claims.Snak {
	if s := r.Snaks(); len(s) > 0 {
		return s
	}
	return r.AllSnaks()
}

func (m *Matcher) sameSnakSet(a, b []claims.Snak) bool {
	return m.hasAll(a, b) && m.hasAll(b, a)
}

func (m *Matcher) hasAll(have, want []claims.Snak) bool {
	for _, s := range want {
		if !m.contains(have, s) {
			return false
		}
	}
	return true
}

func (m *Matcher) contains(have []claims.Snak, s claims.Snak) bool {
	for _, h := range have {
		if m.SnakEqual(h, s) {
			return true
		}
	}
	return false
}
