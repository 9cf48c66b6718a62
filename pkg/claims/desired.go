package claims

import (
	"time"

	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/values"
)

// DesiredQualifier is a qualifier the caller wants on a fact.
type DesiredQualifier struct {
	snak              Snak
	forceNewFact      bool
	skipIfConflicting bool
}

// QualifierOption configures a DesiredQualifier.
type QualifierOption func(*DesiredQualifier)

// ForceNewFact makes the owning fact a separate statement unless an existing
// statement already carries this exact qualifier value. Use it for qualifiers
// such as start/end times that distinguish otherwise identical statements.
func ForceNewFact() QualifierOption {
	return func(q *DesiredQualifier) { q.forceNewFact = true }
}

// SkipQualifierIfConflicting leaves the qualifier out when the target fact
// already has any value for its property.
func SkipQualifierIfConflicting() QualifierOption {
	return func(q *DesiredQualifier) { q.skipIfConflicting = true }
}

// NewQualifier returns a desired qualifier.
func NewQualifier(property PropertyID, value values.Value, opts ...QualifierOption) DesiredQualifier {
	q := DesiredQualifier{snak: NewSnak(property, value)}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Snak returns the qualifier's property/value pair.
func (q DesiredQualifier) Snak() Snak { return q.snak }

// Property returns the qualifier property.
func (q DesiredQualifier) Property() PropertyID { return q.snak.Property }

// Value returns the qualifier value.
func (q DesiredQualifier) Value() values.Value { return q.snak.Value }

// ForcesNewFact reports whether ForceNewFact was set.
func (q DesiredQualifier) ForcesNewFact() bool { return q.forceNewFact }

// SkipsIfConflicting reports whether SkipQualifierIfConflicting was set.
func (q DesiredQualifier) SkipsIfConflicting() bool { return q.skipIfConflicting }

// DesiredReference is a citation the caller wants on a fact. Volatile snaks
// are written with the reference but ignored when looking for an existing
// equivalent, so a retrieval date does not produce a new reference per run.
type DesiredReference struct {
	snaks    []Snak
	volatile []Snak
}

// Snaks returns the snaks used for matching.
func (r DesiredReference) Snaks() []Snak {
	return append([]Snak(nil), r.snaks...)
}

// VolatileSnaks returns the snaks ignored for matching.
func (r DesiredReference) VolatileSnaks() []Snak {
	return append([]Snak(nil), r.volatile...)
}

// AllSnaks returns every snak to write, matching snaks first.
func (r DesiredReference) AllSnaks() []Snak {
	out := make([]Snak, 0, len(r.snaks)+len(r.volatile))
	out = append(out, r.snaks...)
	return append(out, r.volatile...)
}

// HasProperty reports whether any snak uses the property.
func (r DesiredReference) HasProperty(property PropertyID) bool {
	for _, s := range r.AllSnaks() {
		if s.Property == property {
			return true
		}
	}
	return false
}

// WithVolatile returns a copy with an extra volatile snak.
func (r DesiredReference) WithVolatile(s Snak) DesiredReference {
	r.snaks = append([]Snak(nil), r.snaks...)
	r.volatile = append(append([]Snak(nil), r.volatile...), s)
	return r
}

// Reference returns the reference as it would be stored.
func (r DesiredReference) Reference() Reference {
	return Reference{Snaks: r.AllSnaks()}
}

// ReferenceBuilder composes a DesiredReference.
type ReferenceBuilder struct {
	ref DesiredReference
}

// NewReference starts a reference.
func NewReference() *ReferenceBuilder {
	return &ReferenceBuilder{}
}

// Snak adds a matching snak.
func (b *ReferenceBuilder) Snak(property PropertyID, value values.Value) *ReferenceBuilder {
	b.ref.snaks = append(b.ref.snaks, NewSnak(property, value))
	return b
}

// URL adds a reference URL (P854) snak.
func (b *ReferenceBuilder) URL(u string) *ReferenceBuilder {
	return b.Snak(constants.PropertyReferenceURL, values.URL(u))
}

// Volatile adds a snak that is written but not matched.
func (b *ReferenceBuilder) Volatile(property PropertyID, value values.Value) *ReferenceBuilder {
	b.ref.volatile = append(b.ref.volatile, NewSnak(property, value))
	return b
}

// RetrievedOn adds a volatile retrieved (P813) date at day precision.
func (b *ReferenceBuilder) RetrievedOn(t time.Time) *ReferenceBuilder {
	return b.Volatile(constants.PropertyRetrieved, values.Date(t, values.PrecisionDay))
}

// Build freezes the reference.
func (b *ReferenceBuilder) Build() DesiredReference {
	return DesiredReference{
		snaks:    append([]Snak(nil), b.ref.snaks...),
		volatile: append([]Snak(nil), b.ref.volatile...),
	}
}

// DesiredFact is an immutable staged statement. Use NewFact to build one and
// the With methods to derive modified copies.
type DesiredFact struct {
	snak                      Snak
	rank                      Rank
	rankSet                   bool
	qualifiers                []DesiredQualifier
	references                []DesiredReference
	skipIfConflicting         bool
	skipIfConflictingLanguage bool
	referenceOnly             bool
}

// Snak returns the main property/value pair.
func (f DesiredFact) Snak() Snak { return f.snak }

// Property returns the main property.
func (f DesiredFact) Property() PropertyID { return f.snak.Property }

// Value returns the main value.
func (f DesiredFact) Value() values.Value { return f.snak.Value }

// Rank returns the requested rank, if one was set.
func (f DesiredFact) Rank() (Rank, bool) { return f.rank, f.rankSet }

// Qualifiers returns a copy of the desired qualifiers.
func (f DesiredFact) Qualifiers() []DesiredQualifier {
	return append([]DesiredQualifier(nil), f.qualifiers...)
}

// References returns a copy of the desired references.
func (f DesiredFact) References() []DesiredReference {
	return append([]DesiredReference(nil), f.references...)
}

// SkipsIfConflicting reports whether the fact is dropped when the property
// already has other values.
func (f DesiredFact) SkipsIfConflicting() bool { return f.skipIfConflicting }

// SkipsIfConflictingLanguage reports whether a monolingual fact is dropped when
// the property already has a value in the same language.
func (f DesiredFact) SkipsIfConflictingLanguage() bool { return f.skipIfConflictingLanguage }

// ReferenceOnly reports whether the fact may only augment an existing statement.
func (f DesiredFact) ReferenceOnly() bool { return f.referenceOnly }

// WithValue returns a copy with a different main value.
func (f DesiredFact) WithValue(v values.Value) DesiredFact {
	f = f.clone()
	f.snak.Value = v
	return f
}

// WithRank returns a copy with an explicit rank.
func (f DesiredFact) WithRank(r Rank) DesiredFact {
	f = f.clone()
	f.rank, f.rankSet = r, true
	return f
}

// WithQualifier returns a copy with an extra qualifier.
func (f DesiredFact) WithQualifier(q DesiredQualifier) DesiredFact {
	f = f.clone()
	f.qualifiers = append(f.qualifiers, q)
	return f
}

// WithReferences returns a copy whose references are replaced.
func (f DesiredFact) WithReferences(refs []DesiredReference) DesiredFact {
	f = f.clone()
	f.references = append([]DesiredReference(nil), refs...)
	return f
}

// Validate checks the main snak, qualifiers and reference snaks.
func (f DesiredFact) Validate() error {
	if err := f.snak.Validate(); err != nil {
		return err
	}
	for _, q := range f.qualifiers {
		if err := q.snak.Validate(); err != nil {
			return err
		}
	}
	for _, r := range f.references {
		for _, s := range r.AllSnaks() {
			if err := s.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AsFact returns the statement this desired fact would create.
func (f DesiredFact) AsFact() Fact {
	fact := Fact{
		Property: f.snak.Property,
		Value:    f.snak.Value,
		Rank:     f.rank,
	}
	for _, q := range f.qualifiers {
		fact.Qualifiers = append(fact.Qualifiers, q.snak)
	}
	for _, r := range f.references {
		fact.References = append(fact.References, r.Reference())
	}
	return fact
}

func (f DesiredFact) clone() DesiredFact {
	f.qualifiers = append([]DesiredQualifier(nil), f.qualifiers...)
	f.references = append([]DesiredReference(nil), f.references...)
	return f
}

// FactBuilder composes a DesiredFact.
type FactBuilder struct {
	fact DesiredFact
}

// NewFact starts a desired fact for property and value.
func NewFact(property PropertyID, value values.Value) *FactBuilder {
	return &FactBuilder{fact: DesiredFact{snak: NewSnak(property, value)}}
}

// Qualifier adds a qualifier.
func (b *FactBuilder) Qualifier(property PropertyID, value values.Value, opts ...QualifierOption) *FactBuilder {
	b.fact.qualifiers = append(b.fact.qualifiers, NewQualifier(property, value, opts...))
	return b
}

// Reference adds a reference.
func (b *FactBuilder) Reference(ref DesiredReference) *FactBuilder {
	b.fact.references = append(b.fact.references, ref)
	return b
}

// Rank requests an explicit rank.
func (b *FactBuilder) Rank(r Rank) *FactBuilder {
	b.fact.rank, b.fact.rankSet = r, true
	return b
}

// SkipIfConflicting drops the fact when the property already holds other values.
func (b *FactBuilder) SkipIfConflicting() *FactBuilder {
	b.fact.skipIfConflicting = true
	return b
}

// SkipIfConflictingLanguage drops a monolingual fact when the property already
// holds a value in the same language.
func (b *FactBuilder) SkipIfConflictingLanguage() *FactBuilder {
	b.fact.skipIfConflictingLanguage = true
	return b
}

// ReferenceOnly restricts the fact to augmenting an existing statement.
func (b *FactBuilder) ReferenceOnly() *FactBuilder {
	b.fact.referenceOnly = true
	return b
}

// Build freezes the fact. The builder may keep being used without affecting
// facts already built.
func (b *FactBuilder) Build() DesiredFact {
	return b.fact.clone()
}
