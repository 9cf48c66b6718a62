package claims

import (
	"github.com/agentstation/factmap/pkg/values"
)

// Removal names an existing fact the caller wants deleted, either by
// statement ID or by property and value. Removals are ignored unless manual
// removal is enabled.
type Removal struct {
	FactID   string
	Property PropertyID
	Value    values.Value
}

// RemoveFact names a statement by ID.
func RemoveFact(id string) Removal {
	return Removal{FactID: id}
}

// RemoveValue names every statement of property with a value equivalent to v.
func RemoveValue(property PropertyID, v values.Value) Removal {
	return Removal{Property: property, Value: v}
}

// Matches reports whether the removal names fact.
func (r Removal) Matches(fact Fact) bool {
	if r.FactID != "" {
		return fact.ID == r.FactID
	}
	return fact.Property == r.Property && values.Equal(fact.Value, r.Value)
}

// Bundle is the complete change-set a caller wants for one record. Fact
// order sets creation priority.
type Bundle struct {
	Facts    []DesiredFact
	Removals []Removal
}

// NewBundle returns a bundle of facts.
func NewBundle(facts ...DesiredFact) Bundle {
	return Bundle{Facts: facts}
}

// Add appends facts.
func (b *Bundle) Add(facts ...DesiredFact) {
	b.Facts = append(b.Facts, facts...)
}

// Remove appends removal directives.
func (b *Bundle) Remove(removals ...Removal) {
	b.Removals = append(b.Removals, removals...)
}

// Clone returns a bundle whose slices are not shared with b.
func (b Bundle) Clone() Bundle {
	return Bundle{
		Facts:    append([]DesiredFact(nil), b.Facts...),
		Removals: append([]Removal(nil), b.Removals...),
	}
}

// Empty reports whether the bundle carries nothing.
func (b Bundle) Empty() bool {
	return len(b.Facts) == 0 && len(b.Removals) == 0
}
