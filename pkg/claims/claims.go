// Package claims defines the facts of a record as fetched from the store and
// the desired facts a caller stages for reconciliation.
package claims

import (
	"fmt"
	"strings"

	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/values"
)

// PropertyID identifies a property, e.g. P31.
type PropertyID string

// Validate checks that p is a property ID.
func (p PropertyID) Validate() error {
	if !strings.HasPrefix(string(p), "P") || !values.IsEntityID(string(p)) {
		return errors.NewValidationError("property", string(p), "not a property ID")
	}
	return nil
}

// Rank is the priority marker of a fact.
type Rank int8

// Ranks in Wikibase order.
const (
	RankNormal Rank = iota
	RankPreferred
	RankDeprecated
)

// String returns the wire form of the rank.
func (r Rank) String() string {
	switch r {
	case RankPreferred:
		return "preferred"
	case RankDeprecated:
		return "deprecated"
	default:
		return "normal"
	}
}

// ParseRank parses the wire form of a rank.
func ParseRank(s string) (Rank, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "":
		return RankNormal, nil
	case "preferred":
		return RankPreferred, nil
	case "deprecated":
		return RankDeprecated, nil
	}
	return RankNormal, errors.NewValidationError("rank", s, "must be normal, preferred or deprecated")
}

// Snak is a single property/value pair.
type Snak struct {
	Property PropertyID
	Value    values.Value
}

// NewSnak returns a snak.
func NewSnak(property PropertyID, value values.Value) Snak {
	return Snak{Property: property, Value: value}
}

// Equal reports whether both snaks share a property and equivalent values.
func (s Snak) Equal(other Snak) bool {
	return s.Property == other.Property && values.Equal(s.Value, other.Value)
}

// Validate checks the property ID and the value. Value failures are
// returned as *errors.MalformedValueError tagged with the property.
func (s Snak) Validate() error {
	if err := s.Property.Validate(); err != nil {
		return errors.NewMalformedValueError(s.Value.Kind().String(), s.Value.String(), err.Error())
	}
	if err := s.Value.Validate(); err != nil {
		var mv *errors.MalformedValueError
		if errors.As(err, &mv) {
			mv.Property = string(s.Property)
		}
		return err
	}
	return nil
}

// String renders the snak as "P31=Q5".
func (s Snak) String() string {
	return fmt.Sprintf("%s=%s", s.Property, s.Value)
}

// Reference is one citation: an unordered set of snaks.
type Reference struct {
	Hash  string
	Snaks []Snak
}

// Fact is a statement currently on a record. ID is the store's statement GUID.
type Fact struct {
	ID         string
	Property   PropertyID
	Value      values.Value
	Rank       Rank
	Qualifiers []Snak
	References []Reference
}

// MainSnak returns the fact's property/value pair.
func (f Fact) MainSnak() Snak {
	return Snak{Property: f.Property, Value: f.Value}
}

// QualifiersFor returns the qualifiers with the given property.
func (f Fact) QualifiersFor(property PropertyID) []Snak {
	var out []Snak
	for _, q := range f.Qualifiers {
		if q.Property == property {
			out = append(out, q)
		}
	}
	return out
}

// Record is a read-only snapshot of one entity's facts, in store order.
type Record struct {
	ID       string
	Revision int64
	Facts    []Fact
}

// FactsFor returns the facts with the given property.
func (r *Record) FactsFor(property PropertyID) []Fact {
	var out []Fact
	for _, f := range r.Facts {
		if f.Property == property {
			out = append(out, f)
		}
	}
	return out
}

// FactByID returns the index of the fact with the given statement ID.
func (r *Record) FactByID(id string) (int, bool) {
	for i, f := range r.Facts {
		if f.ID == id {
			return i, true
		}
	}
	return -1, false
}
