// Package values implements the value model of facts: a tagged variant over
// the Wikibase value kinds, with equality dispatched through a table indexed by
// kind rather than by inspecting dynamic types.
package values

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the value kinds a snak can carry.
type Kind uint8

const (
	// KindInvalid is the zero Kind; a zero Value is never equal to anything.
	KindInvalid Kind = iota
	// KindEntity references an item, property, lexeme or media-info entity.
	KindEntity
	// KindString is a plain string (also commons media, math, geo-shape).
	KindString
	// KindMonolingual is a text with a language tag.
	KindMonolingual
	// KindQuantity is a decimal amount with optional bounds and unit.
	KindQuantity
	// KindTime is a Wikibase timestamp with precision and calendar model.
	KindTime
	// KindCoordinate is a globe coordinate.
	KindCoordinate
	// KindExternalID is an identifier in an external database.
	KindExternalID
	// KindURL is a URL.
	KindURL
	// KindSomeValue is the "unknown value" snak.
	KindSomeValue
	// KindNoValue is the "no value" snak.
	KindNoValue

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid:     "invalid",
	KindEntity:      "entity",
	KindString:      "string",
	KindMonolingual: "monolingualtext",
	KindQuantity:    "quantity",
	KindTime:        "time",
	KindCoordinate:  "globecoordinate",
	KindExternalID:  "external-id",
	KindURL:         "url",
	KindSomeValue:   "somevalue",
	KindNoValue:     "novalue",
}

// String returns the kind's wire name.
func (k Kind) String() string {
	if k >= numKinds {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// Value is an immutable fact value. Only the payload matching Kind is set.
type Value struct {
	kind  Kind
	text  string
	lang  string
	qty   Quantity
	time  Time
	coord Coordinate
}

// Entity returns an entity reference. URL forms are reduced to the bare ID.
func Entity(id string) Value {
	return Value{kind: KindEntity, text: normalizeEntityID(id)}
}

// String returns a plain string value.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Monolingual returns a text value tagged with a language code.
func Monolingual(text, language string) Value {
	return Value{kind: KindMonolingual, text: text, lang: language}
}

// ExternalID returns an external identifier value.
func ExternalID(id string) Value {
	return Value{kind: KindExternalID, text: id}
}

// URL returns a URL value.
func URL(u string) Value {
	return Value{kind: KindURL, text: u}
}

// SomeValue returns the "unknown value" placeholder.
func SomeValue() Value {
	return Value{kind: KindSomeValue}
}

// NoValue returns the "no value" placeholder.
func NoValue() Value {
	return Value{kind: KindNoValue}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero reports whether v is the zero Value.
func (v Value) IsZero() bool {
	return v.kind == KindInvalid
}

// Text returns the textual payload of entity, string, monolingual,
// external-id and URL values.
func (v Value) Text() string {
	return v.text
}

// Language returns the language tag of a monolingual value.
func (v Value) Language() string {
	return v.lang
}

// Quantity returns the quantity payload.
func (v Value) Quantity() (Quantity, bool) {
	return v.qty, v.kind == KindQuantity
}

// Time returns the time payload.
func (v Value) Time() (Time, bool) {
	return v.time, v.kind == KindTime
}

// Coordinate returns the coordinate payload.
func (v Value) Coordinate() (Coordinate, bool) {
	return v.coord, v.kind == KindCoordinate
}

// String renders the value for logs and tables.
func (v Value) String() string {
	switch v.kind {
	case KindEntity:
		return v.text
	case KindString, KindExternalID, KindURL:
		return strconv.Quote(v.text)
	case KindMonolingual:
		return strconv.Quote(v.text) + "@" + v.lang
	case KindQuantity:
		var b strings.Builder
		b.WriteString(v.qty.Amount)
		if v.qty.HasBounds() {
			fmt.Fprintf(&b, " [%s, %s]", v.qty.LowerBound, v.qty.UpperBound)
		}
		if !v.qty.Unitless() {
			b.WriteString(" ")
			b.WriteString(v.qty.Unit)
		}
		return b.String()
	case KindTime:
		return fmt.Sprintf("%s/%d", v.time.Timestamp, v.time.Precision)
	case KindCoordinate:
		return fmt.Sprintf("%g,%g", v.coord.Latitude, v.coord.Longitude)
	case KindSomeValue:
		return "<somevalue>"
	case KindNoValue:
		return "<novalue>"
	default:
		return "<invalid>"
	}
}
