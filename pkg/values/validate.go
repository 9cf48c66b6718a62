package values

import (
	"strings"

	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
)

// Validate checks the kind-specific rules of v and returns a
// *errors.MalformedValueError describing the first violation.
func (v Value) Validate() error {
	malformed := func(msg string) error {
		return errors.NewMalformedValueError(v.kind.String(), v.String(), msg)
	}

	switch v.kind {
	case KindEntity:
		if !IsEntityID(v.text) {
			return malformed("not an entity ID")
		}
	case KindString, KindExternalID, KindURL:
		if strings.TrimSpace(v.text) == "" {
			return malformed("empty")
		}
	case KindMonolingual:
		if v.text == "" {
			return malformed("empty text")
		}
		if v.lang == "" {
			return malformed("missing language")
		}
	case KindQuantity:
		return v.qty.validate(malformed)
	case KindTime:
		if !timestampPattern.MatchString(v.time.Timestamp) {
			return malformed("timestamp not in +YYYY-MM-DDThh:mm:ssZ form")
		}
		if v.time.Precision < PrecisionBillionYears || v.time.Precision > PrecisionSecond {
			return malformed("precision out of range")
		}
		if !IsEntityID(v.time.Calendar) {
			return malformed("calendar model is not an entity ID")
		}
	case KindCoordinate:
		c := v.coord
		if c.Latitude < -90 || c.Latitude > 90 {
			return malformed("latitude out of range")
		}
		if c.Longitude < -360 || c.Longitude > 360 {
			return malformed("longitude out of range")
		}
		if c.Precision < 0 {
			return malformed("negative precision")
		}
		if !IsEntityID(c.Globe) {
			return malformed("globe is not an entity ID")
		}
	case KindSomeValue, KindNoValue:
	default:
		return malformed("unknown kind")
	}
	return nil
}

func (q Quantity) validate(malformed func(string) error) error {
	amount, ok := parseDecimal(q.Amount)
	if !ok {
		return malformed("amount is not a decimal")
	}
	if q.Unit != constants.UnitOne && !IsEntityID(q.Unit) {
		return malformed("unit is not an entity ID")
	}
	if (q.LowerBound == "") != (q.UpperBound == "") {
		return malformed("only one bound set")
	}
	if !q.HasBounds() {
		return nil
	}
	lower, okL := parseDecimal(q.LowerBound)
	upper, okU := parseDecimal(q.UpperBound)
	if !okL || !okU {
		return malformed("bound is not a decimal")
	}
	if lower.Cmp(amount) > 0 || upper.Cmp(amount) < 0 {
		return malformed("bounds do not bracket amount")
	}
	return nil
}

// RequireUnit returns a MalformedValueError when v is a unit-less quantity.
func RequireUnit(v Value) error {
	if q, ok := v.Quantity(); ok && q.Unitless() {
		return errors.NewMalformedValueError(v.kind.String(), v.String(), "unit required")
	}
	return nil
}
