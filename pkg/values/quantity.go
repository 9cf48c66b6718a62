package values

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/agentstation/factmap/pkg/constants"
)

// Quantity is a decimal amount in Wikibase's signed decimal string form.
// Unit is an entity ID, or "1" for dimensionless quantities.
type Quantity struct {
	Amount     string
	Unit       string
	LowerBound string
	UpperBound string
}

var decimalPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// NewQuantity returns a quantity without bounds. An empty unit means unit-less.
func NewQuantity(amount, unit string) Value {
	return Value{kind: KindQuantity, qty: Quantity{
		Amount: normalizeDecimal(amount),
		Unit:   normalizeUnit(unit),
	}}
}

// NewQuantityWithBounds returns a quantity with explicit lower and upper bounds.
func NewQuantityWithBounds(amount, unit, lower, upper string) Value {
	v := NewQuantity(amount, unit)
	v.qty.LowerBound = normalizeDecimal(lower)
	v.qty.UpperBound = normalizeDecimal(upper)
	return v
}

// Unitless reports whether the quantity is dimensionless.
func (q Quantity) Unitless() bool {
	return q.Unit == constants.UnitOne
}

// HasBounds reports whether both bounds are set.
func (q Quantity) HasBounds() bool {
	return q.LowerBound != "" && q.UpperBound != ""
}

// tolerance is the widest distance from amount to either bound, or zero.
func (q Quantity) tolerance(amount *big.Rat) *big.Rat {
	tol := new(big.Rat)
	if !q.HasBounds() {
		return tol
	}
	lower, okL := parseDecimal(q.LowerBound)
	upper, okU := parseDecimal(q.UpperBound)
	if !okL || !okU {
		return tol
	}
	below := new(big.Rat).Sub(amount, lower)
	above := new(big.Rat).Sub(upper, amount)
	if below.Cmp(above) > 0 {
		tol.Set(below)
	} else {
		tol.Set(above)
	}
	if tol.Sign() < 0 {
		tol.SetInt64(0)
	}
	return tol
}

func normalizeUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" || unit == constants.UnitOne {
		return constants.UnitOne
	}
	return normalizeEntityID(unit)
}

// normalizeDecimal adds the explicit sign Wikibase expects.
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return s
	}
	return "+" + s
}

func parseDecimal(s string) (*big.Rat, bool) {
	if !decimalPattern.MatchString(s) {
		return nil, false
	}
	return new(big.Rat).SetString(strings.TrimPrefix(s, "+"))
}
