package values

import (
	"math"
	"math/big"
	"strings"
)

// EqualFunc compares two values already known to share a kind.
type EqualFunc func(a, b Value) bool

var equalFuncs = [numKinds]EqualFunc{
	KindInvalid:     neverEqual,
	KindEntity:      equalExact,
	KindString:      equalExact,
	KindMonolingual: equalMonolingual,
	KindQuantity:    equalQuantity,
	KindTime:        equalTime,
	KindCoordinate:  equalCoordinate,
	KindExternalID:  equalTrimmed,
	KindURL:         equalTrimmed,
	KindSomeValue:   alwaysEqual,
	KindNoValue:     alwaysEqual,
}

// Equal reports whether a and b denote the same value under the store's
// equality rules. Values of different kinds are never equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind || a.kind >= numKinds {
		return false
	}
	return equalFuncs[a.kind](a, b)
}

func neverEqual(Value, Value) bool  { return false }
func alwaysEqual(Value, Value) bool { return true }

func equalExact(a, b Value) bool {
	return a.text == b.text
}

func equalMonolingual(a, b Value) bool {
	return a.text == b.text && a.lang == b.lang
}

func equalTrimmed(a, b Value) bool {
	return strings.TrimSpace(a.text) == strings.TrimSpace(b.text)
}

// equalQuantity compares amounts within the tighter of the two tolerances.
// A quantity without bounds has zero tolerance.
func equalQuantity(a, b Value) bool {
	if a.qty.Unit != b.qty.Unit {
		return false
	}
	x, okA := parseDecimal(a.qty.Amount)
	y, okB := parseDecimal(b.qty.Amount)
	if !okA || !okB {
		return a.qty.Amount == b.qty.Amount
	}
	diff := new(big.Rat).Sub(x, y)
	diff.Abs(diff)
	if diff.Sign() == 0 {
		return true
	}
	tolA, tolB := a.qty.tolerance(x), b.qty.tolerance(y)
	tol := tolA
	if tolB.Cmp(tolA) < 0 {
		tol = tolB
	}
	return diff.Cmp(tol) <= 0
}

// equalTime requires the same calendar and precision, then compares the
// timestamps truncated to that precision.
func equalTime(a, b Value) bool {
	if a.time.Precision != b.time.Precision || a.time.Calendar != b.time.Calendar {
		return false
	}
	ka, okA := a.time.key()
	kb, okB := b.time.key()
	if !okA || !okB {
		return a.time.Timestamp == b.time.Timestamp
	}
	return ka == kb
}

// equalCoordinate snaps both points to the grid of the coarser precision.
func equalCoordinate(a, b Value) bool {
	if a.coord.Globe != b.coord.Globe {
		return false
	}
	p := math.Max(a.coord.Precision, b.coord.Precision)
	if p <= 0 {
		return a.coord.Latitude == b.coord.Latitude && a.coord.Longitude == b.coord.Longitude
	}
	return gridCell(a.coord.Latitude, p) == gridCell(b.coord.Latitude, p) &&
		gridCell(a.coord.Longitude, p) == gridCell(b.coord.Longitude, p)
}

func gridCell(x, precision float64) int64 {
	return int64(math.Round(x / precision))
}
