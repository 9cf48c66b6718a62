package values

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	gotime "time"

	"github.com/agentstation/factmap/pkg/constants"
)

// Precision is the Wikibase time precision code.
type Precision int

// Precision codes from billion years (0) to seconds (14).
const (
	PrecisionBillionYears Precision = iota
	PrecisionHundredMillionYears
	PrecisionTenMillionYears
	PrecisionMillionYears
	PrecisionHundredThousandYears
	PrecisionTenThousandYears
	PrecisionMillennium
	PrecisionCentury
	PrecisionDecade
	PrecisionYear
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
)

var precisionNames = map[string]Precision{
	"millennium": PrecisionMillennium,
	"century":    PrecisionCentury,
	"decade":     PrecisionDecade,
	"year":       PrecisionYear,
	"month":      PrecisionMonth,
	"day":        PrecisionDay,
	"hour":       PrecisionHour,
	"minute":     PrecisionMinute,
	"second":     PrecisionSecond,
}

// ParsePrecision accepts a precision name ("day", "year", ...) or a numeric code.
func ParsePrecision(s string) (Precision, error) {
	if p, ok := precisionNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < int(PrecisionBillionYears) || n > int(PrecisionSecond) {
		return 0, fmt.Errorf("unknown time precision %q", s)
	}
	return Precision(n), nil
}

// Time is a Wikibase point in time. Calendar is an entity ID. Timezone
// (minutes from UTC) and the Before/After uncertainty are carried through
// to the store but take no part in equality.
type Time struct {
	Timestamp string
	Precision Precision
	Calendar  string
	Timezone  int
	Before    int
	After     int
}

var timestampPattern = regexp.MustCompile(`^([+-])(\d+)-(\d{2})-(\d{2})T(\d{2}):(\d{2}):(\d{2})Z$`)

// NewTime returns a time value. An empty calendar means proleptic Gregorian.
func NewTime(timestamp string, precision Precision, calendar string) Value {
	if calendar = strings.TrimSpace(calendar); calendar == "" {
		calendar = constants.ItemGregorian
	}
	return Value{kind: KindTime, time: Time{
		Timestamp: strings.TrimSpace(timestamp),
		Precision: precision,
		Calendar:  normalizeEntityID(calendar),
	}}
}

// FromTime returns a time value carrying every field of t.
func FromTime(t Time) Value {
	v := NewTime(t.Timestamp, t.Precision, t.Calendar)
	v.time.Timezone, v.time.Before, v.time.After = t.Timezone, t.Before, t.After
	return v
}

// Date returns a Gregorian time value for t at the given precision.
// Components finer than the precision are written as zero.
func Date(t gotime.Time, precision Precision) Value {
	t = t.UTC()
	month, day := int(t.Month()), t.Day()
	hour, minute, second := t.Hour(), t.Minute(), t.Second()
	if precision < PrecisionSecond {
		second = 0
	}
	if precision < PrecisionMinute {
		minute = 0
	}
	if precision < PrecisionHour {
		hour = 0
	}
	if precision < PrecisionDay {
		day = 0
	}
	if precision < PrecisionMonth {
		month = 0
	}
	sign := "+"
	year := t.Year()
	if year < 0 {
		sign, year = "-", -year
	}
	ts := fmt.Sprintf("%s%04d-%02d-%02dT%02d:%02d:%02dZ", sign, year, month, day, hour, minute, second)
	return NewTime(ts, precision, constants.ItemGregorian)
}

type timeKey struct {
	negative bool
	year     int64
	month    int
	day      int
	hour     int
	minute   int
	second   int
}

// key truncates the timestamp to the value's precision.
func (t Time) key() (timeKey, bool) {
	m := timestampPattern.FindStringSubmatch(t.Timestamp)
	if m == nil {
		return timeKey{}, false
	}
	year, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return timeKey{}, false
	}
	k := timeKey{negative: m[1] == "-" && year != 0, year: year}
	fields := []*int{&k.month, &k.day, &k.hour, &k.minute, &k.second}
	for i, f := range fields {
		*f, _ = strconv.Atoi(m[3+i])
	}

	switch {
	case t.Precision < PrecisionYear:
		step := int64(1)
		for p := t.Precision; p < PrecisionYear; p++ {
			step *= 10
		}
		k.year /= step
		fallthrough
	case t.Precision == PrecisionYear:
		k.month = 0
		fallthrough
	case t.Precision == PrecisionMonth:
		k.day = 0
		fallthrough
	case t.Precision == PrecisionDay:
		k.hour = 0
		fallthrough
	case t.Precision == PrecisionHour:
		k.minute = 0
		fallthrough
	case t.Precision == PrecisionMinute:
		k.second = 0
	}
	return k, true
}
