package bundlefile

import (
	"regexp"
	"strconv"
	"time"

	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/values"
)

// Value is a value object keyed by kind. Exactly one kind must be set.
type Value struct {
	Entity      string       `yaml:"entity,omitempty" toml:"entity,omitempty"`
	String      string       `yaml:"string,omitempty" toml:"string,omitempty"`
	ExternalID  string       `yaml:"external_id,omitempty" toml:"external_id,omitempty"`
	URL         string       `yaml:"url,omitempty" toml:"url,omitempty"`
	Monolingual *Monolingual `yaml:"monolingual,omitempty" toml:"monolingual,omitempty"`
	Quantity    *Quantity    `yaml:"quantity,omitempty" toml:"quantity,omitempty"`
	Time        *Time        `yaml:"time,omitempty" toml:"time,omitempty"`
	Coordinate  *Coordinate  `yaml:"coordinate,omitempty" toml:"coordinate,omitempty"`
	SomeValue   bool         `yaml:"somevalue,omitempty" toml:"somevalue,omitempty"`
	NoValue     bool         `yaml:"novalue,omitempty" toml:"novalue,omitempty"`
}

// Monolingual is a text with a language code.
type Monolingual struct {
	Text     string `yaml:"text" toml:"text"`
	Language string `yaml:"language" toml:"language"`
}

// Quantity is a decimal amount. An empty unit means unit-less.
type Quantity struct {
	Amount string `yaml:"amount" toml:"amount"`
	Unit   string `yaml:"unit,omitempty" toml:"unit,omitempty"`
	Lower  string `yaml:"lower,omitempty" toml:"lower,omitempty"`
	Upper  string `yaml:"upper,omitempty" toml:"upper,omitempty"`
}

// Time is a point in time. Timestamp accepts the Wikibase form or a plain
// YYYY, YYYY-MM or YYYY-MM-DD date; Precision accepts a name or a code and
// defaults to the precision of a plain date.
type Time struct {
	Timestamp string `yaml:"timestamp" toml:"timestamp"`
	Precision string `yaml:"precision,omitempty" toml:"precision,omitempty"`
	Calendar  string `yaml:"calendar,omitempty" toml:"calendar,omitempty"`
}

// Coordinate is a globe coordinate. An empty globe means Earth.
type Coordinate struct {
	Latitude  float64 `yaml:"latitude" toml:"latitude"`
	Longitude float64 `yaml:"longitude" toml:"longitude"`
	Precision float64 `yaml:"precision,omitempty" toml:"precision,omitempty"`
	Globe     string  `yaml:"globe,omitempty" toml:"globe,omitempty"`
}

// ToValue converts the object to a values.Value.
func (v Value) ToValue() (values.Value, error) {
	var (
		out values.Value
		set int
	)
	pick := func(val values.Value) {
		out = val
		set++
	}
	if v.Entity != "" {
		pick(values.Entity(v.Entity))
	}
	if v.String != "" {
		pick(values.String(v.String))
	}
	if v.ExternalID != "" {
		pick(values.ExternalID(v.ExternalID))
	}
	if v.URL != "" {
		pick(values.URL(v.URL))
	}
	if v.Monolingual != nil {
		pick(values.Monolingual(v.Monolingual.Text, v.Monolingual.Language))
	}
	if v.Quantity != nil {
		q := v.Quantity
		if q.Lower != "" || q.Upper != "" {
			pick(values.NewQuantityWithBounds(q.Amount, q.Unit, q.Lower, q.Upper))
		} else {
			pick(values.NewQuantity(q.Amount, q.Unit))
		}
	}
	if v.Time != nil {
		tv, err := v.Time.toValue()
		if err != nil {
			return values.Value{}, err
		}
		pick(tv)
	}
	if v.Coordinate != nil {
		c := v.Coordinate
		pick(values.NewCoordinate(c.Latitude, c.Longitude, c.Precision, c.Globe))
	}
	if v.SomeValue {
		pick(values.SomeValue())
	}
	if v.NoValue {
		pick(values.NoValue())
	}

	if set != 1 {
		return values.Value{}, errors.NewValidationError("value", v, "exactly one value kind must be set, got "+strconv.Itoa(set))
	}
	return out, nil
}

var plainDate = regexp.MustCompile(`^(\d{4})(?:-(\d{2}))?(?:-(\d{2}))?$`)

func (t Time) toValue() (values.Value, error) {
	ts := t.Timestamp
	precision := values.PrecisionDay
	if m := plainDate.FindStringSubmatch(ts); m != nil {
		month, day := m[2], m[3]
		switch {
		case month == "":
			precision, month, day = values.PrecisionYear, "00", "00"
		case day == "":
			precision, day = values.PrecisionMonth, "00"
		}
		ts = "+" + m[1] + "-" + month + "-" + day + "T00:00:00Z"
	}
	if t.Precision != "" {
		p, err := values.ParsePrecision(t.Precision)
		if err != nil {
			return values.Value{}, errors.NewValidationError("precision", t.Precision, err.Error())
		}
		precision = p
	}
	return values.NewTime(ts, precision, t.Calendar), nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
