package values_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/values"
)

func TestEqual(t *testing.T) {
	day := values.NewTime("+2020-01-01T00:00:00Z", values.PrecisionDay, "")
	year := values.NewTime("+2020-01-01T00:00:00Z", values.PrecisionYear, "")

	tests := []struct {
		name string
		a, b values.Value
		want bool
	}{
		{"entity exact", values.Entity("Q5"), values.Entity("Q5"), true},
		{"entity url form", values.Entity("Q5"), values.Entity("http://www.wikidata.org/entity/Q5"), true},
		{"entity differs", values.Entity("Q5"), values.Entity("Q6"), false},
		{"string exact", values.String("abc"), values.String("abc"), true},
		{"string case", values.String("abc"), values.String("ABC"), false},
		{"cross kind", values.String("abc"), values.ExternalID("abc"), false},
		{"monolingual language", values.Monolingual("Paris", "en"), values.Monolingual("Paris", "fr"), false},
		{"monolingual same", values.Monolingual("Paris", "fr"), values.Monolingual("Paris", "fr"), true},
		{"quantity unitless spellings", values.NewQuantity("10", ""), values.NewQuantity("+10", "1"), true},
		{"quantity trailing zeros", values.NewQuantity("10.00", "Q11573"), values.NewQuantity("10", "Q11573"), true},
		{"quantity unit vs unitless", values.NewQuantity("10", "Q11573"), values.NewQuantity("10", ""), false},
		{"quantity unit url form", values.NewQuantity("10", "http://www.wikidata.org/entity/Q11573"), values.NewQuantity("10", "Q11573"), true},
		{"quantity bounded vs exact", values.NewQuantityWithBounds("10", "", "9", "11"), values.NewQuantity("10.5", ""), false},
		{"quantity within tighter bounds", values.NewQuantityWithBounds("10", "", "9", "11"), values.NewQuantityWithBounds("10.5", "", "10", "11"), true},
		{"quantity outside tighter bounds", values.NewQuantityWithBounds("10", "", "9", "11"), values.NewQuantityWithBounds("10.8", "", "10.7", "10.9"), false},
		{"time day vs year precision", day, year, false},
		{"time year ignores month", year, values.NewTime("+2020-00-00T00:00:00Z", values.PrecisionYear, ""), true},
		{"time calendar", day, values.NewTime("+2020-01-01T00:00:00Z", values.PrecisionDay, "Q1985786"), false},
		{"time decade", values.NewTime("+2021-00-00T00:00:00Z", values.PrecisionDecade, ""), values.NewTime("+2029-00-00T00:00:00Z", values.PrecisionDecade, ""), true},
		{"coordinate within coarser precision", values.NewCoordinate(52.5, 13.4, 0.1, ""), values.NewCoordinate(52.52, 13.41, 0.01, ""), true},
		{"coordinate outside precision", values.NewCoordinate(52.5, 13.4, 0.1, ""), values.NewCoordinate(52.7, 13.4, 0.01, ""), false},
		{"coordinate globe", values.NewCoordinate(1, 1, 0.1, ""), values.NewCoordinate(1, 1, 0.1, "Q405"), false},
		{"coordinate same cell", values.NewCoordinate(10.051, 20, 0.1, ""), values.NewCoordinate(10.149, 20, 0.1, ""), true},
		{"coordinate across cell edge", values.NewCoordinate(10.049, 20, 0.1, ""), values.NewCoordinate(10.051, 20, 0.1, ""), false},
		{"coordinate altitude ignored", values.FromCoordinate(values.Coordinate{Latitude: 1, Longitude: 1, Precision: 0.1, Altitude: ptr(35.0)}), values.NewCoordinate(1, 1, 0.1, ""), true},
		{"time detail ignored", values.FromTime(values.Time{Timestamp: "+2001-01-01T00:00:00Z", Precision: values.PrecisionDay, Timezone: 60, Before: 1}), values.NewTime("+2001-01-01T00:00:00Z", values.PrecisionDay, ""), true},
		{"external id trims", values.ExternalID(" 113230702 "), values.ExternalID("113230702"), true},
		{"external id case sensitive", values.ExternalID("ab12"), values.ExternalID("AB12"), false},
		{"url trims", values.URL("https://example.com "), values.URL("https://example.com"), true},
		{"somevalue", values.SomeValue(), values.SomeValue(), true},
		{"somevalue vs novalue", values.SomeValue(), values.NoValue(), false},
		{"zero values", values.Value{}, values.Value{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, values.Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, values.Equal(tt.b, tt.a), "symmetry")
		})
	}
}

// generators produce small domains so that equal pairs occur often.
var generators = map[string]func(r *rand.Rand) values.Value{
	"entity": func(r *rand.Rand) values.Value {
		return values.Entity(pick(r, "Q1", "Q2", "http://www.wikidata.org/entity/Q1"))
	},
	"string": func(r *rand.Rand) values.Value {
		return values.String(pick(r, "a", "b"))
	},
	"monolingual": func(r *rand.Rand) values.Value {
		return values.Monolingual(pick(r, "a", "b"), pick(r, "en", "fr"))
	},
	"quantity": func(r *rand.Rand) values.Value {
		return values.NewQuantity(pick(r, "1", "1.0", "+1", "2", "2.00"), pick(r, "", "1", "Q11573"))
	},
	"time": func(r *rand.Rand) values.Value {
		ts := pick(r, "+2020-01-01T00:00:00Z", "+2020-01-02T00:00:00Z", "+2020-00-00T00:00:00Z", "+2021-05-01T00:00:00Z")
		return values.NewTime(ts, values.Precision(9+r.Intn(3)), "")
	},
	"coordinate": func(r *rand.Rand) values.Value {
		lat := []float64{52.5, 52.52, 52.61, 52.3}[r.Intn(4)]
		return values.NewCoordinate(lat, 13.4, 0.1, "")
	},
	"external-id": func(r *rand.Rand) values.Value {
		return values.ExternalID(pick(r, "x", " x", "y"))
	},
	"url": func(r *rand.Rand) values.Value {
		return values.URL(pick(r, "https://a.example", "https://a.example ", "https://b.example"))
	},
}

func ptr[T any](v T) *T { return &v }

func pick(r *rand.Rand, options ...string) string {
	return options[r.Intn(len(options))]
}

func TestEqualIsEquivalenceRelation(t *testing.T) {
	r := rand.New(rand.NewSource(20240601))
	for kind, gen := range generators {
		t.Run(kind, func(t *testing.T) {
			for i := 0; i < 500; i++ {
				a, b, c := gen(r), gen(r), gen(r)
				require.True(t, values.Equal(a, a), "reflexive: %v", a)
				require.Equal(t, values.Equal(a, b), values.Equal(b, a), "symmetric: %v %v", a, b)
				if values.Equal(a, b) && values.Equal(b, c) {
					require.True(t, values.Equal(a, c), "transitive: %v %v %v", a, b, c)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := []values.Value{
		values.Entity("Q42"),
		values.Entity("L7-S1"),
		values.String("x"),
		values.Monolingual("x", "en"),
		values.NewQuantity("-1.5", ""),
		values.NewQuantityWithBounds("10", "Q11573", "9", "11"),
		values.NewTime("+2020-01-01T00:00:00Z", values.PrecisionDay, ""),
		values.NewTime("-13798000000-00-00T00:00:00Z", values.PrecisionHundredMillionYears, ""),
		values.NewCoordinate(-33.9, 151.2, 0.0001, ""),
		values.URL("https://example.com"),
		values.SomeValue(),
	}
	for _, v := range valid {
		assert.NoError(t, v.Validate(), v.String())
	}

	invalid := map[string]values.Value{
		"entity zero":           values.Entity("Q0"),
		"entity prefix":         values.Entity("X12"),
		"monolingual no lang":   values.Monolingual("x", ""),
		"quantity amount":       values.NewQuantity("12x", ""),
		"quantity unit":         values.NewQuantity("12", "kg"),
		"quantity bounds":       values.NewQuantityWithBounds("12", "", "13", "14"),
		"quantity single bound": values.NewQuantityWithBounds("12", "", "11", ""),
		"time format":           values.NewTime("2020-01-01", values.PrecisionDay, ""),
		"time precision":        values.NewTime("+2020-01-01T00:00:00Z", values.Precision(15), ""),
		"latitude":              values.NewCoordinate(91, 0, 0.1, ""),
		"empty url":             values.URL("  "),
		"zero":                  {},
	}
	for name, v := range invalid {
		t.Run(name, func(t *testing.T) {
			err := v.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsMalformedValue(err))
		})
	}
}

func TestRequireUnit(t *testing.T) {
	assert.Error(t, values.RequireUnit(values.NewQuantity("5", "")))
	assert.NoError(t, values.RequireUnit(values.NewQuantity("5", "Q11573")))
	assert.NoError(t, values.RequireUnit(values.String("5")))
}

func TestEntityIDFromURL(t *testing.T) {
	for url, want := range map[string]string{
		"http://www.wikidata.org/entity/Q1":  "Q1",
		"http://www.wikidata.org/entity/P31": "P31",
		"http://www.wikidata.org/entity/L1":  "L1",
		"https://www.wikidata.org/wiki/Q42":  "Q42",
	} {
		got, err := values.EntityIDFromURL(url)
		require.NoError(t, err, url)
		assert.Equal(t, want, got)
	}

	for _, url := range []string{
		"http://www.wikidata.org/entity/",
		"http://www.wikidata.org/entity/Q",
		"http://www.wikidata.org/entity/Q1/",
	} {
		_, err := values.EntityIDFromURL(url)
		assert.True(t, errors.IsValidationError(err), url)
	}
}

func TestDate(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

	day, _ := values.Date(ts, values.PrecisionDay).Time()
	assert.Equal(t, "+2024-03-05T00:00:00Z", day.Timestamp)
	assert.Equal(t, "Q1985727", day.Calendar)

	year, _ := values.Date(ts, values.PrecisionYear).Time()
	assert.Equal(t, "+2024-00-00T00:00:00Z", year.Timestamp)
}

func TestParsePrecision(t *testing.T) {
	p, err := values.ParsePrecision("day")
	require.NoError(t, err)
	assert.Equal(t, values.PrecisionDay, p)

	p, err = values.ParsePrecision("9")
	require.NoError(t, err)
	assert.Equal(t, values.PrecisionYear, p)

	_, err = values.ParsePrecision("fortnight")
	assert.Error(t, err)
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []values.Kind{values.KindEntity, values.KindQuantity, values.KindURL, values.KindNoValue} {
		got, ok := values.ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := values.ParseKind("invalid")
	assert.False(t, ok)
}
