package bundlefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/values"
)

const adamsYAML = `
records:
  - id: Q42
    facts:
      - property: P31
        value: {entity: Q5}
      - property: P569
        value:
          time: {timestamp: "1952-03-11"}
        rank: preferred
        references:
          - url: https://example.org/adams
            retrieved: "2024-06-01"
      - property: P69
        value: {entity: Q691283}
        skip_if_conflicting: true
        qualifiers:
          - property: P582
            value:
              time: {timestamp: "1974", precision: year}
            force_new_fact: true
    removals:
      - id: Q42$old
      - property: P106
        value: {entity: Q36180}
`

const adamsTOML = `
[[records]]
id = "Q42"

[[records.facts]]
property = "P31"
value = { entity = "Q5" }

[[records.facts]]
property = "P2048"
value = { quantity = { amount = "+1.96", unit = "Q11573" } }
reference_only = true

[[records.removals]]
id = "Q42$old"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	f, err := Load(writeFile(t, "bundle.yaml", adamsYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"Q42"}, f.IDs())

	b, err := f.Records[0].Bundle()
	require.NoError(t, err)
	require.Len(t, b.Facts, 3)
	require.Len(t, b.Removals, 2)

	instance := b.Facts[0]
	assert.Equal(t, claims.PropertyID("P31"), instance.Property())
	assert.True(t, values.Equal(values.Entity("Q5"), instance.Value()))
	_, rankSet := instance.Rank()
	assert.False(t, rankSet)

	birth := b.Facts[1]
	tv, ok := birth.Value().Time()
	require.True(t, ok)
	assert.Equal(t, "+1952-03-11T00:00:00Z", tv.Timestamp)
	assert.Equal(t, values.PrecisionDay, tv.Precision)
	rank, rankSet := birth.Rank()
	assert.True(t, rankSet)
	assert.Equal(t, claims.RankPreferred, rank)
	require.Len(t, birth.References(), 1)
	ref := birth.References()[0]
	assert.True(t, ref.HasProperty(constants.PropertyReferenceURL))
	assert.True(t, ref.HasProperty(constants.PropertyRetrieved))

	educated := b.Facts[2]
	assert.True(t, educated.SkipsIfConflicting())
	require.Len(t, educated.Qualifiers(), 1)
	q := educated.Qualifiers()[0]
	assert.True(t, q.ForcesNewFact())
	assert.False(t, q.SkipsIfConflicting())
	qt, ok := q.Value().Time()
	require.True(t, ok)
	assert.Equal(t, "+1974-00-00T00:00:00Z", qt.Timestamp)
	assert.Equal(t, values.PrecisionYear, qt.Precision)

	assert.Equal(t, claims.RemoveFact("Q42$old"), b.Removals[0])
	assert.Equal(t, claims.PropertyID("P106"), b.Removals[1].Property)
}

func TestLoad_TOML(t *testing.T) {
	f, err := Load(writeFile(t, "bundle.toml", adamsTOML))
	require.NoError(t, err)

	b, err := f.Records[0].Bundle()
	require.NoError(t, err)
	require.Len(t, b.Facts, 2)
	height := b.Facts[1]
	assert.True(t, height.ReferenceOnly())
	assert.True(t, values.Equal(values.NewQuantity("1.96", "Q11573"), height.Value()))
	assert.Equal(t, []claims.Removal{claims.RemoveFact("Q42$old")}, b.Removals)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "bundle.json", "{}"))
		assert.True(t, errors.IsValidationError(err))
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})
	t.Run("bad yaml", func(t *testing.T) {
		path := writeFile(t, "bundle.yaml", "records: [")
		_, err := Load(path)
		var pe *errors.ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, path, pe.File)
	})
	t.Run("unknown toml key", func(t *testing.T) {
		_, err := Load(writeFile(t, "bundle.toml", "[[records]]\nid = \"Q1\"\ncolour = \"red\"\n"))
		var pe *errors.ParseError
		assert.ErrorAs(t, err, &pe)
	})
	t.Run("two value kinds", func(t *testing.T) {
		_, err := Load(writeFile(t, "bundle.yaml", `
records:
  - id: Q1
    facts:
      - property: P31
        value: {entity: Q5, string: human}
`))
		assert.True(t, errors.IsValidationError(err))
	})
	t.Run("record without id", func(t *testing.T) {
		_, err := Load(writeFile(t, "bundle.yaml", "records:\n  - facts: []\n"))
		assert.True(t, errors.IsValidationError(err))
	})
	t.Run("ambiguous removal", func(t *testing.T) {
		_, err := Load(writeFile(t, "bundle.yaml", `
records:
  - id: Q1
    removals:
      - id: Q1$x
        property: P31
        value: {entity: Q5}
`))
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestValueKinds(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  values.Value
	}{
		{"entity", Value{Entity: "Q5"}, values.Entity("Q5")},
		{"string", Value{String: "abc"}, values.String("abc")},
		{"external id", Value{ExternalID: "113230702"}, values.ExternalID("113230702")},
		{"url", Value{URL: "https://example.org"}, values.URL("https://example.org")},
		{"monolingual", Value{Monolingual: &Monolingual{Text: "Douglas", Language: "en"}}, values.Monolingual("Douglas", "en")},
		{"quantity bounds", Value{Quantity: &Quantity{Amount: "10", Lower: "9", Upper: "11"}}, values.NewQuantityWithBounds("10", "", "9", "11")},
		{"month", Value{Time: &Time{Timestamp: "1952-03"}}, values.NewTime("+1952-03-00T00:00:00Z", values.PrecisionMonth, "")},
		{"wikibase time", Value{Time: &Time{Timestamp: "+1952-03-11T00:00:00Z", Precision: "11"}}, values.NewTime("+1952-03-11T00:00:00Z", values.PrecisionDay, "")},
		{"coordinate", Value{Coordinate: &Coordinate{Latitude: 51.5, Longitude: -0.1, Precision: 0.01}}, values.NewCoordinate(51.5, -0.1, 0.01, "")},
		{"somevalue", Value{SomeValue: true}, values.SomeValue()},
		{"novalue", Value{NoValue: true}, values.NoValue()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.value.ToValue()
			require.NoError(t, err)
			assert.True(t, values.Equal(tt.want, got), "got %s", got)
		})
	}

	_, err := Value{}.ToValue()
	assert.True(t, errors.IsValidationError(err))
	_, err = Value{Time: &Time{Timestamp: "1952", Precision: "fortnight"}}.ToValue()
	assert.True(t, errors.IsValidationError(err))
}

func TestBuilder(t *testing.T) {
	f, err := Parse([]byte(`
records:
  - id: Q42
    facts:
      - property: P31
        value: {entity: Q5}
  - id: Q42
    facts:
      - property: P21
        value: {entity: Q6581097}
`), FormatYAML)
	require.NoError(t, err)

	builder, err := f.Builder()
	require.NoError(t, err)

	b, err := builder.BuildBundle(context.Background(), &claims.Record{ID: "Q42"})
	require.NoError(t, err)
	require.Len(t, b.Facts, 2)
	assert.Equal(t, claims.PropertyID("P21"), b.Facts[1].Property())

	b.Facts = b.Facts[:0]
	again, err := builder.BuildBundle(context.Background(), &claims.Record{ID: "Q42"})
	require.NoError(t, err)
	assert.Len(t, again.Facts, 2)

	empty, err := builder.BuildBundle(context.Background(), &claims.Record{ID: "Q1"})
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}
