package wikibase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/values"
)

// Wire types of the Wikibase JSON data model.

type entityJSON struct {
	ID        string                       `json:"id"`
	LastRevID int64                        `json:"lastrevid"`
	Missing   json.RawMessage              `json:"missing,omitempty"`
	Claims    propertyMap[[]statementJSON] `json:"claims"`
}

type statementJSON struct {
	ID              string                  `json:"id,omitempty"`
	Type            string                  `json:"type,omitempty"`
	MainSnak        *snakJSON               `json:"mainsnak,omitempty"`
	Rank            string                  `json:"rank,omitempty"`
	Qualifiers      propertyMap[[]snakJSON] `json:"qualifiers,omitempty"`
	QualifiersOrder []string                `json:"qualifiers-order,omitempty"`
	References      []referenceJSON         `json:"references,omitempty"`
	Remove          *string                 `json:"remove,omitempty"`
}

type referenceJSON struct {
	Hash       string                  `json:"hash,omitempty"`
	Snaks      propertyMap[[]snakJSON] `json:"snaks"`
	SnaksOrder []string                `json:"snaks-order,omitempty"`
}

// propertyMap is a JSON object keyed by property ID. The API writes an
// empty one as [] on some entities, so both shapes decode.
type propertyMap[V any] map[string]V

func (m *propertyMap[V]) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null", "[]":
		*m = nil
		return nil
	}
	var raw map[string]V
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

type snakJSON struct {
	SnakType  string         `json:"snaktype"`
	Property  string         `json:"property"`
	DataType  string         `json:"datatype,omitempty"`
	DataValue *dataValueJSON `json:"datavalue,omitempty"`
}

type dataValueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type entityIDJSON struct {
	EntityType string `json:"entity-type,omitempty"`
	NumericID  int64  `json:"numeric-id,omitempty"`
	ID         string `json:"id,omitempty"`
}

type monolingualJSON struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type quantityJSON struct {
	Amount     string `json:"amount"`
	Unit       string `json:"unit"`
	UpperBound string `json:"upperBound,omitempty"`
	LowerBound string `json:"lowerBound,omitempty"`
}

type timeJSON struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

type coordinateJSON struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
	Precision *float64 `json:"precision"`
	Globe     string   `json:"globe"`
}

// codec converts between the wire model and claims. prefix is the concept
// URI prefix used for units, calendars and globes.
type codec struct {
	prefix string
}

func (c codec) decodeRecord(e entityJSON) (*claims.Record, error) {
	r := &claims.Record{ID: e.ID, Revision: e.LastRevID}
	// Map iteration is unordered; keep statements grouped by property in a
	// stable order so plans are reproducible.
	props := make([]string, 0, len(e.Claims))
	for p := range e.Claims {
		props = append(props, p)
	}
	sortProperties(props)
	for _, p := range props {
		for _, st := range e.Claims[p] {
			f, err := c.decodeStatement(st)
			if err != nil {
				return nil, errors.NewParseError("wikibase-json", e.ID, "statement "+st.ID, err)
			}
			r.Facts = append(r.Facts, f)
		}
	}
	return r, nil
}

func (c codec) decodeStatement(st statementJSON) (claims.Fact, error) {
	if st.MainSnak == nil {
		return claims.Fact{}, fmt.Errorf("missing mainsnak")
	}
	main, err := c.decodeSnak(*st.MainSnak)
	if err != nil {
		return claims.Fact{}, err
	}
	rank, err := claims.ParseRank(st.Rank)
	if err != nil {
		return claims.Fact{}, err
	}
	f := claims.Fact{ID: st.ID, Property: main.Property, Value: main.Value, Rank: rank}
	f.Qualifiers, err = c.decodeSnakMap(st.Qualifiers, st.QualifiersOrder)
	if err != nil {
		return claims.Fact{}, err
	}
	for _, ref := range st.References {
		snaks, err := c.decodeSnakMap(ref.Snaks, ref.SnaksOrder)
		if err != nil {
			return claims.Fact{}, err
		}
		f.References = append(f.References, claims.Reference{Hash: ref.Hash, Snaks: snaks})
	}
	return f, nil
}

func (c codec) decodeSnakMap(m map[string][]snakJSON, order []string) ([]claims.Snak, error) {
	if len(m) == 0 {
		return nil, nil
	}
	if len(order) != len(m) {
		order = make([]string, 0, len(m))
		for p := range m {
			order = append(order, p)
		}
		sortProperties(order)
	}
	var out []claims.Snak
	for _, p := range order {
		for _, sj := range m[p] {
			s, err := c.decodeSnak(sj)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
	}
	return out, nil
}

func (c codec) decodeSnak(sj snakJSON) (claims.Snak, error) {
	prop := claims.PropertyID(sj.Property)
	switch sj.SnakType {
	case "somevalue":
		return claims.NewSnak(prop, values.SomeValue()), nil
	case "novalue":
		return claims.NewSnak(prop, values.NoValue()), nil
	case "value":
	default:
		return claims.Snak{}, fmt.Errorf("unknown snak type %q", sj.SnakType)
	}
	if sj.DataValue == nil {
		return claims.Snak{}, fmt.Errorf("%s: value snak without datavalue", sj.Property)
	}
	v, err := c.decodeValue(sj.DataType, *sj.DataValue)
	if err != nil {
		return claims.Snak{}, fmt.Errorf("%s: %w", sj.Property, err)
	}
	return claims.NewSnak(prop, v), nil
}

func (c codec) decodeValue(dataType string, dv dataValueJSON) (values.Value, error) {
	switch dv.Type {
	case "wikibase-entityid":
		var e entityIDJSON
		if err := json.Unmarshal(dv.Value, &e); err != nil {
			return values.Value{}, err
		}
		id := e.ID
		if id == "" {
			id = entityPrefix(e.EntityType) + fmt.Sprint(e.NumericID)
		}
		return values.Entity(id), nil
	case "string":
		var s string
		if err := json.Unmarshal(dv.Value, &s); err != nil {
			return values.Value{}, err
		}
		switch dataType {
		case "external-id":
			return values.ExternalID(s), nil
		case "url":
			return values.URL(s), nil
		}
		return values.String(s), nil
	case "monolingualtext":
		var m monolingualJSON
		if err := json.Unmarshal(dv.Value, &m); err != nil {
			return values.Value{}, err
		}
		return values.Monolingual(m.Text, m.Language), nil
	case "quantity":
		var q quantityJSON
		if err := json.Unmarshal(dv.Value, &q); err != nil {
			return values.Value{}, err
		}
		if q.LowerBound != "" && q.UpperBound != "" {
			return values.NewQuantityWithBounds(q.Amount, q.Unit, q.LowerBound, q.UpperBound), nil
		}
		return values.NewQuantity(q.Amount, q.Unit), nil
	case "time":
		var t timeJSON
		if err := json.Unmarshal(dv.Value, &t); err != nil {
			return values.Value{}, err
		}
		return values.FromTime(values.Time{
			Timestamp: t.Time,
			Precision: values.Precision(t.Precision),
			Calendar:  t.CalendarModel,
			Timezone:  t.Timezone,
			Before:    t.Before,
			After:     t.After,
		}), nil
	case "globecoordinate":
		var g coordinateJSON
		if err := json.Unmarshal(dv.Value, &g); err != nil {
			return values.Value{}, err
		}
		var precision float64
		if g.Precision != nil {
			precision = *g.Precision
		}
		return values.FromCoordinate(values.Coordinate{
			Latitude:  g.Latitude,
			Longitude: g.Longitude,
			Precision: precision,
			Globe:     g.Globe,
			Altitude:  g.Altitude,
		}), nil
	}
	return values.Value{}, fmt.Errorf("unsupported datavalue type %q", dv.Type)
}

func (c codec) encodeStatement(f claims.Fact) (statementJSON, error) {
	main, err := c.encodeSnak(f.MainSnak())
	if err != nil {
		return statementJSON{}, err
	}
	st := statementJSON{
		ID:       f.ID,
		Type:     "statement",
		MainSnak: &main,
		Rank:     f.Rank.String(),
	}
	st.Qualifiers, st.QualifiersOrder, err = c.encodeSnakMap(f.Qualifiers)
	if err != nil {
		return statementJSON{}, err
	}
	for _, ref := range f.References {
		snaks, order, err := c.encodeSnakMap(ref.Snaks)
		if err != nil {
			return statementJSON{}, err
		}
		st.References = append(st.References, referenceJSON{Hash: ref.Hash, Snaks: snaks, SnaksOrder: order})
	}
	return st, nil
}

func (c codec) encodeSnakMap(snaks []claims.Snak) (map[string][]snakJSON, []string, error) {
	if len(snaks) == 0 {
		return nil, nil, nil
	}
	m := make(map[string][]snakJSON)
	var order []string
	for _, s := range snaks {
		sj, err := c.encodeSnak(s)
		if err != nil {
			return nil, nil, err
		}
		p := string(s.Property)
		if _, seen := m[p]; !seen {
			order = append(order, p)
		}
		m[p] = append(m[p], sj)
	}
	return m, order, nil
}

func (c codec) encodeSnak(s claims.Snak) (snakJSON, error) {
	sj := snakJSON{SnakType: "value", Property: string(s.Property)}
	v := s.Value
	var (
		typ     string
		payload any
	)
	switch v.Kind() {
	case values.KindSomeValue:
		sj.SnakType = "somevalue"
		return sj, nil
	case values.KindNoValue:
		sj.SnakType = "novalue"
		return sj, nil
	case values.KindEntity:
		typ, payload = "wikibase-entityid", encodeEntityID(v.Text())
	case values.KindString, values.KindExternalID, values.KindURL:
		typ, payload = "string", v.Text()
	case values.KindMonolingual:
		typ, payload = "monolingualtext", monolingualJSON{Text: v.Text(), Language: v.Language()}
	case values.KindQuantity:
		q, _ := v.Quantity()
		typ, payload = "quantity", quantityJSON{
			Amount:     q.Amount,
			Unit:       c.conceptURI(q.Unit),
			UpperBound: q.UpperBound,
			LowerBound: q.LowerBound,
		}
	case values.KindTime:
		t, _ := v.Time()
		typ, payload = "time", timeJSON{
			Time:          t.Timestamp,
			Timezone:      t.Timezone,
			Before:        t.Before,
			After:         t.After,
			Precision:     int(t.Precision),
			CalendarModel: c.conceptURI(t.Calendar),
		}
	case values.KindCoordinate:
		g, _ := v.Coordinate()
		precision := g.Precision
		typ, payload = "globecoordinate", coordinateJSON{
			Latitude:  g.Latitude,
			Longitude: g.Longitude,
			Altitude:  g.Altitude,
			Precision: &precision,
			Globe:     c.conceptURI(g.Globe),
		}
	default:
		return snakJSON{}, errors.NewMalformedValueError(v.Kind().String(), v.String(), "cannot encode")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return snakJSON{}, err
	}
	sj.DataValue = &dataValueJSON{Type: typ, Value: raw}
	return sj, nil
}

// conceptURI expands an entity ID to a concept URI. "1" stays as is.
func (c codec) conceptURI(id string) string {
	if id == constants.UnitOne || !values.IsEntityID(id) {
		return id
	}
	return c.prefix + id
}

func encodeEntityID(id string) entityIDJSON {
	e := entityIDJSON{ID: id}
	if strings.Contains(id, "-") {
		return e
	}
	switch id[0] {
	case 'Q':
		e.EntityType = "item"
	case 'P':
		e.EntityType = "property"
	case 'L':
		e.EntityType = "lexeme"
	default:
		return e
	}
	e.NumericID, _ = strconv.ParseInt(id[1:], 10, 64)
	return e
}

func entityPrefix(entityType string) string {
	switch entityType {
	case "property":
		return "P"
	case "lexeme":
		return "L"
	default:
		return "Q"
	}
}

// sortProperties orders property IDs numerically (P2 before P10).
func sortProperties(props []string) {
	slices.SortFunc(props, func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
}
