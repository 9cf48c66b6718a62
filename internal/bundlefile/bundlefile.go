// Package bundlefile reads desired-fact bundles from YAML or TOML files.
//
// A file lists records, each with the facts it should carry and the
// removals to apply:
//
//	records:
//	  - id: Q42
//	    facts:
//	      - property: P31
//	        value: {entity: Q5}
//	      - property: P569
//	        value: {time: {timestamp: "1952-03-11", precision: day}}
//	        references:
//	          - url: https://example.org/adams
//	            retrieved: "2024-06-01"
//	    removals:
//	      - id: Q42$0F5E1F5A-0000-0000-0000-000000000000
package bundlefile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/reconciler"
)

// Format is a bundle file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// File is a parsed bundle file.
type File struct {
	Records []Record `yaml:"records" toml:"records"`
}

// Record holds the desired state of one record.
type Record struct {
	ID       string    `yaml:"id" toml:"id"`
	Facts    []Fact    `yaml:"facts" toml:"facts"`
	Removals []Removal `yaml:"removals" toml:"removals"`
}

// Fact is a desired fact.
type Fact struct {
	Property                  string      `yaml:"property" toml:"property"`
	Value                     Value       `yaml:"value" toml:"value"`
	Rank                      string      `yaml:"rank,omitempty" toml:"rank,omitempty"`
	Qualifiers                []Qualifier `yaml:"qualifiers,omitempty" toml:"qualifiers,omitempty"`
	References                []Reference `yaml:"references,omitempty" toml:"references,omitempty"`
	SkipIfConflicting         bool        `yaml:"skip_if_conflicting,omitempty" toml:"skip_if_conflicting,omitempty"`
	SkipIfConflictingLanguage bool        `yaml:"skip_if_conflicting_language,omitempty" toml:"skip_if_conflicting_language,omitempty"`
	ReferenceOnly             bool        `yaml:"reference_only,omitempty" toml:"reference_only,omitempty"`
}

// Qualifier is a desired qualifier.
type Qualifier struct {
	Property          string `yaml:"property" toml:"property"`
	Value             Value  `yaml:"value" toml:"value"`
	ForceNewFact      bool   `yaml:"force_new_fact,omitempty" toml:"force_new_fact,omitempty"`
	SkipIfConflicting bool   `yaml:"skip_if_conflicting,omitempty" toml:"skip_if_conflicting,omitempty"`
}

// Reference is a desired reference. URL and Retrieved are shorthands for
// the reference URL and retrieved snaks.
type Reference struct {
	URL       string `yaml:"url,omitempty" toml:"url,omitempty"`
	Retrieved string `yaml:"retrieved,omitempty" toml:"retrieved,omitempty"`
	Snaks     []Snak `yaml:"snaks,omitempty" toml:"snaks,omitempty"`
}

// Snak is a property/value pair inside a reference.
type Snak struct {
	Property string `yaml:"property" toml:"property"`
	Value    Value  `yaml:"value" toml:"value"`
}

// Removal names a statement ID or a property/value pair to remove.
type Removal struct {
	ID       string `yaml:"id,omitempty" toml:"id,omitempty"`
	Property string `yaml:"property,omitempty" toml:"property,omitempty"`
	Value    *Value `yaml:"value,omitempty" toml:"value,omitempty"`
}

// Load reads a bundle file, picking the format from the extension.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	f, err := Parse(data, format)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	return f, nil
}

// FormatFor maps a file extension to a Format.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.NewValidationError("file", path, "bundle files must end in .yaml, .yml or .toml")
}

// Parse decodes a bundle file and checks that every record converts.
func Parse(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(bytes.NewReader(data), yaml.DisallowUnknownField()).Decode(&f); err != nil {
			return nil, errors.WrapParse("yaml", "", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.WrapParse("toml", "", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.NewParseError("toml", "", "unknown key "+undecoded[0].String(), nil)
		}
	default:
		return nil, errors.NewValidationError("format", string(format), "unsupported")
	}
	for _, r := range f.Records {
		if _, err := r.Bundle(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// IDs returns the record IDs in file order.
func (f *File) IDs() []string {
	ids := make([]string, 0, len(f.Records))
	for _, r := range f.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

// Bundles returns the bundle of every record, keyed by record ID. Records
// listed more than once are merged in file order.
func (f *File) Bundles() (map[string]claims.Bundle, error) {
	out := make(map[string]claims.Bundle, len(f.Records))
	for _, r := range f.Records {
		b, err := r.Bundle()
		if err != nil {
			return nil, err
		}
		prev := out[r.ID]
		prev.Add(b.Facts...)
		prev.Remove(b.Removals...)
		out[r.ID] = prev
	}
	return out, nil
}

// Builder returns a BundleBuilder serving the file's bundles. Records not
// in the file get an empty bundle.
func (f *File) Builder() (reconciler.BundleBuilder, error) {
	bundles, err := f.Bundles()
	if err != nil {
		return nil, err
	}
	return reconciler.BundleBuilderFunc(func(_ context.Context, record *claims.Record) (claims.Bundle, error) {
		return bundles[record.ID].Clone(), nil
	}), nil
}

// Bundle converts the record into a claims.Bundle.
func (r Record) Bundle() (claims.Bundle, error) {
	if strings.TrimSpace(r.ID) == "" {
		return claims.Bundle{}, errors.NewValidationError("id", r.ID, "record without id")
	}
	var b claims.Bundle
	for i, f := range r.Facts {
		df, err := f.desired()
		if err != nil {
			return claims.Bundle{}, errors.WrapResource("convert", "fact", r.ID+"#"+itoa(i), err)
		}
		b.Add(df)
	}
	for i, rm := range r.Removals {
		removal, err := rm.removal()
		if err != nil {
			return claims.Bundle{}, errors.WrapResource("convert", "removal", r.ID+"#"+itoa(i), err)
		}
		b.Remove(removal)
	}
	return b, nil
}

func (f Fact) desired() (claims.DesiredFact, error) {
	v, err := f.Value.ToValue()
	if err != nil {
		return claims.DesiredFact{}, err
	}
	fb := claims.NewFact(claims.PropertyID(f.Property), v)
	if f.Rank != "" {
		rank, err := claims.ParseRank(f.Rank)
		if err != nil {
			return claims.DesiredFact{}, err
		}
		fb.Rank(rank)
	}
	for _, q := range f.Qualifiers {
		qv, err := q.Value.ToValue()
		if err != nil {
			return claims.DesiredFact{}, err
		}
		var opts []claims.QualifierOption
		if q.ForceNewFact {
			opts = append(opts, claims.ForceNewFact())
		}
		if q.SkipIfConflicting {
			opts = append(opts, claims.SkipQualifierIfConflicting())
		}
		fb.Qualifier(claims.PropertyID(q.Property), qv, opts...)
	}
	for _, ref := range f.References {
		dr, err := ref.desired()
		if err != nil {
			return claims.DesiredFact{}, err
		}
		fb.Reference(dr)
	}
	if f.SkipIfConflicting {
		fb.SkipIfConflicting()
	}
	if f.SkipIfConflictingLanguage {
		fb.SkipIfConflictingLanguage()
	}
	if f.ReferenceOnly {
		fb.ReferenceOnly()
	}
	return fb.Build(), nil
}

func (r Reference) desired() (claims.DesiredReference, error) {
	rb := claims.NewReference()
	if r.URL != "" {
		rb.URL(r.URL)
	}
	for _, s := range r.Snaks {
		v, err := s.Value.ToValue()
		if err != nil {
			return claims.DesiredReference{}, err
		}
		rb.Snak(claims.PropertyID(s.Property), v)
	}
	if r.Retrieved != "" {
		t, err := parseDay(r.Retrieved)
		if err != nil {
			return claims.DesiredReference{}, errors.NewValidationError("retrieved", r.Retrieved, "expected YYYY-MM-DD")
		}
		rb.RetrievedOn(t)
	}
	return rb.Build(), nil
}

func (r Removal) removal() (claims.Removal, error) {
	switch {
	case r.ID != "" && r.Property == "" && r.Value == nil:
		return claims.RemoveFact(r.ID), nil
	case r.ID == "" && r.Property != "" && r.Value != nil:
		v, err := r.Value.ToValue()
		if err != nil {
			return claims.Removal{}, err
		}
		return claims.RemoveValue(claims.PropertyID(r.Property), v), nil
	}
	return claims.Removal{}, errors.NewValidationError("removal", r, "set either id, or property and value")
}
