// Package policy provides ready-made hooks: property allow-lists, archive
// URL rewriting and automatic retrieval dates.
package policy

import (
	"context"

	"github.com/agentstation/factmap/internal/matcher"
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/hooks"
	"github.com/agentstation/factmap/pkg/planner"
)

// AllowlistConfig lists property patterns. An empty list disables that
// check. Patterns are exact IDs, globs ("P58?") or regular expressions.
type AllowlistConfig struct {
	// MainProperties may be created or edited freely.
	MainProperties []string `mapstructure:"main_properties" yaml:"main_properties"`
	// QualifierProperties may be added to statements whose main property
	// is not allow-listed.
	QualifierProperties []string `mapstructure:"qualifier_properties" yaml:"qualifier_properties"`
	// ReferenceProperties may be cited on statements whose main property
	// is not allow-listed.
	ReferenceProperties []string `mapstructure:"reference_properties" yaml:"reference_properties"`
	// CopyRanksForNonAllowlisted keeps rank changes on statements whose main
	// property is not allow-listed.
	CopyRanksForNonAllowlisted bool `mapstructure:"copy_ranks_for_non_allowlisted" yaml:"copy_ranks_for_non_allowlisted"`
}

// Allowlist restricts which statements the bot creates or edits.
type Allowlist struct {
	main       *matcher.Set
	qualifiers *matcher.Set
	references *matcher.Set
	copyRanks  bool
}

// NewAllowlist compiles the configured patterns.
func NewAllowlist(cfg AllowlistConfig) (*Allowlist, error) {
	a := &Allowlist{copyRanks: cfg.CopyRanksForNonAllowlisted}
	var err error
	if a.main, err = compile(cfg.MainProperties); err != nil {
		return nil, err
	}
	if a.qualifiers, err = compile(cfg.QualifierProperties); err != nil {
		return nil, err
	}
	if a.references, err = compile(cfg.ReferenceProperties); err != nil {
		return nil, err
	}
	return a, nil
}

func compile(patterns []string) (*matcher.Set, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	return matcher.NewSet(patterns...)
}

// Enabled reports whether a main-property list is configured.
func (a *Allowlist) Enabled() bool {
	return a.main.Len() > 0
}

// AllowsMain reports whether statements of property may be created or
// freely edited.
func (a *Allowlist) AllowsMain(property claims.PropertyID) bool {
	return !a.Enabled() || a.main.Match(string(property))
}

// AllowsQualifier reports whether the qualifier may be added to a statement
// of main.
func (a *Allowlist) AllowsQualifier(main claims.PropertyID, q claims.DesiredQualifier) bool {
	if a.AllowsMain(main) || a.qualifiers.Len() == 0 {
		return true
	}
	return a.qualifiers.Match(string(q.Property()))
}

// AllowsReference reports whether the reference may be added to a statement
// of main. A reference is allowed when any of its snaks uses an
// allow-listed property.
func (a *Allowlist) AllowsReference(main claims.PropertyID, r claims.DesiredReference) bool {
	if a.AllowsMain(main) || a.references.Len() == 0 {
		return true
	}
	for _, s := range r.AllSnaks() {
		if a.references.Match(string(s.Property)) {
			return true
		}
	}
	return false
}

// Register installs the allow-list hooks.
func (a *Allowlist) Register(r *hooks.Registry) {
	r.OnAfterClassify("allowlist.main", a.afterClassify)
	r.OnBeforeQualifierAdd("allowlist.qualifier", a.beforeQualifierAdd)
	r.OnBeforeReferenceAdd("allowlist.reference", a.beforeReferenceAdd)
}

func (a *Allowlist) afterClassify(_ context.Context, c *hooks.EntryContext) hooks.Signal {
	e := c.Entry
	if a.AllowsMain(e.Desired.Property()) {
		return hooks.Continue
	}
	switch e.Classification {
	case planner.AddNew:
		return hooks.Skip
	case planner.AugmentExisting:
		if e.RankChange != nil && !a.copyRanks {
			e.RankChange = nil
			return hooks.Mutated
		}
	}
	return hooks.Continue
}

func (a *Allowlist) beforeQualifierAdd(_ context.Context, c *hooks.QualifierContext) hooks.Signal {
	if a.AllowsQualifier(c.Entry.Desired.Property(), c.Qualifier) {
		return hooks.Continue
	}
	return hooks.Skip
}

func (a *Allowlist) beforeReferenceAdd(_ context.Context, c *hooks.ReferenceContext) hooks.Signal {
	if a.AllowsReference(c.Entry.Desired.Property(), c.Reference) {
		return hooks.Continue
	}
	return hooks.Skip
}
