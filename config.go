package factmap

import (
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/policy"
)

// Config holds everything a Bot needs. It is usually loaded from
// ~/.factmap.yaml and FACTMAP_* environment variables by internal/config.
type Config struct {
	// Store endpoints and credentials.
	APIURL         string `mapstructure:"api_url" yaml:"api_url"`
	SPARQLURL      string `mapstructure:"sparql_url" yaml:"sparql_url"`
	EntityPrefix   string `mapstructure:"entity_prefix" yaml:"entity_prefix"`
	Token          string `mapstructure:"token" yaml:"-"`
	UserAgent      string `mapstructure:"user_agent" yaml:"user_agent"`
	EditsPerMinute int    `mapstructure:"edits_per_minute" yaml:"edits_per_minute"`
	MaxLag         int    `mapstructure:"maxlag" yaml:"maxlag"`

	// EditSummary is suffixed with the edit group link of the run.
	EditSummary string `mapstructure:"edit_summary" yaml:"edit_summary"`

	// Reconciliation behavior.
	DryRun                       bool     `mapstructure:"dry_run" yaml:"dry_run"`
	AllowManualRemoval           bool     `mapstructure:"allow_manual_removal" yaml:"allow_manual_removal"`
	RespectDeprecatedRank        bool     `mapstructure:"respect_deprecated_rank" yaml:"respect_deprecated_rank"`
	AlwaysAddNewFactForQualifier []string `mapstructure:"always_add_new_fact_for_qualifier" yaml:"always_add_new_fact_for_qualifier"`
	UnitRequired                 []string `mapstructure:"unit_required" yaml:"unit_required"`

	// Built-in policies.
	Allowlist             policy.AllowlistConfig `mapstructure:"allowlist" yaml:"allowlist"`
	AutoDearchivify       bool                   `mapstructure:"auto_dearchivify" yaml:"auto_dearchivify"`
	AutoDeprecateArchived bool                   `mapstructure:"auto_deprecate" yaml:"auto_deprecate"`
	AutoRetrievedDate     bool                   `mapstructure:"auto_retrieved_date" yaml:"auto_retrieved_date"`

	// SkipErroredRecords keeps FeedRecords going past failing records.
	SkipErroredRecords bool `mapstructure:"skip_errored_records" yaml:"skip_errored_records"`
}

// DefaultConfig returns the configuration for Wikidata.
func DefaultConfig() Config {
	return Config{
		APIURL:                constants.DefaultAPIURL,
		SPARQLURL:             constants.DefaultSPARQLURL,
		EntityPrefix:          constants.DefaultEntityPrefix,
		UserAgent:             constants.DefaultUserAgent,
		EditsPerMinute:        constants.DefaultEditsPerMinute,
		MaxLag:                constants.MaxLag,
		RespectDeprecatedRank: true,
		Allowlist:             policy.AllowlistConfig{CopyRanksForNonAllowlisted: true},
	}
}

// Validate checks the property lists.
func (c Config) Validate() error {
	for field, props := range map[string][]string{
		"always_add_new_fact_for_qualifier": c.AlwaysAddNewFactForQualifier,
		"unit_required":                     c.UnitRequired,
	} {
		for _, p := range props {
			if err := claims.PropertyID(p).Validate(); err != nil {
				return errors.NewConfigError(field, p+" is not a property ID", err)
			}
		}
	}
	if c.EditsPerMinute < 0 {
		return errors.NewConfigError("edits_per_minute", "must not be negative", nil)
	}
	return nil
}

func propertyIDs(ss []string) []claims.PropertyID {
	out := make([]claims.PropertyID, 0, len(ss))
	for _, s := range ss {
		out = append(out, claims.PropertyID(s))
	}
	return out
}
