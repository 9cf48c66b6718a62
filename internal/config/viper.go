// Package config loads factmap.Config from a config file, .env files and
// FACTMAP_* environment variables using viper.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/agentstation/factmap"
	pkgerrors "github.com/agentstation/factmap/pkg/errors"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "FACTMAP"

// Load reads the configuration in order of precedence:
//  1. FACTMAP_* environment variables
//  2. The config file at path, or ~/.factmap.yaml / ./.factmap.yaml
//  3. factmap.DefaultConfig
//
// A missing config file is not an error.
func Load(path string) (factmap.Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".factmap")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return factmap.Config{}, pkgerrors.NewConfigError("config", "reading "+path, err)
		}
	}
	return Decode(v)
}

// New returns a viper instance bound to the FACTMAP_ environment with the
// defaults of factmap.DefaultConfig registered, so every key is visible to
// Unmarshal.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := factmap.DefaultConfig()
	defaults := map[string]any{
		"api_url":                           d.APIURL,
		"sparql_url":                        d.SPARQLURL,
		"entity_prefix":                     d.EntityPrefix,
		"token":                             d.Token,
		"user_agent":                        d.UserAgent,
		"edits_per_minute":                  d.EditsPerMinute,
		"maxlag":                            d.MaxLag,
		"edit_summary":                      d.EditSummary,
		"dry_run":                           d.DryRun,
		"allow_manual_removal":              d.AllowManualRemoval,
		"respect_deprecated_rank":           d.RespectDeprecatedRank,
		"always_add_new_fact_for_qualifier": d.AlwaysAddNewFactForQualifier,
		"unit_required":                     d.UnitRequired,
		"allowlist.main_properties":         d.Allowlist.MainProperties,
		"allowlist.qualifier_properties":    d.Allowlist.QualifierProperties,
		"allowlist.reference_properties":    d.Allowlist.ReferenceProperties,
		"allowlist.copy_ranks_for_non_allowlisted": d.Allowlist.CopyRanksForNonAllowlisted,
		"auto_dearchivify":                         d.AutoDearchivify,
		"auto_deprecate":                           d.AutoDeprecateArchived,
		"auto_retrieved_date":                      d.AutoRetrievedDate,
		"skip_errored_records":                     d.SkipErroredRecords,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (factmap.Config, error) {
	var cfg factmap.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return factmap.Config{}, pkgerrors.NewConfigError("config", "decoding", err)
	}
	if cfg.Token == "" {
		cfg.Token = GetString(EnvPrefix + "_TOKEN")
	}
	if err := cfg.Validate(); err != nil {
		return factmap.Config{}, err
	}
	return cfg, nil
}

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}
