package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "factmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	{
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(t.TempDir()); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	d := factmap.DefaultConfig()
	assert.Equal(t, d.APIURL, cfg.APIURL)
	assert.Equal(t, d.SPARQLURL, cfg.SPARQLURL)
	assert.Equal(t, d.EditsPerMinute, cfg.EditsPerMinute)
	assert.Equal(t, d.MaxLag, cfg.MaxLag)
	assert.True(t, cfg.RespectDeprecatedRank)
	assert.True(t, cfg.Allowlist.CopyRanksForNonAllowlisted)
	assert.False(t, cfg.DryRun)
	assert.Empty(t, cfg.UnitRequired)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
api_url: https://test.wikidata.org/w/api.php
edit_summary: import from VIAF
edits_per_minute: 60
allow_manual_removal: true
respect_deprecated_rank: false
always_add_new_fact_for_qualifier: [P585]
unit_required: [P2048, P2067]
auto_dearchivify: true
allowlist:
  main_properties: [P214, "P2*"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://test.wikidata.org/w/api.php", cfg.APIURL)
	assert.Equal(t, "import from VIAF", cfg.EditSummary)
	assert.Equal(t, 60, cfg.EditsPerMinute)
	assert.True(t, cfg.AllowManualRemoval)
	assert.False(t, cfg.RespectDeprecatedRank)
	assert.Equal(t, []string{"P585"}, cfg.AlwaysAddNewFactForQualifier)
	assert.Equal(t, []string{"P2048", "P2067"}, cfg.UnitRequired)
	assert.True(t, cfg.AutoDearchivify)
	assert.Equal(t, []string{"P214", "P2*"}, cfg.Allowlist.MainProperties)
	assert.True(t, cfg.Allowlist.CopyRanksForNonAllowlisted)
	// Untouched keys keep their defaults.
	assert.Equal(t, factmap.DefaultConfig().SPARQLURL, cfg.SPARQLURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "dry_run: false\nedit_summary: from file\n")
	t.Setenv("FACTMAP_DRY_RUN", "true")
	t.Setenv("FACTMAP_TOKEN", "secret-token")
	t.Setenv("FACTMAP_EDIT_SUMMARY", "from env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "secret-token", cfg.Token)
	assert.Equal(t, "from env", cfg.EditSummary)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad property", func(t *testing.T) {
		path := writeConfig(t, "unit_required: [height]\n")
		_, err := Load(path)
		var cfgErr *errors.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("unreadable file", func(t *testing.T) {
		path := writeConfig(t, "api_url: [unterminated\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
