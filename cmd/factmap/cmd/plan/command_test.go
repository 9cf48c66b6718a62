package plan

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap"
	"github.com/agentstation/factmap/internal/cmd/application"
	"github.com/agentstation/factmap/pkg/claims"
	"github.com/agentstation/factmap/pkg/reconciler"
	"github.com/agentstation/factmap/pkg/values"
)

const bundle = `
records:
  - id: Q1
    facts:
      - property: P31
        value: {entity: Q5}
      - property: P106
        value: {entity: Q36180}
`

func setup(t *testing.T, format string) (*reconciler.MemoryStore, *application.Mock, string) {
	t.Helper()
	store := reconciler.NewMemoryStore(&claims.Record{ID: "Q1", Revision: 10, Facts: []claims.Fact{
		{ID: "Q1$a", Property: "P31", Value: values.Entity("Q5")},
	}})
	mock := &application.Mock{
		BotFunc: func(opts ...factmap.Option) (factmap.Bot, error) {
			return factmap.New(append([]factmap.Option{factmap.WithStore(store)}, opts...)...)
		},
		OutputFormatFunc: func() string { return format },
	}
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bundle), 0o600))
	return store, mock, path
}

func execute(t *testing.T, mock *application.Mock, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(mock)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestPlanCommand_Table(t *testing.T) {
	store, mock, path := setup(t, "table")

	out, err := execute(t, mock, "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "satisfied")
	assert.Contains(t, out, "P106")
	assert.Contains(t, out, "missing_property")
	assert.Contains(t, out, "Q1 dry run")

	rec, err := store.Fetch(context.Background(), "Q1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rec.Revision)
	assert.Len(t, rec.Facts, 1)
}

func TestPlanCommand_JSON(t *testing.T) {
	_, mock, path := setup(t, "json")

	out, err := execute(t, mock, "-f", path)
	require.NoError(t, err)

	var views []struct {
		RecordID string `json:"record_id"`
		Entries  []struct {
			Classification string `json:"classification"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Q1", views[0].RecordID)
	require.Len(t, views[0].Entries, 2)
	assert.Equal(t, "satisfied", views[0].Entries[0].Classification)
	assert.Equal(t, "add", views[0].Entries[1].Classification)
}

func TestPlanCommand_Errors(t *testing.T) {
	_, mock, path := setup(t, "table")

	_, err := execute(t, mock)
	assert.Error(t, err, "--file is required")

	_, err = execute(t, mock, "-f", path, "-r", "Q9")
	assert.Error(t, err)

	_, err = execute(t, mock, "-f", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
