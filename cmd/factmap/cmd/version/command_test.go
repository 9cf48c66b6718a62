package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/factmap/internal/cmd/application"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewCommand(&application.Mock{
		VersionFunc: func() string { return "1.2.3" },
		CommitFunc:  func() string { return "abc123" },
	})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "factmap version 1.2.3")
	assert.Contains(t, out, "commit: abc123")
	assert.Contains(t, out, "built by: unknown")
}
