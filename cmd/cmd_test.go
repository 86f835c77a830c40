package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "workspace-mcp version 1.2.3\n", out.String())
}

func TestAuthListCommand_EmptyStore(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	cmd := newAuthListCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--credentials-dir", dir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "No stored accounts")
}

func TestAuthRevokeCommand_RequiresEmail(t *testing.T) {
	cmd := newAuthRevokeCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arg")
}

func TestAuthRevokeCommand_MissingAccountIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	var out bytes.Buffer
	cmd := newAuthRevokeCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--credentials-dir", dir, "nobody@example.com"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "nobody@example.com")
}

func TestAuthLoginCommand_RequiresClientCredentials(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "")

	cmd := newAuthLoginCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--credentials-dir", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "GOOGLE_OAUTH_CLIENT_ID"))
}

func TestServeCommandFlags(t *testing.T) {
	cmd := newServeCmd()

	for _, flag := range []string{"debug", "credentials-dir", "port", "yolo", "single-user", "metrics-addr"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}
