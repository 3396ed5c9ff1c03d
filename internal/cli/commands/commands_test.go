// Package commands_test provides tests for CLI command creation.
package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunCommand(t *testing.T) {
	cmd := NewRunCommand()

	assert.Equal(t, "run", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	assert.NotEmpty(t, cmd.Aliases, "run command should have aliases")
	assert.Equal(t, "refresh", cmd.Aliases[0])
}

func TestNewInsightsCommand(t *testing.T) {
	cmd := NewInsightsCommand()

	assert.Equal(t, "insights [kind...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.ElementsMatch(t, []string{"budget", "loan", "health"}, cmd.ValidArgs)
}

func TestNewChatCommand(t *testing.T) {
	cmd := NewChatCommand()

	assert.Equal(t, "chat", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"session", "ask"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewSeedCommand(t *testing.T) {
	cmd := NewSeedCommand()

	assert.Equal(t, "seed", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"port", "no-browser", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand()

	assert.Equal(t, "doctor", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewManifestCommand(t *testing.T) {
	cmd := NewManifestCommand()

	assert.Equal(t, "manifest", cmd.Use)

	names := make([]string, 0, 2)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"lint", "list"}, names)
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1.2.3")
}

func TestManifestLintCleanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("requests==2.31.0\n"), 0600))

	cmd := NewManifestCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"lint", path})

	require.NoError(t, cmd.Execute())
}

func TestManifestLintBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	content := "requests==2.31.0\nrequests==2.30.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cmd := NewManifestCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"lint", path})

	err := cmd.Execute()
	require.Error(t, err, "duplicate package should fail lint")
	assert.Contains(t, err.Error(), "error")
}

func TestManifestListOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	content := "flask[async]==2.3.2  # web\npandas>=2.0,<3 ; python_version >= \"3.9\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cmd := NewManifestCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"list", path})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "flask")
	assert.Contains(t, out, "pandas")
}
