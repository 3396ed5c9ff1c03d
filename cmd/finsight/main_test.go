// Package main provides tests for the finsight CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/finstack-labs/finsight/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "finsight") {
		t.Errorf("version output should contain 'finsight', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"run", "serve", "insights", "chat", "seed", "manifest", "doctor", "version"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"bogus"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestManifestLintCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requirements.txt")
	content := "flask==2.3.2\npandas>=2.0,<3\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"manifest", "lint", path, "--output", "markdown"})

	if err := cmd.Execute(); err != nil {
		t.Errorf("manifest lint error = %v", err)
	}
}
