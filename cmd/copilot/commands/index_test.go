// ABOUTME: Tests for index command structure and flags
// ABOUTME: Verifies argument validation without touching real backends

package commands

import (
	"bytes"
	"testing"
)

func TestNewIndexCmd(t *testing.T) {
	cmd := NewIndexCmd()

	if cmd.Use != "index <file>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "index <file>")
	}

	for _, name := range []string{"title", "tenant", "tags", "id"} {
		if flag := cmd.Flags().Lookup(name); flag == nil {
			t.Errorf("%s flag not registered", name)
		}
	}
}

func TestIndexCmd_RequiresFile(t *testing.T) {
	cmd := NewIndexCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--tenant", "acme"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when file argument is missing")
	}
}

func TestIndexCmd_RequiresTenant(t *testing.T) {
	cmd := NewIndexCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"doc.md"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when tenant flag is missing")
	}
}

func TestIndexCmd_MissingFileFails(t *testing.T) {
	cmd := NewIndexCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--tenant", "acme", "/nonexistent/doc.md"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for missing file")
	}
}
