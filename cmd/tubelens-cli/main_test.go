package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, want := range []string{"validate", "analyze", "cache", "version"} {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", want)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "tubelens-cli ") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestValidateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCommand(t, "validate", path); err != nil {
		t.Errorf("expected valid config to pass, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(bad, []byte("cache:\n  max_memory_entries: \"lots\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCommand(t, "validate", bad); err == nil {
		t.Error("expected invalid config to fail")
	}
}

func TestAnalyzeCmd_RequiresFlags(t *testing.T) {
	if _, err := runCommand(t, "analyze"); err == nil {
		t.Error("expected analyze without --csv/--question to fail")
	}
}
