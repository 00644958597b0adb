package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"kiln/internal/diag"
)

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "auto": uiModeAuto, " ON ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil {
			t.Fatalf("readUIMode(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("readUIMode(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestPrintDiagnostics(t *testing.T) {
	color.NoColor = true
	diags := []diag.Diagnostic{
		diag.NewWarning(diag.CmpEmptySource, diag.Location{File: "/ws/app/src/a.kl", Line: 1, Column: 1}, "empty\nsource"),
		diag.NewError(diag.CmpUnresolvedRef, diag.Location{}, "unresolved reference util").
			WithNote(diag.Location{File: "/ws/app/kiln.toml"}, "declared here"),
	}
	var out bytes.Buffer
	if err := printDiagnostics(&out, diags, "/ws", false); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{
		"app/src/a.kl:1:1: warning[",
		"empty source",
		"<project>: error[",
		"note: app/kiln.toml: declared here",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	if err := printDiagnostics(&out, diags, "/ws", true); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "warning") {
		t.Fatalf("quiet output kept a warning:\n%s", out.String())
	}
}

func TestBuildCommand(t *testing.T) {
	root := t.TempDir()
	manifest := "[project]\nname = \"demo\"\nframeworks = [\"dnx451\"]\nmodules = [\"build-info\"]\n"
	if err := os.WriteFile(filepath.Join(root, "kiln.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.kl"), []byte("pub fn main\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"build", "--ui=off", "--no-cache", "--color=off", root})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("build: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "built demo -> bin/Debug/dnx451") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(root, "bin", "Debug", "dnx451", "demo.kimg")); err != nil {
		t.Fatalf("image not written: %v", err)
	}
}
