package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[project]
name = "App"
frameworks = ["dnx451", "DNXCore,Version=v5.0"]
resources = ["res/**/*"]
modules = ["build-info", "checksum"]

[compile]
symbols = true
warnings_as_errors = true

[[references]]
path = "lib/System.Runtime.kimg"

[[references]]
project = "../Lib"
`)

	d, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if d.Name != "App" || d.Version != defaultVersion || d.Dir != dir {
		t.Fatalf("unexpected identity: %+v", d)
	}
	if len(d.Frameworks) != 2 || d.Frameworks[1].ShortName() != "dnxcore50" {
		t.Fatalf("frameworks = %+v", d.Frameworks)
	}
	if len(d.Sources) != 1 || d.Sources[0] != defaultSources {
		t.Fatalf("sources default not applied: %v", d.Sources)
	}
	if !d.Compile.Symbols || d.Compile.Docs || !d.Compile.WarningsAsErrors {
		t.Fatalf("compile options = %+v", d.Compile)
	}
	if len(d.References) != 2 || d.References[0].Name != "System.Runtime" || !d.References[1].IsProject() {
		t.Fatalf("references = %+v", d.References)
	}
	refs := d.ProjectReferences()
	if len(refs) != 1 || refs[0] != filepath.Join(filepath.Dir(dir), "Lib") {
		t.Fatalf("project references = %v", refs)
	}
	if fw, ok := d.DefaultFramework(); !ok || fw.ShortName() != "dnx451" {
		t.Fatalf("default framework = %v", fw)
	}
}

func TestLoadManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{
			name:    "missing project",
			body:    "[compile]\nsymbols = true\n",
			wantSub: "missing [project]",
		},
		{
			name:    "bad name",
			body:    "[project]\nname = \"1bad\"\nframeworks = [\"dnx451\"]\n",
			wantSub: "projname",
		},
		{
			name:    "no frameworks",
			body:    "[project]\nname = \"App\"\n",
			wantSub: "Frameworks",
		},
		{
			name:    "reference with path and project",
			body:    "[project]\nname = \"App\"\nframeworks = [\"dnx451\"]\n[[references]]\npath = \"a.kimg\"\nproject = \"../B\"\n",
			wantSub: "excluded_with",
		},
		{
			name:    "unknown key",
			body:    "[project]\nname = \"App\"\nframeworks = [\"dnx451\"]\ncolour = \"blue\"\n",
			wantSub: "unknown keys",
		},
		{
			name:    "duplicate framework",
			body:    "[project]\nname = \"App\"\nframeworks = [\"dnx451\", \"DNX,Version=v4.5.1\"]\n",
			wantSub: "duplicate framework",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, t.TempDir(), tt.body)
			_, err := LoadManifest(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadManifestMissingProjectIsSentinel(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[workspace]\nmembers = [\"A\"]\n")
	if _, err := LoadManifest(path); !errors.Is(err, ErrProjectSectionMissing) {
		t.Fatalf("err = %v, want ErrProjectSectionMissing", err)
	}
}

func TestLoadWorkspace(t *testing.T) {
	root := t.TempDir()
	rootPath := writeManifest(t, root, "[workspace]\nmembers = [\"App\", \"Lib\"]\n")
	writeManifest(t, filepath.Join(root, "App"), "[project]\nname = \"App\"\nframeworks = [\"dnx451\"]\n[[references]]\nproject = \"../Lib\"\n")
	writeManifest(t, filepath.Join(root, "Lib"), "[project]\nname = \"Lib\"\nframeworks = [\"dnx451\"]\n")

	ws, err := LoadWorkspace(rootPath)
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	if len(ws.Projects) != 2 || ws.Projects[0].Name != "App" || ws.Projects[1].Name != "Lib" {
		t.Fatalf("projects = %v", ws.Projects)
	}
	lib, ok := ws.Lookup(ws.Projects[0].ProjectReferences()[0])
	if !ok || lib.Name != "Lib" {
		t.Fatalf("Lookup failed: %v %v", lib, ok)
	}
}

func TestLoadWorkspaceMissingMember(t *testing.T) {
	root := t.TempDir()
	rootPath := writeManifest(t, root, "[workspace]\nmembers = [\"Ghost\"]\n")
	if _, err := LoadWorkspace(rootPath); err == nil || !strings.Contains(err.Error(), "Ghost") {
		t.Fatalf("expected missing member error, got %v", err)
	}
}

func TestSingleProjectWorkspace(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[project]\nname = \"Solo\"\nframeworks = [\"dnx451\"]\n")
	ws, err := LoadWorkspace(path)
	if err != nil || len(ws.Projects) != 1 || ws.Projects[0].Name != "Solo" {
		t.Fatalf("LoadWorkspace = %+v, %v", ws, err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"App\"\nframeworks = [\"dnx451\"]\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o750); err != nil {
		t.Fatal(err)
	}
	got, err := FindProjectRoot(nested)
	if err != nil || got != root {
		t.Fatalf("FindProjectRoot = %q, %v; want %q", got, err, root)
	}
}

func TestUnnamedProjectReferenceTakesProjectName(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "lib-src"), "[project]\nname = \"Lib\"\nframeworks = [\"dnx451\"]\n")
	path := writeManifest(t, filepath.Join(root, "App"), `
[project]
name = "App"
frameworks = ["dnx451"]

[[references]]
project = "../lib-src"

[[references]]
project = "../Tools"

[[references]]
name = "Core"
project = "../lib-src"
`)

	d, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	want := []ReferenceSpec{
		{Name: "Lib", Project: "../lib-src", ProjectName: "Lib"},
		{Name: "Tools", Project: "../Tools", ProjectName: "Tools"},
		{Name: "Core", Project: "../lib-src", ProjectName: "Lib"},
	}
	if len(d.References) != len(want) {
		t.Fatalf("references = %+v", d.References)
	}
	for i, w := range want {
		if d.References[i] != w {
			t.Fatalf("references[%d] = %+v, want %+v", i, d.References[i], w)
		}
	}
}
