package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiln/internal/diag"
)

const mathSrc = `/// Adds two numbers.
fn add(a, b) = a + b

type Point

/// stray

let zero = 0
`

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func compileOK(t *testing.T, in Input) EmitResult {
	t.Helper()
	res, err := ImageCompiler{}.Compile(context.Background(), in)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.Success() {
		t.Fatalf("Compile failed: %v", res.Diagnostics)
	}
	return res
}

func TestUnitIsImmutable(t *testing.T) {
	base := NewUnit("App", Options{}, Source{Path: "a.kl", Text: "fn a"})
	added := base.WithSource(Source{Path: "b.kl", Text: "fn b"})
	replaced := added.ReplaceSource(Source{Path: "a.kl", Text: "fn a2"})
	removed := replaced.RemoveSource("b.kl")

	if base.Len() != 1 || added.Len() != 2 || removed.Len() != 1 {
		t.Fatalf("lens = %d/%d/%d, want 1/2/1", base.Len(), added.Len(), removed.Len())
	}
	if src, _ := base.Source("a.kl"); src.Text != "fn a" {
		t.Fatalf("base source changed to %q", src.Text)
	}
	if src, _ := removed.Source("a.kl"); src.Text != "fn a2" {
		t.Fatalf("replaced source = %q, want %q", src.Text, "fn a2")
	}
	if base.Digest() == replaced.Digest() {
		t.Fatalf("digest should change with sources")
	}
	if got := base.ReplaceSource(Source{Path: "c.kl"}).Len(); got != 2 {
		t.Fatalf("ReplaceSource on missing path should append, len = %d", got)
	}
}

func TestScanSource(t *testing.T) {
	res := scanSource(mathSrc)
	if res.Lines != 8 {
		t.Fatalf("Lines = %d, want 8", res.Lines)
	}
	if len(res.Decls) != 3 {
		t.Fatalf("decls = %+v, want 3", res.Decls)
	}
	if d := res.Decls[0]; d.Name != "add" || d.Kind != "fn" || d.Line != 2 || len(d.Doc) != 1 || d.Doc[0] != "Adds two numbers." {
		t.Fatalf("first decl = %+v", d)
	}
	if len(res.Dangling) != 1 || res.Dangling[0].Line != 6 {
		t.Fatalf("dangling = %+v, want line 6", res.Dangling)
	}
}

func TestCompileEmitsStreams(t *testing.T) {
	lib := compileOK(t, Input{Unit: NewUnit("Lib", Options{}, Source{Path: "lib.kl", Text: "fn helper"})})

	unit := NewUnit("App", Options{Symbols: true, Docs: true}, Source{Path: "math.kl", Text: mathSrc})
	res := compileOK(t, Input{
		Unit:       unit,
		References: []Reference{ImageReference{RefName: "Lib", Project: "Lib", Data: lib.Assembly.Bytes()}},
		Resources:  []Resource{{Name: "App.logo.png", Data: []byte{1, 2}, Public: true}},
	})

	img, err := DecodeImage(res.Assembly.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Name != "App" || len(img.Sources) != 1 || len(img.Resources) != 1 {
		t.Fatalf("image = %+v", img)
	}
	if len(img.References) != 1 || img.References[0].Assembly != "Lib" {
		t.Fatalf("references = %+v", img.References)
	}
	if strings.Join(img.Exports, ",") != "add,Point,zero" {
		t.Fatalf("exports = %v", img.Exports)
	}

	tab, err := DecodeSymbols(res.Symbols.Bytes())
	if err != nil {
		t.Fatalf("DecodeSymbols: %v", err)
	}
	if len(tab.Files) != 1 || tab.Files[0].Symbols[2].Line != 8 {
		t.Fatalf("symbols = %+v", tab.Files)
	}

	doc := res.XMLDoc.String()
	if !strings.Contains(doc, `<member name="M:App.add">`) || !strings.Contains(doc, "<summary>Adds two numbers.</summary>") {
		t.Fatalf("xml doc missing member:\n%s", doc)
	}
	if strings.Contains(doc, "Point") {
		t.Fatalf("undocumented declarations should not appear:\n%s", doc)
	}

	if got := codes(res.Diagnostics); len(got) != 1 || got[0] != diag.CmpDanglingDocComment {
		t.Fatalf("diagnostics = %v, want [dangling doc comment]", got)
	}
}

func TestCompileOptionalStreamsAbsent(t *testing.T) {
	res := compileOK(t, Input{Unit: NewUnit("App", Options{}, Source{Path: "a.kl", Text: "fn a"})})
	if res.Symbols != nil || res.XMLDoc != nil {
		t.Fatalf("symbols and docs should be absent when disabled")
	}
}

func TestCompileDiagnostics(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.kimg")
	bogus := filepath.Join(t.TempDir(), "bogus.kimg")
	if err := os.WriteFile(bogus, []byte("not msgpack"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		in      Input
		want    []diag.Code
		success bool
	}{
		{
			name:    "no sources",
			in:      Input{Unit: NewUnit("App", Options{})},
			want:    []diag.Code{diag.CmpNoSources},
			success: true,
		},
		{
			name:    "empty source",
			in:      Input{Unit: NewUnit("App", Options{}, Source{Path: "a.kl", Text: "  \n"})},
			want:    []diag.Code{diag.CmpEmptySource},
			success: true,
		},
		{
			name: "duplicate source",
			in: Input{Unit: NewUnit("App", Options{},
				Source{Path: "a.kl", Text: "fn a"}, Source{Path: "a.kl", Text: "fn b"})},
			want: []diag.Code{diag.CmpDuplicateSource},
		},
		{
			name: "missing file reference",
			in: Input{
				Unit:       NewUnit("App", Options{}, Source{Path: "a.kl", Text: "fn a"}),
				References: []Reference{FileReference{RefName: "Sys", Path: missing}},
			},
			want: []diag.Code{diag.CmpUnresolvedRef},
		},
		{
			name: "reference is not an image",
			in: Input{
				Unit:       NewUnit("App", Options{}, Source{Path: "a.kl", Text: "fn a"}),
				References: []Reference{FileReference{RefName: "Sys", Path: bogus}},
			},
			want: []diag.Code{diag.CmpUnresolvedRef},
		},
		{
			name: "duplicate reference and resource",
			in: Input{
				Unit: NewUnit("App", Options{}, Source{Path: "a.kl", Text: "fn a"}),
				References: []Reference{
					FileReference{RefName: "Sys", Path: missing},
					FileReference{RefName: "Sys", Path: missing},
				},
				Resources: []Resource{{Name: "r"}, {Name: "r"}},
			},
			want: []diag.Code{diag.CmpUnresolvedRef, diag.CmpDuplicateRef, diag.ResDuplicateName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ImageCompiler{}.Compile(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			got := codes(res.Diagnostics)
			if len(got) != len(tt.want) {
				t.Fatalf("codes = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("codes = %v, want %v", got, tt.want)
				}
			}
			if res.Success() != tt.success {
				t.Fatalf("Success() = %v, want %v", res.Success(), tt.success)
			}
		})
	}
}

func TestCompileHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ImageCompiler{}.Compile(ctx, Input{Unit: NewUnit("App", Options{}, Source{Path: "a.kl"})})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestDecodeImageRejectsForeignData(t *testing.T) {
	if _, err := DecodeImage([]byte{0xc0}); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("err = %v, want ErrNotAnImage", err)
	}
}
