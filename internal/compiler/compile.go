package compiler

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"kiln/internal/diag"
	"kiln/internal/project"
	"kiln/internal/trace"
)

// Input is everything one compiler invocation consumes.
type Input struct {
	Unit       *Unit
	References []Reference
	Resources  []Resource
}

// EmitResult carries the produced streams and the compiler diagnostics.
// A nil stream was not produced.
type EmitResult struct {
	Assembly    *bytes.Buffer
	Symbols     *bytes.Buffer
	XMLDoc      *bytes.Buffer
	Diagnostics []diag.Diagnostic
}

// Success reports whether an assembly was emitted.
func (r EmitResult) Success() bool {
	return r.Assembly != nil
}

type Compiler interface {
	Compile(ctx context.Context, in Input) (EmitResult, error)
}

// ImageCompiler packages a unit into a kiln image.
type ImageCompiler struct{}

func (ImageCompiler) Compile(ctx context.Context, in Input) (EmitResult, error) {
	if in.Unit == nil {
		return EmitResult{}, fmt.Errorf("compile: nil unit")
	}
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDebug, "emit_image", trace.CurrentSpan(ctx))
	defer span.End(in.Unit.Name())

	bag := diag.NewBag()
	rep := diag.BagReporter{Bag: bag}
	unit := in.Unit

	img := &Image{Format: ImageFormat, Name: unit.Name()}
	symbols := &SymbolTable{Format: SymbolsFormat, Assembly: unit.Name()}
	var decls []decl

	if unit.Len() == 0 {
		diag.ReportWarning(rep, diag.CmpNoSources, diag.Location{},
			fmt.Sprintf("assembly %q has no source files", unit.Name())).Emit()
	}

	seen := make(map[string]diag.Location, unit.Len())
	for _, src := range unit.Sources() {
		if err := ctx.Err(); err != nil {
			return EmitResult{}, err
		}
		loc := diag.Location{File: src.Path}
		if first, dup := seen[src.Path]; dup {
			diag.ReportError(rep, diag.CmpDuplicateSource, loc,
				fmt.Sprintf("source %s is included more than once", src.Path)).
				WithNote(first, "first included here").
				Emit()
			continue
		}
		seen[src.Path] = loc

		if strings.TrimSpace(src.Text) == "" {
			diag.ReportWarning(rep, diag.CmpEmptySource, loc,
				fmt.Sprintf("source %s is empty", src.Path)).Emit()
		}

		scan := scanSource(src.Text)
		for _, d := range scan.Dangling {
			diag.ReportWarning(rep, diag.CmpDanglingDocComment, diag.Location{File: src.Path, Line: toU32(d.Line), Column: 1},
				"documentation comment is not followed by a declaration").Emit()
		}
		file := SymbolFile{Path: src.Path, Lines: toU32(scan.Lines)}
		for _, d := range scan.Decls {
			file.Symbols = append(file.Symbols, Symbol{Name: d.Name, Kind: d.Kind, Line: toU32(d.Line)})
			img.Exports = append(img.Exports, d.Name)
		}
		symbols.Files = append(symbols.Files, file)
		decls = append(decls, scan.Decls...)

		img.Sources = append(img.Sources, ImageSource{
			Path:   src.Path,
			Digest: project.Sum([]byte(src.Text)),
			Text:   src.Text,
		})
	}

	refNames := make(map[string]struct{}, len(in.References))
	for _, ref := range in.References {
		if ref == nil {
			continue
		}
		if _, dup := refNames[ref.Name()]; dup {
			diag.ReportWarning(rep, diag.CmpDuplicateRef, diag.Location{},
				fmt.Sprintf("reference %q is listed more than once; using the first", ref.Name())).Emit()
			continue
		}
		refNames[ref.Name()] = struct{}{}

		data, err := ref.Image()
		if err == nil {
			var refImg *Image
			refImg, err = DecodeImage(data)
			if err == nil {
				img.References = append(img.References, ImageRef{
					Name:     ref.Name(),
					Assembly: refImg.Name,
					Digest:   project.Sum(data),
				})
				continue
			}
		}
		diag.ReportError(rep, diag.CmpUnresolvedRef, diag.Location{},
			fmt.Sprintf("cannot resolve reference %q (%s): %v", ref.Name(), ref.Display(), err)).Emit()
	}

	resNames := make(map[string]struct{}, len(in.Resources))
	for _, res := range in.Resources {
		if _, dup := resNames[res.Name]; dup {
			diag.ReportError(rep, diag.ResDuplicateName, diag.Location{},
				fmt.Sprintf("resource %q is embedded more than once", res.Name)).Emit()
			continue
		}
		resNames[res.Name] = struct{}{}
		img.Resources = append(img.Resources, ImageResource{Name: res.Name, Public: res.Public, Data: res.Data})
	}

	result := EmitResult{Diagnostics: bag.Items()}
	if bag.HasErrors() {
		return result, nil
	}

	var err error
	if result.Assembly, err = encode(img); err != nil {
		return EmitResult{}, fmt.Errorf("encode image: %w", err)
	}
	if unit.Options().Symbols {
		symbols.Image = project.Sum(result.Assembly.Bytes())
		if result.Symbols, err = encode(symbols); err != nil {
			return EmitResult{}, fmt.Errorf("encode symbols: %w", err)
		}
	}
	if unit.Options().Docs {
		if result.XMLDoc, err = renderXMLDoc(unit.Name(), decls); err != nil {
			return EmitResult{}, fmt.Errorf("render docs: %w", err)
		}
	}
	span.WithExtra("bytes", fmt.Sprint(result.Assembly.Len()))
	return result, nil
}
