package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"kiln/internal/compilation"
	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/modules"
	"kiln/internal/project"
	"kiln/internal/resources"
	"kiln/internal/trace"
)

// DefaultConfiguration is used when BuildRequest.Configuration is empty.
const DefaultConfiguration = "Debug"

// Output file extensions.
const (
	ImageExt   = ".kimg"
	SymbolsExt = ".ksym"
	DocExt     = ".xml"
)

// BuildRequest configures one project build.
type BuildRequest struct {
	Project       *project.Descriptor
	Framework     project.FrameworkName // zero selects the first declared framework
	Configuration string
	OutputDir     string // overrides <dir>/bin/<Configuration>/<framework>
	Registry      *modules.Registry
	Compiler      compiler.Compiler
	Cache         *resources.Cache
	Jobs          int
	Tracer        trace.Tracer
	Progress      ProgressSink
	// Images maps absolute project directories to images built earlier in
	// the same workspace run.
	Images map[string]compiler.ImageReference
}

// BuildResult describes one finished project build.
type BuildResult struct {
	Project     string
	RunID       uuid.UUID
	OutputDir   string
	Outputs     []string
	Image       []byte
	Diagnostics []diag.Diagnostic
	Timings     Timings
	Run         RunResult
}

// Build loads a project's sources, assembles its CompilationContext, runs
// the pipeline and writes the produced streams. It returns ErrDiagnostics
// when the run reported errors; nothing is written in that case.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil || req.Project == nil {
		return result, fmt.Errorf("missing build request")
	}
	desc := req.Project
	result.Project = desc.Name

	cc, err := Prepare(ctx, req)
	if err != nil {
		emit(req.Progress, desc.Name, StageBefore, StatusError, err, 0)
		return result, err
	}
	result.RunID = cc.RunID()

	run, err := Run(ctx, &RunRequest{Context: cc, Compiler: req.Compiler, Progress: req.Progress})
	result.Run = run
	result.Timings = run.Timings
	result.Diagnostics = run.Diagnostics
	if err != nil {
		if len(result.Diagnostics) == 0 {
			result.Diagnostics = cc.Diagnostics().Items()
		}
		return result, err
	}
	if run.Failed {
		emit(req.Progress, desc.Name, StageEmit, StatusError, ErrDiagnostics, 0)
		return result, fmt.Errorf("%s: %w", desc.Name, ErrDiagnostics)
	}

	result.OutputDir = req.OutputDir
	if result.OutputDir == "" {
		result.OutputDir = cc.ProjectContext().OutputDirectory()
	}
	start := time.Now()
	emit(req.Progress, desc.Name, StageEmit, StatusWorking, nil, 0)
	outputs, err := writeOutputs(result.OutputDir, cc.Compilation().Name(), run)
	if err != nil {
		emit(req.Progress, desc.Name, StageEmit, StatusError, err, 0)
		return result, err
	}
	result.Outputs = outputs
	if run.Assembly != nil {
		result.Image = slices.Clone(run.Assembly.Bytes())
	}
	result.Timings.Set(StageEmit, time.Since(start))
	emit(req.Progress, desc.Name, StageEmit, StatusDone, nil, result.Timings.Duration(StageEmit))
	return result, nil
}

// Prepare builds the CompilationContext for req without running it.
// Unreadable sources become diagnostics in the context.
func Prepare(ctx context.Context, req *BuildRequest) (*compilation.CompilationContext, error) {
	desc := req.Project
	fw := req.Framework
	if fw.IsZero() {
		def, ok := desc.DefaultFramework()
		if !ok {
			return nil, fmt.Errorf("project %s declares no frameworks", desc.Name)
		}
		fw = def
	} else if !desc.SupportsFramework(fw) {
		return nil, fmt.Errorf("project %s does not target %s", desc.Name, fw)
	}
	configuration := req.Configuration
	if configuration == "" {
		configuration = DefaultConfiguration
	}

	registry := req.Registry
	if registry == nil {
		registry = modules.Default()
	}
	names := slices.Clone(desc.Modules)
	if desc.Compile.WarningsAsErrors && !slices.Contains(names, modules.WarningsAsErrorsName) {
		names = append(names, modules.WarningsAsErrorsName)
	}
	mods, err := registry.Resolve(names)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", desc.Name, err)
	}

	sources, loadDiags, err := loadSources(desc)
	if err != nil {
		return nil, err
	}
	unit := compiler.NewUnit(desc.Name, compiler.Options{
		Symbols: desc.Compile.Symbols,
		Docs:    desc.Compile.Docs,
	}, sources...)

	producer := &resources.Producer{Project: desc, Cache: req.Cache, Jobs: req.Jobs}
	produce := func() ([]compilation.ResourceDescription, error) {
		return producer.Produce(ctx)
	}

	tracer := req.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	cc := compilation.New(unit, desc, fw, configuration,
		references(desc, configuration, fw, req.Images), produce,
		compilation.WithTracer(tracer))
	cc.Modules().Append(mods...)
	cc.Diagnostics().AddAll(loadDiags...)
	return cc, nil
}

func loadSources(desc *project.Descriptor) ([]compiler.Source, []diag.Diagnostic, error) {
	files, err := project.Glob(desc.Dir, desc.Sources)
	if err != nil {
		return nil, nil, fmt.Errorf("project %s: %w", desc.Name, err)
	}
	sources := make([]compiler.Source, 0, len(files))
	var diags []diag.Diagnostic
	for _, rel := range files {
		// #nosec G304 -- path comes from the project's source globs
		data, err := os.ReadFile(desc.Abs(rel))
		if err != nil {
			diags = append(diags, diag.NewError(diag.IOLoadFileError, diag.Location{File: rel},
				"failed to load file: "+err.Error()))
			continue
		}
		sources = append(sources, compiler.Source{Path: rel, Text: string(data)})
	}
	return sources, diags, nil
}

// references turns manifest references into compiler references. A project
// reference without an in-memory image points at the referenced project's
// output directory for the same configuration and framework.
func references(desc *project.Descriptor, configuration string, fw project.FrameworkName, images map[string]compiler.ImageReference) []compiler.Reference {
	refs := make([]compiler.Reference, 0, len(desc.References))
	for _, spec := range desc.References {
		if !spec.IsProject() {
			refs = append(refs, compiler.FileReference{RefName: spec.Name, Path: desc.Abs(spec.Path)})
			continue
		}
		dir := desc.Abs(spec.Project)
		if img, ok := images[dir]; ok {
			if spec.Name != "" {
				img.RefName = spec.Name
			}
			refs = append(refs, img)
			continue
		}
		assembly := spec.ProjectName
		if assembly == "" {
			assembly = filepath.Base(dir)
		}
		name := spec.Name
		if name == "" {
			name = assembly
		}
		refs = append(refs, compiler.FileReference{
			RefName: name,
			Path:    filepath.Join(dir, "bin", configuration, fw.ShortName(), assembly+ImageExt),
		})
	}
	return refs
}

func writeOutputs(dir, name string, run RunResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	streams := []struct {
		ext  string
		data interface{ Bytes() []byte }
		ok   bool
	}{
		{ImageExt, run.Assembly, run.Assembly != nil},
		{SymbolsExt, run.Symbols, run.Symbols != nil},
		{DocExt, run.XMLDoc, run.XMLDoc != nil},
	}
	var outputs []string
	for _, s := range streams {
		path := filepath.Join(dir, name+s.ext)
		if !s.ok {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return outputs, fmt.Errorf("failed to remove stale %s: %w", path, err)
			}
			continue
		}
		if err := os.WriteFile(path, s.data.Bytes(), 0o600); err != nil {
			return outputs, fmt.Errorf("failed to write build output %q: %w", path, err)
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}
