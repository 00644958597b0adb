// Package buildpipeline drives compilation contexts through their phases and
// turns project descriptors into written images.
package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"kiln/internal/compilation"
	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/observ"
	"kiln/internal/resources"
	"kiln/internal/trace"
)

// RunRequest drives one prepared CompilationContext.
type RunRequest struct {
	Context  *compilation.CompilationContext
	Compiler compiler.Compiler // nil means compiler.ImageCompiler
	Progress ProgressSink
}

// RunResult holds the final streams as left by the after-compile hooks.
type RunResult struct {
	Assembly    *bytes.Buffer
	Symbols     *bytes.Buffer
	XMLDoc      *bytes.Buffer
	Diagnostics []diag.Diagnostic
	Failed      bool
	Timings     Timings
	Report      observ.Report
}

// Run executes the before hooks, the compiler and the after hooks in order.
// A hook error aborts the run as a *ModuleError. Compiler diagnostics are
// data: Run succeeds with Failed set when the bag holds errors.
func Run(ctx context.Context, req *RunRequest) (result RunResult, err error) {
	if req == nil || req.Context == nil {
		return result, fmt.Errorf("missing run request")
	}
	cc := req.Context
	comp := req.Compiler
	if comp == nil {
		comp = compiler.ImageCompiler{}
	}
	name := cc.ProjectContext().Name()
	tracer := cc.Tracer()
	timer := observ.NewTimer()
	defer func() {
		result.Report = timer.Report()
		for _, stage := range Stages {
			if d := timer.Duration(string(stage)); d > 0 {
				result.Timings.Set(stage, d)
			}
		}
	}()

	span := trace.Begin(tracer, trace.ScopeDriver, "run", trace.CurrentSpan(ctx)).
		WithExtra("project", name).
		WithExtra("run_id", cc.RunID().String())
	defer span.End("")
	ctx = trace.WithSpan(trace.WithTracer(ctx, tracer), span)

	// before-compile
	if err := cc.EnterBeforePhase(); err != nil {
		return result, err
	}
	idx := timer.Begin(string(StageBefore))
	emit(req.Progress, name, StageBefore, StatusWorking, nil, 0)
	if err := runHooks(ctx, cc, req.Progress, StageBefore, func(m compilation.Module) error {
		return m.BeforeCompile(cc.BeforeCompileContext())
	}); err != nil {
		timer.End(idx, "failed")
		emit(req.Progress, name, StageBefore, StatusError, err, 0)
		return result, err
	}
	timer.End(idx, fmt.Sprintf("%d modules", cc.Modules().Len()))
	emit(req.Progress, name, StageBefore, StatusDone, nil, timer.Duration(string(StageBefore)))

	if err := cc.EnterCompiling(); err != nil {
		return result, err
	}

	// resources
	idx = timer.Begin(string(StageResources))
	emit(req.Progress, name, StageResources, StatusWorking, nil, 0)
	res, err := cc.Resources().Items()
	if err != nil {
		timer.End(idx, "failed")
		reportResourceFailure(cc.Diagnostics(), err)
		result.Diagnostics = cc.Diagnostics().Items()
		result.Failed = true
		emit(req.Progress, name, StageResources, StatusError, err, 0)
		return result, err
	}
	timer.End(idx, fmt.Sprintf("%d resources", len(res)))
	emit(req.Progress, name, StageResources, StatusDone, nil, timer.Duration(string(StageResources)))

	// compile
	idx = timer.Begin(string(StageCompile))
	emit(req.Progress, name, StageCompile, StatusWorking, nil, 0)
	phase := trace.Begin(tracer, trace.ScopePhase, "compile", span.ID())
	emitted, err := comp.Compile(trace.WithSpan(ctx, phase), compiler.Input{
		Unit:       cc.Compilation(),
		References: cc.MetadataReferences().Items(),
		Resources:  res,
	})
	phase.End(fmt.Sprintf("%d diagnostics", len(emitted.Diagnostics)))
	timer.End(idx, "")
	if err != nil {
		err = fmt.Errorf("compile %s: %w", name, err)
		emit(req.Progress, name, StageCompile, StatusError, err, 0)
		return result, err
	}
	emit(req.Progress, name, StageCompile, StatusDone, nil, timer.Duration(string(StageCompile)))

	// after-compile
	after, err := cc.EnterAfterPhase(emitted)
	if err != nil {
		return result, err
	}
	idx = timer.Begin(string(StageAfter))
	emit(req.Progress, name, StageAfter, StatusWorking, nil, 0)
	if err := runHooks(ctx, cc, req.Progress, StageAfter, func(m compilation.Module) error {
		return m.AfterCompile(after)
	}); err != nil {
		timer.End(idx, "failed")
		emit(req.Progress, name, StageAfter, StatusError, err, 0)
		return result, err
	}
	timer.End(idx, "")
	emit(req.Progress, name, StageAfter, StatusDone, nil, timer.Duration(string(StageAfter)))

	if err := cc.Finish(); err != nil {
		return result, err
	}

	result.Assembly = after.AssemblyStream()
	result.Symbols = after.SymbolStream()
	result.XMLDoc = after.XMLDocStream()
	result.Diagnostics = after.Diagnostics().Items()
	result.Failed = after.Diagnostics().HasErrors()
	span.WithExtra("diagnostics", fmt.Sprint(len(result.Diagnostics)))
	return result, nil
}

// runHooks walks the live module list by index, so hooks that edit entries
// after themselves change what runs next.
func runHooks(ctx context.Context, cc *compilation.CompilationContext, sink ProgressSink, stage Stage, call func(compilation.Module) error) error {
	tracer := trace.FromContext(ctx)
	parent := trace.Begin(tracer, trace.ScopePhase, string(stage), trace.CurrentSpan(ctx))
	defer parent.End("")

	mods := cc.Modules()
	for i := 0; i < mods.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := mods.At(i)
		if m == nil {
			continue
		}
		emitModule(sink, cc.ProjectContext().Name(), stage, m.Name())
		span := trace.Begin(tracer, trace.ScopeModule, m.Name(), parent.ID())
		err := call(m)
		span.End(string(stage))
		if err != nil {
			return &ModuleError{Module: m.Name(), Phase: cc.Phase(), Err: err}
		}
	}
	return nil
}

func reportResourceFailure(bag *diag.Bag, err error) {
	rep := diag.BagReporter{Bag: bag}
	var te *resources.TableError
	if errors.As(err, &te) {
		diag.ReportError(rep, diag.ResInvalidTable, diag.Location{File: te.Path}, te.Error()).Emit()
		return
	}
	diag.ReportError(rep, diag.ResGenerationFailed, diag.Location{}, err.Error()).Emit()
}
