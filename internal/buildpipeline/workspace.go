package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/project"
	"kiln/internal/project/dag"
	"kiln/internal/trace"
)

// WorkspaceRequest builds several projects in dependency order. Template
// supplies the per-project options; its Project and Images are ignored.
type WorkspaceRequest struct {
	Projects []*project.Descriptor
	Template BuildRequest
	Jobs     int // projects built at once; <= 0 means GOMAXPROCS
}

// WorkspaceResult lists the project builds in completion order.
type WorkspaceResult struct {
	Batches     [][]string
	Projects    []BuildResult
	Diagnostics []diag.Diagnostic // planning and skipped-project diagnostics
}

// BuildWorkspace plans the project graph and builds each batch in parallel.
// Dependents of a failed project are not built.
func BuildWorkspace(ctx context.Context, req *WorkspaceRequest) (WorkspaceResult, error) {
	var result WorkspaceResult
	if req == nil || len(req.Projects) == 0 {
		return result, fmt.Errorf("missing workspace request")
	}
	tracer := req.Template.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeDriver, "workspace", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(trace.WithTracer(ctx, tracer), span)

	bag := diag.NewBag()
	emit(req.Template.Progress, "", StagePlan, StatusWorking, nil, 0)
	_, _, slots, topo := dag.Plan(req.Projects, diag.BagReporter{Bag: bag})
	if bag.HasErrors() {
		result.Diagnostics = bag.Items()
		emit(req.Template.Progress, "", StagePlan, StatusError, ErrDiagnostics, 0)
		return result, fmt.Errorf("workspace: %w", ErrDiagnostics)
	}
	for _, batch := range topo.Batches {
		names := make([]string, len(batch))
		for i, id := range batch {
			names[i] = slots[int(id)].Project.Name
		}
		result.Batches = append(result.Batches, names)
	}
	emit(req.Template.Progress, "", StagePlan, StatusDone, nil, 0)
	for _, p := range req.Projects {
		emit(req.Template.Progress, p.Name, StageBefore, StatusQueued, nil, 0)
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	images := make(map[string]compiler.ImageReference, len(slots))
	var errs []error
	for bi, batch := range topo.Batches {
		results := make([]BuildResult, len(batch))
		batchErrs := make([]error, len(batch))

		// images is read-only while a batch runs
		var g errgroup.Group
		g.SetLimit(min(jobs, len(batch)))
		for i, id := range batch {
			g.Go(func() error {
				breq := req.Template
				breq.Project = slots[int(id)].Project
				breq.Images = images
				breq.Tracer = tracer
				results[i], batchErrs[i] = Build(ctx, &breq)
				return nil
			})
		}
		_ = g.Wait()

		for i, id := range batch {
			p := slots[int(id)].Project
			result.Projects = append(result.Projects, results[i])
			if batchErrs[i] != nil {
				errs = append(errs, batchErrs[i])
				continue
			}
			images[p.Dir] = compiler.ImageReference{RefName: p.Name, Project: p.Name, Data: results[i].Image}
		}
		if len(errs) > 0 {
			skipRemaining(bag, slots, topo.Batches[bi+1:])
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
	}
	result.Diagnostics = bag.Items()
	return result, errors.Join(errs...)
}

func skipRemaining(bag *diag.Bag, slots []dag.Slot, batches [][]dag.ProjectID) {
	for _, batch := range batches {
		for _, id := range batch {
			p := slots[int(id)].Project
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.ProjDependencyFailed,
				diag.Location{File: p.ManifestPath},
				fmt.Sprintf("project %s was not built because a project before it failed", p.Name)).Emit()
		}
	}
}
