package compilation

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"kiln/internal/compiler"
	"kiln/internal/trace"
)

// ResourceDescription is a named payload embedded into the compiled image.
type ResourceDescription = compiler.Resource

// ResourceProducer generates a project's resources. It may be expensive and
// may have side effects, so a resolver calls it at most once.
type ResourceProducer func() ([]ResourceDescription, error)

// ResolveState tracks whether a resolver's producer has run.
type ResolveState uint8

const (
	// Unresolved means the producer has not been called yet.
	Unresolved ResolveState = iota
	// Resolved means the items are cached.
	Resolved
	// Failed means the producer returned an error, which is cached.
	Failed
)

func (s ResolveState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "ResolveState(" + strconv.Itoa(int(s)) + ")"
	}
}

// ResourceResolver memoises a ResourceProducer.
type ResourceResolver struct {
	project string
	produce ResourceProducer
	tracer  trace.Tracer

	state   ResolveState
	items   []ResourceDescription
	err     error
	elapsed time.Duration
}

// NewResourceResolver wires produce without running it. A nil produce
// resolves to an empty list.
func NewResourceResolver(project string, produce ResourceProducer, tracer trace.Tracer) *ResourceResolver {
	return &ResourceResolver{
		project: project,
		produce: produce,
		tracer:  trace.OrNop(tracer),
	}
}

// Resolve returns the resources, running the producer on the first call.
// The returned slice is the resolver's own; mutate through ResourceList.
func (r *ResourceResolver) Resolve() ([]ResourceDescription, error) {
	switch r.state {
	case Resolved:
		return r.items, nil
	case Failed:
		return nil, r.err
	}

	extra := map[string]string{"project": r.project}
	trace.PointTimed(r.tracer, trace.ScopeResource, "resources",
		fmt.Sprintf("generating resources for project %s", r.project), 0, extra)

	start := time.Now()
	var (
		items []ResourceDescription
		err   error
	)
	if r.produce != nil {
		items, err = r.produce()
	}
	r.elapsed = time.Since(start)

	if err != nil {
		r.state = Failed
		r.err = fmt.Errorf("%w for project %s: %w", ErrResourceGeneration, r.project, err)
		trace.PointTimed(r.tracer, trace.ScopeResource, "resources",
			fmt.Sprintf("resource generation for %s failed after %d ms: %v", r.project, r.elapsed.Milliseconds(), err),
			r.elapsed, extra)
		return nil, r.err
	}

	r.items = slices.Clone(items)
	if r.items == nil {
		r.items = []ResourceDescription{}
	}
	r.state = Resolved
	trace.PointTimed(r.tracer, trace.ScopeResource, "resources",
		fmt.Sprintf("generated %d resources for %s in %d ms", len(items), r.project, r.elapsed.Milliseconds()),
		r.elapsed, extra)
	return r.items, nil
}

func (r *ResourceResolver) State() ResolveState { return r.state }

// Elapsed is the time the producer took, zero until it has run.
func (r *ResourceResolver) Elapsed() time.Duration { return r.elapsed }

// Err returns the cached producer failure without forcing resolution.
func (r *ResourceResolver) Err() error { return r.err }

func (r *ResourceResolver) set(items []ResourceDescription) {
	r.items = items
}
