package compilation

import (
	"fmt"

	"github.com/google/uuid"

	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/project"
	"kiln/internal/trace"
)

// Phase is the position of a run in its state machine.
type Phase uint8

const (
	PhaseCreated Phase = iota
	PhaseBefore
	PhaseCompiling
	PhaseAfter
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseBefore:
		return "before-compile"
	case PhaseCompiling:
		return "compiling"
	case PhaseAfter:
		return "after-compile"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// CompilationContext owns one project's pipeline run.
type CompilationContext struct {
	desc   *project.Descriptor
	state  *runState
	before *BeforeCompileContext
	after  *AfterCompileContext
	phase  Phase
	runID  uuid.UUID
	tracer trace.Tracer
}

// Option configures a CompilationContext built by New.
type Option func(*CompilationContext)

// WithTracer sets the sink for resource and phase events.
func WithTracer(t trace.Tracer) Option {
	return func(c *CompilationContext) { c.tracer = trace.OrNop(t) }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id uuid.UUID) Option {
	return func(c *CompilationContext) { c.runID = id }
}

// New builds the project context, the run state and the before-compile view.
// The producer is wired into a fresh resolver and not run.
func New(
	unit *compiler.Unit,
	desc *project.Descriptor,
	framework project.FrameworkName,
	configuration string,
	refs []compiler.Reference,
	produce ResourceProducer,
	opts ...Option,
) *CompilationContext {
	c := &CompilationContext{desc: desc, tracer: trace.Nop}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == uuid.Nil {
		c.runID = uuid.New()
	}

	pc := NewProjectContext(desc, framework, configuration)
	c.state = &runState{
		unit:        unit,
		project:     pc,
		resources:   &ResourceList{r: NewResourceResolver(pc.Name(), produce, c.tracer)},
		diagnostics: diag.NewBag(),
		references:  NewList(refs...),
		modules:     NewList[Module](),
	}
	c.before = &BeforeCompileContext{s: c.state}
	return c
}

func (c *CompilationContext) Project() *project.Descriptor { return c.desc }

func (c *CompilationContext) ProjectContext() ProjectContext { return c.state.project }

func (c *CompilationContext) Modules() *ModuleList { return c.state.modules }

func (c *CompilationContext) Compilation() *compiler.Unit { return c.state.unit }

func (c *CompilationContext) SetCompilation(u *compiler.Unit) { c.state.unit = u }

func (c *CompilationContext) Diagnostics() *diag.Bag { return c.state.diagnostics }

func (c *CompilationContext) Resources() *ResourceList { return c.state.resources }

func (c *CompilationContext) MetadataReferences() *ReferenceList { return c.state.references }

func (c *CompilationContext) BeforeCompileContext() *BeforeCompileContext { return c.before }

// AfterCompileContext is nil until EnterAfterPhase succeeds.
func (c *CompilationContext) AfterCompileContext() *AfterCompileContext { return c.after }

func (c *CompilationContext) RunID() uuid.UUID { return c.runID }

func (c *CompilationContext) Phase() Phase { return c.phase }

func (c *CompilationContext) Tracer() trace.Tracer { return c.tracer }

func (c *CompilationContext) advance(from, to Phase) error {
	if c.phase != from {
		return fmt.Errorf("%w: %s -> %s (run is %s)", ErrInvalidTransition, from, to, c.phase)
	}
	c.phase = to
	trace.Point(c.tracer, trace.ScopePhase, "phase", fmt.Sprintf("%s: %s", c.state.project.Name(), to))
	return nil
}

func (c *CompilationContext) EnterBeforePhase() error {
	return c.advance(PhaseCreated, PhaseBefore)
}

func (c *CompilationContext) EnterCompiling() error {
	return c.advance(PhaseBefore, PhaseCompiling)
}

// EnterAfterPhase appends the compiler diagnostics to the shared sequence,
// installs the emitted streams and returns the after-compile view.
func (c *CompilationContext) EnterAfterPhase(res compiler.EmitResult) (*AfterCompileContext, error) {
	if err := c.advance(PhaseCompiling, PhaseAfter); err != nil {
		return nil, err
	}
	c.state.diagnostics.AddAll(res.Diagnostics...)
	c.state.assembly = res.Assembly
	c.state.symbols = res.Symbols
	c.state.xmlDoc = res.XMLDoc
	c.after = &AfterCompileContext{s: c.state}
	return c.after, nil
}

func (c *CompilationContext) Finish() error {
	return c.advance(PhaseAfter, PhaseDone)
}
