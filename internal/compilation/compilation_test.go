package compilation

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/project"
	"kiln/internal/trace"
)

func testDescriptor() *project.Descriptor {
	return &project.Descriptor{Name: "App", Version: "1.2.0", Dir: "/src/App"}
}

func newContext(t *testing.T, refs []compiler.Reference, produce ResourceProducer, opts ...Option) *CompilationContext {
	t.Helper()
	unit := compiler.NewUnit("App", compiler.Options{}, compiler.Source{Path: "main.kl", Text: "fn main"})
	return New(unit, testDescriptor(), project.MustParseFrameworkName("dnx451"), "Debug", refs, produce, opts...)
}

func countingProducer(calls *int, res ...ResourceDescription) ResourceProducer {
	return func() ([]ResourceDescription, error) {
		*calls++
		return res, nil
	}
}

// hookModule runs arbitrary closures as hooks.
type hookModule struct {
	name   string
	before func(*BeforeCompileContext) error
	after  func(*AfterCompileContext) error
}

func (m hookModule) Name() string { return m.name }

func (m hookModule) BeforeCompile(c *BeforeCompileContext) error {
	if m.before == nil {
		return nil
	}
	return m.before(c)
}

func (m hookModule) AfterCompile(c *AfterCompileContext) error {
	if m.after == nil {
		return nil
	}
	return m.after(c)
}

func runBefore(c *CompilationContext) error {
	mods := c.Modules()
	for i := 0; i < mods.Len(); i++ {
		if err := mods.At(i).BeforeCompile(c.BeforeCompileContext()); err != nil {
			return err
		}
	}
	return nil
}

func TestProjectContext(t *testing.T) {
	c := newContext(t, nil, nil)
	pc := c.ProjectContext()

	assert.Equal(t, "App", pc.Name())
	assert.Equal(t, "1.2.0", pc.Version())
	assert.Equal(t, "Debug", pc.Configuration())
	assert.Equal(t, "DNX,Version=v4.5.1", pc.TargetFramework().String())
	assert.Equal(t, "/src/App/bin/Debug/dnx451", pc.OutputDirectory())
	assert.Equal(t, pc, c.BeforeCompileContext().ProjectContext())
}

func TestResolverRunsProducerOnce(t *testing.T) {
	calls := 0
	r := NewResourceResolver("App", countingProducer(&calls, ResourceDescription{Name: "a"}), nil)
	require.Equal(t, Unresolved, r.State())

	for range 5 {
		items, err := r.Resolve()
		require.NoError(t, err)
		require.Equal(t, []ResourceDescription{{Name: "a"}}, items)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, Resolved, r.State())
}

func TestResolverCachesFailure(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	r := NewResourceResolver("App", func() ([]ResourceDescription, error) {
		calls++
		return nil, boom
	}, nil)

	_, err1 := r.Resolve()
	_, err2 := r.Resolve()

	require.ErrorIs(t, err1, ErrResourceGeneration)
	require.ErrorIs(t, err1, boom)
	assert.Same(t, err1, err2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Failed, r.State())
	assert.Equal(t, err1, r.Err())
}

func TestResolverNilProducer(t *testing.T) {
	r := NewResourceResolver("App", nil, nil)
	items, err := r.Resolve()
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestResolverTracesGeneration(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	r := NewResourceResolver("App", func() ([]ResourceDescription, error) {
		return []ResourceDescription{{Name: "a"}, {Name: "b"}}, nil
	}, ring)

	_, err := r.Resolve()
	require.NoError(t, err)
	_, err = r.Resolve()
	require.NoError(t, err)

	events := ring.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "generating resources for project App", events[0].Detail)
	assert.True(t, strings.HasPrefix(events[1].Detail, "generated 2 resources for App in "), events[1].Detail)
	assert.Equal(t, "App", events[1].Extra["project"])
}

func TestResourceListForcesOnMutation(t *testing.T) {
	calls := 0
	c := newContext(t, nil, countingProducer(&calls, ResourceDescription{Name: "a"}, ResourceDescription{Name: "b"}))
	list := c.Resources()

	require.False(t, list.Resolved())
	require.NoError(t, list.Append(ResourceDescription{Name: "c"}))
	require.True(t, list.Resolved())

	n, err := list.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	removed, err := list.Remove("a")
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, list.RemoveAt(0))
	res, err := list.At(0)
	require.NoError(t, err)
	assert.Equal(t, "c", res.Name)

	_, found, err := list.Find("b")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, list.Clear())
	items, err := list.Items()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, calls)
}

func TestResourceListPropagatesFailure(t *testing.T) {
	c := newContext(t, nil, func() ([]ResourceDescription, error) { return nil, errors.New("disk gone") })
	list := c.BeforeCompileContext().Resources()

	assert.ErrorIs(t, list.Append(ResourceDescription{Name: "x"}), ErrResourceGeneration)
	_, err := list.Len()
	assert.ErrorIs(t, err, ErrResourceGeneration)
	assert.ErrorIs(t, list.Clear(), ErrResourceGeneration)
}

func TestAccessorsShareOneSlot(t *testing.T) {
	c := newContext(t, nil, nil)
	before := c.BeforeCompileContext()

	replaced := c.Compilation().WithSource(compiler.Source{Path: "gen.kl", Text: "fn gen"})
	before.SetCompilation(replaced)
	assert.Same(t, replaced, c.Compilation())

	again := replaced.RemoveSource("gen.kl")
	c.SetCompilation(again)
	assert.Same(t, again, before.Compilation())

	assert.Same(t, c.Diagnostics(), before.Diagnostics())
	assert.Same(t, c.Resources(), before.Resources())
	assert.Same(t, c.MetadataReferences(), before.MetadataReferences())
	assert.Same(t, c.Modules(), before.Modules())
}

func TestBeforePhaseScenario(t *testing.T) {
	calls := 0
	resA := ResourceDescription{Name: "ResourceA", Data: []byte("a")}
	refB := compiler.FileReference{RefName: "MetaRefB", Path: "/lib/b.kimg"}
	c := newContext(t, nil, countingProducer(&calls, resA))

	c.Modules().Append(hookModule{name: "add-ref", before: func(b *BeforeCompileContext) error {
		b.MetadataReferences().Append(refB)
		return nil
	}})
	require.NoError(t, c.EnterBeforePhase())
	require.NoError(t, runBefore(c))

	assert.Equal(t, []compiler.Reference{refB}, c.MetadataReferences().Items())
	for range 2 {
		items, err := c.Resources().Items()
		require.NoError(t, err)
		assert.Equal(t, []ResourceDescription{resA}, items)
	}
	assert.Equal(t, 1, calls)
}

func TestLaterHooksSeeEarlierChanges(t *testing.T) {
	c := newContext(t, nil, nil)
	var seenRefs int
	var seenUnit *compiler.Unit
	var replacement *compiler.Unit

	c.Modules().Append(
		hookModule{name: "first", before: func(b *BeforeCompileContext) error {
			b.MetadataReferences().Append(compiler.FileReference{RefName: "X"})
			replacement = b.Compilation().WithName("Replaced")
			b.SetCompilation(replacement)
			return nil
		}},
		hookModule{name: "second", before: func(b *BeforeCompileContext) error {
			seenRefs = b.MetadataReferences().Len()
			seenUnit = b.Compilation()
			return nil
		}},
	)
	require.NoError(t, runBefore(c))

	assert.Equal(t, 1, seenRefs)
	assert.Same(t, replacement, seenUnit)
	assert.Equal(t, "Replaced", c.Compilation().Name())
}

func TestFailingHookStopsPhase(t *testing.T) {
	c := newContext(t, nil, nil)
	boom := errors.New("boom")
	ran := false
	c.Modules().Append(
		hookModule{name: "fails", before: func(*BeforeCompileContext) error { return boom }},
		hookModule{name: "later", before: func(*BeforeCompileContext) error { ran = true; return nil }},
	)

	assert.ErrorIs(t, runBefore(c), boom)
	assert.False(t, ran)
}

func TestAfterPhaseSeesDiagnosticsInOrder(t *testing.T) {
	c := newContext(t, nil, nil)
	before := c.BeforeCompileContext()
	before.Diagnostics().Add(diag.NewWarning(diag.ModInfo, diag.Location{}, "first"))
	before.Diagnostics().Add(diag.NewInfo(diag.ModInfo, diag.Location{}, "second"))

	require.NoError(t, c.EnterBeforePhase())
	require.NoError(t, c.EnterCompiling())
	after, err := c.EnterAfterPhase(compiler.EmitResult{
		Assembly:    bytes.NewBufferString("img"),
		Diagnostics: []diag.Diagnostic{diag.NewError(diag.CmpUnresolvedRef, diag.Location{}, "third")},
	})
	require.NoError(t, err)
	require.Same(t, after, c.AfterCompileContext())

	var msgs []string
	for _, d := range after.Diagnostics().Items() {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{"first", "second", "third"}, msgs)
	assert.Same(t, before.Diagnostics(), after.Diagnostics())
}

func TestAfterStreams(t *testing.T) {
	c := newContext(t, nil, nil)
	require.NoError(t, c.EnterBeforePhase())
	require.NoError(t, c.EnterCompiling())
	after, err := c.EnterAfterPhase(compiler.EmitResult{Assembly: bytes.NewBufferString("img")})
	require.NoError(t, err)

	assert.Equal(t, "img", after.AssemblyStream().String())
	assert.Nil(t, after.SymbolStream())
	assert.Nil(t, after.XMLDocStream())

	after.SetSymbolStream(bytes.NewBufferString("sym"))
	after.SetXMLDocStream(bytes.NewBufferString("<doc/>"))
	after.SetAssemblyStream(nil)
	assert.Nil(t, after.AssemblyStream())
	assert.Equal(t, "sym", after.SymbolStream().String())
	assert.Equal(t, "<doc/>", after.XMLDocStream().String())
}

func TestPhaseTransitions(t *testing.T) {
	c := newContext(t, nil, nil)
	assert.Equal(t, PhaseCreated, c.Phase())
	assert.Nil(t, c.AfterCompileContext())

	assert.ErrorIs(t, c.EnterCompiling(), ErrInvalidTransition)
	_, err := c.EnterAfterPhase(compiler.EmitResult{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, c.AfterCompileContext())

	require.NoError(t, c.EnterBeforePhase())
	assert.ErrorIs(t, c.EnterBeforePhase(), ErrInvalidTransition)
	require.NoError(t, c.EnterCompiling())
	_, err = c.EnterAfterPhase(compiler.EmitResult{})
	require.NoError(t, err)
	require.NoError(t, c.Finish())
	assert.Equal(t, PhaseDone, c.Phase())
	assert.ErrorIs(t, c.Finish(), ErrInvalidTransition)
}

func TestRunID(t *testing.T) {
	id := uuid.MustParse("7b0f6c1e-4a43-4c1e-9d7e-3f1a2b3c4d5e")
	assert.Equal(t, id, newContext(t, nil, nil, WithRunID(id)).RunID())

	a := newContext(t, nil, nil).RunID()
	b := newContext(t, nil, nil).RunID()
	assert.NotEqual(t, uuid.Nil, a)
	assert.NotEqual(t, a, b)
}

func TestConstructionDoesNotResolve(t *testing.T) {
	calls := 0
	c := newContext(t, []compiler.Reference{compiler.FileReference{RefName: "Sys"}}, countingProducer(&calls))
	assert.Equal(t, 0, calls)
	assert.False(t, c.Resources().Resolved())
	assert.Equal(t, 1, c.MetadataReferences().Len())
}

func TestListOperations(t *testing.T) {
	l := NewList(1, 2, 3, 2)
	l.Insert(1, 9)
	assert.Equal(t, []int{1, 9, 2, 3, 2}, l.Items())
	assert.Equal(t, 2, l.RemoveFunc(func(v int) bool { return v == 2 }))
	assert.Equal(t, 1, l.Index(func(v int) bool { return v == 9 }))
	l.Set(0, 7)
	l.RemoveAt(1)
	assert.Equal(t, []int{7, 3}, l.Items())
	l.Clear()
	assert.Equal(t, 0, l.Len())
}
