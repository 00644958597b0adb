package dag

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"kiln/internal/diag"
	"kiln/internal/project"
)

const root = "/ws"

func proj(name string, refs ...string) *project.Descriptor {
	dir := filepath.Join(root, name)
	p := &project.Descriptor{
		Name:         name,
		Dir:          dir,
		ManifestPath: filepath.Join(dir, project.ManifestName),
	}
	for _, r := range refs {
		p.References = append(p.References, project.ReferenceSpec{Name: r, Project: "../" + r})
	}
	return p
}

func batchNames(slots []Slot, batches [][]ProjectID) [][]string {
	out := make([][]string, len(batches))
	for i, batch := range batches {
		for _, id := range batch {
			out[i] = append(out[i], slots[int(id)].Project.Name)
		}
	}
	return out
}

func TestBuildIndexIncludesReferencedDirs(t *testing.T) {
	idx := BuildIndex([]*project.Descriptor{proj("app", "lib", "core"), proj("lib")})

	want := []string{"/ws/app", "/ws/core", "/ws/lib"}
	if !reflect.DeepEqual(idx.IDToDir, want) {
		t.Fatalf("IDToDir = %v, want %v", idx.IDToDir, want)
	}
	for i, dir := range want {
		if id, ok := idx.DirToID[dir]; !ok || int(id) != i {
			t.Fatalf("DirToID[%q] = %v, want %d", dir, id, i)
		}
	}
}

func TestPlanBatchesDependenciesFirst(t *testing.T) {
	projects := []*project.Descriptor{
		proj("app", "lib", "util"),
		proj("lib", "util"),
		proj("util"),
		proj("tool"),
	}
	bag := diag.NewBag()
	_, _, slots, topo := Plan(projects, diag.BagReporter{Bag: bag})

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if topo.Cyclic {
		t.Fatalf("unexpected cycle")
	}
	got := batchNames(slots, topo.Batches)
	want := [][]string{{"tool", "util"}, {"lib"}, {"app"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("batches = %v, want %v", got, want)
	}
	if len(topo.Order) != 4 {
		t.Fatalf("order length = %d, want 4", len(topo.Order))
	}
}

func TestBuildGraphReportsMissingAndSelf(t *testing.T) {
	projects := []*project.Descriptor{
		proj("app", "ghost", "app"),
	}
	bag := diag.NewBag()
	idx := BuildIndex(projects)
	g, _ := BuildGraph(idx, projects, diag.BagReporter{Bag: bag})

	if bag.Len() != 2 {
		t.Fatalf("diagnostic count = %d, want 2: %v", bag.Len(), bag.Items())
	}
	if got := bag.At(0).Code; got != diag.ProjMissingProject {
		t.Fatalf("first code = %v, want %v", got, diag.ProjMissingProject)
	}
	if got := bag.At(1).Code; got != diag.ProjSelfReference {
		t.Fatalf("second code = %v, want %v", got, diag.ProjSelfReference)
	}
	appID := idx.DirToID["/ws/app"]
	if g.Indeg[int(appID)] != 0 {
		t.Fatalf("indeg(app) = %d, want 0", g.Indeg[int(appID)])
	}
	if g.Present[int(idx.DirToID["/ws/ghost"])] {
		t.Fatalf("ghost should not be present")
	}
}

func TestBuildGraphDuplicateProjects(t *testing.T) {
	first := proj("lib")
	second := proj("lib")
	bag := diag.NewBag()
	idx := BuildIndex([]*project.Descriptor{first, second})
	_, slots := BuildGraph(idx, []*project.Descriptor{first, second}, diag.BagReporter{Bag: bag})

	if bag.Len() != 1 || bag.At(0).Code != diag.ProjDuplicateProject {
		t.Fatalf("expected one duplicate diagnostic, got %v", bag.Items())
	}
	if len(bag.At(0).Notes) != 1 {
		t.Fatalf("expected note pointing at first declaration")
	}
	if slots[0].Project != first {
		t.Fatalf("first declaration should win")
	}
}

func TestPlanReportsCycles(t *testing.T) {
	projects := []*project.Descriptor{
		proj("a", "b"),
		proj("b", "a"),
		proj("c"),
	}
	bag := diag.NewBag()
	_, _, slots, topo := Plan(projects, diag.BagReporter{Bag: bag})

	if !topo.Cyclic {
		t.Fatalf("expected cycle")
	}
	if got := batchNames(slots, topo.Batches); !reflect.DeepEqual(got, [][]string{{"c"}}) {
		t.Fatalf("batches = %v, want [[c]]", got)
	}
	if bag.Len() != 2 {
		t.Fatalf("diagnostic count = %d, want 2", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.ProjReferenceCycle {
			t.Fatalf("code = %v, want %v", d.Code, diag.ProjReferenceCycle)
		}
		if !strings.Contains(d.Message, "a -> b") {
			t.Fatalf("message %q should list the cycle", d.Message)
		}
	}
}

func TestDuplicateReferenceCountsOnce(t *testing.T) {
	app := proj("app", "lib")
	app.References = append(app.References, project.ReferenceSpec{Name: "lib2", Project: "../lib"})
	projects := []*project.Descriptor{app, proj("lib")}
	idx := BuildIndex(projects)
	g, _ := BuildGraph(idx, projects, nil)

	if got := g.Indeg[int(idx.DirToID["/ws/app"])]; got != 1 {
		t.Fatalf("indeg(app) = %d, want 1", got)
	}
}
