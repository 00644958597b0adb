package dag

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"kiln/internal/diag"
	"kiln/internal/project"
)

// Graph holds project references with edges pointing from a dependency to
// the projects that depend on it, so a Kahn sort yields build order.
type Graph struct {
	Edges   [][]ProjectID // Edges[dep] = dependents
	Deps    [][]ProjectID // Deps[p] = direct dependencies of p
	Indeg   []int         // unresolved dependencies per project
	Present []bool        // project is declared, not only referenced
}

type Slot struct {
	Project *project.Descriptor
	Present bool
}

func manifestLoc(p *project.Descriptor) diag.Location {
	if p == nil {
		return diag.Location{}
	}
	return diag.Location{File: p.ManifestPath}
}

// BuildGraph links declared projects through their project references.
// Duplicate, missing and self references are reported through r.
func BuildGraph(idx Index, projects []*project.Descriptor, r diag.Reporter) (Graph, []Slot) {
	n := len(idx.IDToDir)
	g := Graph{
		Edges:   make([][]ProjectID, n),
		Deps:    make([][]ProjectID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	slots := make([]Slot, n)

	for _, p := range projects {
		if p == nil {
			continue
		}
		id, ok := idx.DirToID[filepath.Clean(p.Dir)]
		if !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			diag.ReportError(r, diag.ProjDuplicateProject, manifestLoc(p),
				fmt.Sprintf("duplicate project %q at %s", p.Name, p.Dir)).
				WithNote(manifestLoc(slot.Project), "first declared here").
				Emit()
			continue
		}
		slot.Project = p
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present {
			continue
		}
		seen := make(map[ProjectID]struct{})
		for _, depDir := range slot.Project.ProjectReferences() {
			depID := idx.DirToID[depDir]
			if int(depID) == from {
				diag.ReportError(r, diag.ProjSelfReference, manifestLoc(slot.Project),
					fmt.Sprintf("project %q references itself", slot.Project.Name)).Emit()
				continue
			}
			if !g.Present[int(depID)] {
				diag.ReportError(r, diag.ProjMissingProject, manifestLoc(slot.Project),
					fmt.Sprintf("project %q references %s, which is not part of the workspace", slot.Project.Name, depDir)).Emit()
				continue
			}
			if _, dup := seen[depID]; dup {
				continue
			}
			seen[depID] = struct{}{}
			g.Deps[from] = append(g.Deps[from], depID)
			g.Edges[int(depID)] = append(g.Edges[int(depID)], ProjectID(from))
			g.Indeg[from]++
		}
		slices.Sort(g.Deps[from])
	}
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
	}
	return g, slots
}

// ReportCycles emits one diagnostic per project caught in a reference cycle.
func ReportCycles(slots []Slot, topo *Topo, r diag.Reporter) {
	if topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, slots[int(id)].Project.Name)
	}
	summary := strings.Join(names, " -> ")

	for _, id := range topo.Cycles {
		p := slots[int(id)].Project
		diag.ReportError(r, diag.ProjReferenceCycle, manifestLoc(p),
			fmt.Sprintf("project %q participates in a reference cycle: %s", p.Name, summary)).Emit()
	}
}

// Plan indexes projects, builds the graph, sorts it and reports every
// problem through r. Callers check r's bag for errors before building.
func Plan(projects []*project.Descriptor, r diag.Reporter) (Index, Graph, []Slot, *Topo) {
	idx := BuildIndex(projects)
	g, slots := BuildGraph(idx, projects, r)
	topo := ToposortKahn(g)
	ReportCycles(slots, topo, r)
	return idx, g, slots, topo
}
