package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []ProjectID   // dependencies before dependents (present projects only)
	Batches [][]ProjectID // waves of projects whose dependencies are all built
	Cyclic  bool
	Cycles  []ProjectID // projects left inside a cycle
}

func toID(i int) ProjectID {
	id, err := safecast.Conv[ProjectID](i)
	if err != nil {
		panic(fmt.Errorf("project id overflow: %w", err))
	}
	return id
}

func ToposortKahn(g Graph) *Topo {
	n := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{Order: make([]ProjectID, 0, n)}

	active := 0
	current := make([]ProjectID, 0, n)
	for i := range n {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, toID(i))
		}
	}

	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		var next []ProjectID
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != active {
		topo.Cyclic = true
		for i := range n {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, toID(i))
			}
		}
	}
	return topo
}
