package dag

import (
	"fmt"
	"path/filepath"
	"sort"

	"fortio.org/safecast"

	"kiln/internal/project"
)

type ProjectID uint32

// Index assigns dense IDs to every project directory that is declared or
// referenced, in sorted directory order.
type Index struct {
	DirToID map[string]ProjectID
	IDToDir []string
}

func BuildIndex(projects []*project.Descriptor) Index {
	uniq := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p == nil {
			continue
		}
		uniq[filepath.Clean(p.Dir)] = struct{}{}
		for _, dep := range p.ProjectReferences() {
			uniq[dep] = struct{}{}
		}
	}

	dirs := make([]string, 0, len(uniq))
	for dir := range uniq {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	dirToID := make(map[string]ProjectID, len(dirs))
	for i, dir := range dirs {
		id, err := safecast.Conv[ProjectID](i)
		if err != nil {
			panic(fmt.Errorf("project id overflow: %w", err))
		}
		dirToID[dir] = id
	}
	return Index{DirToID: dirToID, IDToDir: dirs}
}
