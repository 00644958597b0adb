package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a set of projects built together. A plain project manifest
// loads as a workspace of one.
type Workspace struct {
	Root         string
	ManifestPath string
	Projects     []*Descriptor
}

// LoadWorkspace loads the manifest at path. When it has a [workspace]
// section every member directory's kiln.toml is loaded too; a [project]
// section in the same file makes the root itself a member.
func LoadWorkspace(path string) (*Workspace, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	m, meta, err := decodeManifest(abs)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Root: filepath.Dir(abs), ManifestPath: abs}

	if meta.IsDefined("project") && m.Project != nil {
		d, err := m.descriptor(abs)
		if err != nil {
			return nil, err
		}
		ws.Projects = append(ws.Projects, d)
	}
	if m.Workspace == nil {
		if len(ws.Projects) == 0 {
			return nil, fmt.Errorf("%s: %w", abs, ErrProjectSectionMissing)
		}
		return ws, nil
	}

	for _, member := range m.Workspace.Members {
		memberPath := filepath.Join(ws.Root, filepath.FromSlash(member), ManifestName)
		if _, err := os.Stat(memberPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%s: workspace member %q has no %s", abs, member, ManifestName)
			}
			return nil, fmt.Errorf("%s: failed to stat member %q: %w", abs, member, err)
		}
		d, err := LoadManifest(memberPath)
		if err != nil {
			if errors.Is(err, ErrProjectSectionMissing) {
				return nil, fmt.Errorf("%s: workspace member %q: %w", abs, member, ErrNotAProject)
			}
			return nil, err
		}
		ws.Projects = append(ws.Projects, d)
	}
	return ws, nil
}

// Lookup finds a project by its absolute directory.
func (w *Workspace) Lookup(dir string) (*Descriptor, bool) {
	clean := filepath.Clean(dir)
	for _, p := range w.Projects {
		if p.Dir == clean {
			return p, true
		}
	}
	return nil, false
}
