package compilation

import (
	"path/filepath"

	"kiln/internal/project"
)

// ProjectContext is the read-only identity of the project being compiled.
type ProjectContext struct {
	name          string
	version       string
	dir           string
	framework     project.FrameworkName
	configuration string
}

// NewProjectContext derives a ProjectContext from a descriptor. Inputs are
// assumed to be validated by the caller.
func NewProjectContext(desc *project.Descriptor, framework project.FrameworkName, configuration string) ProjectContext {
	pc := ProjectContext{framework: framework, configuration: configuration}
	if desc != nil {
		pc.name = desc.Name
		pc.version = desc.Version
		pc.dir = desc.Dir
	}
	return pc
}

func (p ProjectContext) Name() string                         { return p.name }
func (p ProjectContext) Version() string                      { return p.version }
func (p ProjectContext) ProjectDirectory() string             { return p.dir }
func (p ProjectContext) TargetFramework() project.FrameworkName { return p.framework }
func (p ProjectContext) Configuration() string                { return p.configuration }

// OutputDirectory is <dir>/bin/<Configuration>/<framework short name>.
func (p ProjectContext) OutputDirectory() string {
	return filepath.Join(p.dir, "bin", p.configuration, p.framework.ShortName())
}
