package project

import (
	"path/filepath"
	"unicode"
)

// Descriptor is the loaded form of a project manifest. It is the
// "project" a compilation context is built from.
type Descriptor struct {
	Name         string
	Version      string
	Dir          string // absolute project directory
	ManifestPath string
	Frameworks   []FrameworkName
	Sources      []string // glob patterns relative to Dir
	Resources    []string // glob patterns relative to Dir
	Modules      []string // compile module names, in run order
	Compile      CompileOptions
	References   []ReferenceSpec
}

// CompileOptions mirrors the [compile] manifest section.
type CompileOptions struct {
	Symbols          bool
	Docs             bool
	WarningsAsErrors bool
}

// ReferenceSpec is one [[references]] entry: either a compiled image on disk
// (Path) or a sibling project (Project, a directory relative to the manifest).
type ReferenceSpec struct {
	Name    string
	Path    string
	Project string
	// ProjectName is the referenced project's own name, which names its
	// image file. Name defaults to it.
	ProjectName string
}

// IsProject reports whether the reference points at a sibling project.
func (r ReferenceSpec) IsProject() bool {
	return r.Project != ""
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<nil project>"
	}
	return d.Name
}

// Abs resolves a manifest-relative path against the project directory.
func (d *Descriptor) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(d.Dir, filepath.FromSlash(rel))
}

// ProjectReferences returns the absolute directories of referenced projects
// in declaration order.
func (d *Descriptor) ProjectReferences() []string {
	var out []string
	for _, ref := range d.References {
		if ref.IsProject() {
			out = append(out, d.Abs(ref.Project))
		}
	}
	return out
}

// DefaultFramework returns the first declared framework.
func (d *Descriptor) DefaultFramework() (FrameworkName, bool) {
	if d == nil || len(d.Frameworks) == 0 {
		return FrameworkName{}, false
	}
	return d.Frameworks[0], true
}

// SupportsFramework reports whether fw is one of the declared frameworks.
func (d *Descriptor) SupportsFramework(fw FrameworkName) bool {
	for _, f := range d.Frameworks {
		if f == fw {
			return true
		}
	}
	return false
}

// IsValidProjectName accepts ASCII identifiers separated by dots or dashes:
// "App", "My.Lib", "tool-chain_2".
func IsValidProjectName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if r != '_' && r != '.' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return name[len(name)-1] != '.'
}
