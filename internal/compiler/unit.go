package compiler

import (
	"slices"

	"kiln/internal/project"
)

// Source is one source file of a compilation unit.
type Source struct {
	Path string // slash-separated, relative to the project directory
	Text string
}

type Options struct {
	Symbols bool
	Docs    bool
}

// Unit is an immutable compilation unit. Every With/Replace/Remove method
// returns a new Unit and leaves the receiver untouched, so readers holding
// an older value never observe a change.
type Unit struct {
	name    string
	opts    Options
	sources []Source
}

func NewUnit(name string, opts Options, sources ...Source) *Unit {
	return &Unit{name: name, opts: opts, sources: slices.Clone(sources)}
}

func (u *Unit) Name() string { return u.name }

func (u *Unit) Options() Options { return u.opts }

func (u *Unit) Len() int { return len(u.sources) }

// Sources returns a copy of the sources in unit order.
func (u *Unit) Sources() []Source {
	return slices.Clone(u.sources)
}

// Source returns the first source with the given path.
func (u *Unit) Source(path string) (Source, bool) {
	for _, s := range u.sources {
		if s.Path == path {
			return s, true
		}
	}
	return Source{}, false
}

func (u *Unit) WithName(name string) *Unit {
	next := u.clone()
	next.name = name
	return next
}

func (u *Unit) WithOptions(opts Options) *Unit {
	next := u.clone()
	next.opts = opts
	return next
}

// WithSource appends src. A duplicate path is kept and left for the
// compiler to diagnose.
func (u *Unit) WithSource(src Source) *Unit {
	next := u.clone()
	next.sources = append(next.sources, src)
	return next
}

// ReplaceSource swaps the first source with src.Path, or appends src when
// there is none.
func (u *Unit) ReplaceSource(src Source) *Unit {
	next := u.clone()
	for i := range next.sources {
		if next.sources[i].Path == src.Path {
			next.sources[i] = src
			return next
		}
	}
	next.sources = append(next.sources, src)
	return next
}

// RemoveSource drops every source with the given path.
func (u *Unit) RemoveSource(path string) *Unit {
	next := u.clone()
	next.sources = slices.DeleteFunc(next.sources, func(s Source) bool { return s.Path == path })
	return next
}

// Digest hashes the name and sources in order.
func (u *Unit) Digest() project.Digest {
	deps := make([]project.Digest, 0, 2*len(u.sources))
	for _, s := range u.sources {
		deps = append(deps, project.Sum([]byte(s.Path)), project.Sum([]byte(s.Text)))
	}
	return project.Combine(project.Sum([]byte(u.name)), deps...)
}

func (u *Unit) clone() *Unit {
	return &Unit{name: u.name, opts: u.opts, sources: slices.Clone(u.sources)}
}
