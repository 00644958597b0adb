// Package modules holds the built-in compile modules and the registry the
// driver resolves manifest module names against.
package modules

import (
	"errors"
	"fmt"
	"sort"

	"kiln/internal/compilation"
)

var ErrUnknownModule = errors.New("unknown compile module")

// Factory builds a fresh module instance for one run.
type Factory func() compilation.Module

type Entry struct {
	Name    string
	Summary string
	New     Factory
}

type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Default returns a registry with every built-in module.
func Default() *Registry {
	r := NewRegistry()
	for _, e := range builtins() {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(e Entry) error {
	if e.Name == "" || e.New == nil {
		return fmt.Errorf("register module: name and factory are required")
	}
	if _, dup := r.entries[e.Name]; dup {
		return fmt.Errorf("register module %q: already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Lookup instantiates the named module.
func (r *Registry) Lookup(name string) (compilation.Module, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	return e.New(), nil
}

// Names returns registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns registered entries sorted by name.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, name := range r.Names() {
		out = append(out, r.entries[name])
	}
	return out
}

// Resolve instantiates names in order. Every unknown name is reported in
// one joined error.
func (r *Registry) Resolve(names []string) ([]compilation.Module, error) {
	mods := make([]compilation.Module, 0, len(names))
	var errs []error
	for _, name := range names {
		m, err := r.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		mods = append(mods, m)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return mods, nil
}

func builtins() []Entry {
	return []Entry{
		{Name: BuildInfoName, Summary: "injects a generated source with build constants", New: func() compilation.Module { return BuildInfo{} }},
		{Name: ResourceManifestName, Summary: "embeds a manifest listing every resource and its size", New: func() compilation.Module { return ResourceManifest{} }},
		{Name: DedupReferencesName, Summary: "removes metadata references with a repeated name", New: func() compilation.Module { return DedupReferences{} }},
		{Name: StripSymbolsName, Summary: "drops the symbol stream for Release builds", New: func() compilation.Module { return StripSymbols{} }},
		{Name: ChecksumName, Summary: "reports the sha256 of the emitted image", New: func() compilation.Module { return Checksum{} }},
		{Name: WarningsAsErrorsName, Summary: "promotes every warning to an error", New: func() compilation.Module { return WarningsAsErrors{} }},
	}
}
