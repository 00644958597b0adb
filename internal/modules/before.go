package modules

import (
	"fmt"
	"strings"

	"kiln/internal/compilation"
	"kiln/internal/compiler"
	"kiln/internal/diag"
)

const (
	BuildInfoName        = "build-info"
	ResourceManifestName = "resource-manifest"
	DedupReferencesName  = "dedup-references"

	// BuildInfoPath is the generated source added by build-info.
	BuildInfoPath = "__buildinfo.kl"
)

// BuildInfo adds a source declaring the project's build constants.
type BuildInfo struct{ compilation.Base }

func (BuildInfo) Name() string { return BuildInfoName }

func (BuildInfo) BeforeCompile(c *compilation.BeforeCompileContext) error {
	unit := c.Compilation()
	if unit == nil {
		diag.ReportWarning(diag.BagReporter{Bag: c.Diagnostics()}, diag.ModUnsupportedUnit, diag.Location{},
			"build-info: no compilation unit to extend").Emit()
		return nil
	}
	pc := c.ProjectContext()
	var b strings.Builder
	b.WriteString("/// Generated by build-info.\n")
	fmt.Fprintf(&b, "const BUILD_PROJECT = %q\n", pc.Name())
	fmt.Fprintf(&b, "const BUILD_VERSION = %q\n", pc.Version())
	fmt.Fprintf(&b, "const BUILD_CONFIGURATION = %q\n", pc.Configuration())
	fmt.Fprintf(&b, "const BUILD_FRAMEWORK = %q\n", pc.TargetFramework().String())
	c.SetCompilation(unit.ReplaceSource(compiler.Source{Path: BuildInfoPath, Text: b.String()}))
	return nil
}

// ResourceManifest embeds a text resource listing each resource with its
// size, one per line.
type ResourceManifest struct{ compilation.Base }

func (ResourceManifest) Name() string { return ResourceManifestName }

// ManifestResourceName names the manifest resource added for projectName.
func ManifestResourceName(projectName string) string {
	return projectName + ".resources.manifest"
}

func (ResourceManifest) BeforeCompile(c *compilation.BeforeCompileContext) error {
	items, err := c.Resources().Items()
	if err != nil {
		return err
	}
	name := ManifestResourceName(c.ProjectContext().Name())
	var b strings.Builder
	for _, res := range items {
		if res.Name == name {
			continue
		}
		fmt.Fprintf(&b, "%s\t%d\n", res.Name, len(res.Data))
	}
	if _, err := c.Resources().Remove(name); err != nil {
		return err
	}
	return c.Resources().Append(compilation.ResourceDescription{Name: name, Data: []byte(b.String())})
}

// DedupReferences keeps the first reference for each name.
type DedupReferences struct{ compilation.Base }

func (DedupReferences) Name() string { return DedupReferencesName }

func (DedupReferences) BeforeCompile(c *compilation.BeforeCompileContext) error {
	refs := c.MetadataReferences()
	seen := make(map[string]struct{}, refs.Len())
	rep := diag.BagReporter{Bag: c.Diagnostics()}
	for i := 0; i < refs.Len(); {
		ref := refs.At(i)
		if _, dup := seen[ref.Name()]; dup {
			diag.ReportInfo(rep, diag.ModDuplicateRef, diag.Location{},
				fmt.Sprintf("removed duplicate reference %q (%s)", ref.Name(), ref.Display())).Emit()
			refs.RemoveAt(i)
			continue
		}
		seen[ref.Name()] = struct{}{}
		i++
	}
	return nil
}
