package compilation

import (
	"bytes"

	"kiln/internal/compiler"
	"kiln/internal/diag"
)

// runState is the single mutable record behind both phase views.
type runState struct {
	unit        *compiler.Unit
	project     ProjectContext
	resources   *ResourceList
	diagnostics *diag.Bag
	references  *ReferenceList
	modules     *ModuleList

	assembly *bytes.Buffer
	symbols  *bytes.Buffer
	xmlDoc   *bytes.Buffer
}

// BeforeCompileContext is what before-compile hooks see.
type BeforeCompileContext struct {
	s *runState
}

func (c *BeforeCompileContext) Compilation() *compiler.Unit { return c.s.unit }

// SetCompilation replaces the unit for every later reader, including the
// compiler.
func (c *BeforeCompileContext) SetCompilation(u *compiler.Unit) { c.s.unit = u }

func (c *BeforeCompileContext) ProjectContext() ProjectContext { return c.s.project }

func (c *BeforeCompileContext) Resources() *ResourceList { return c.s.resources }

func (c *BeforeCompileContext) Diagnostics() *diag.Bag { return c.s.diagnostics }

func (c *BeforeCompileContext) MetadataReferences() *ReferenceList { return c.s.references }

// Modules is the live module list. Changes to entries after the running
// module affect the rest of the run.
func (c *BeforeCompileContext) Modules() *ModuleList { return c.s.modules }

// AfterCompileContext is what after-compile hooks see. A nil stream was not
// produced; hooks must treat it as absent, not as an error.
type AfterCompileContext struct {
	s *runState
}

func (c *AfterCompileContext) Compilation() *compiler.Unit { return c.s.unit }

func (c *AfterCompileContext) ProjectContext() ProjectContext { return c.s.project }

func (c *AfterCompileContext) Diagnostics() *diag.Bag { return c.s.diagnostics }

func (c *AfterCompileContext) AssemblyStream() *bytes.Buffer     { return c.s.assembly }
func (c *AfterCompileContext) SetAssemblyStream(b *bytes.Buffer) { c.s.assembly = b }
func (c *AfterCompileContext) SymbolStream() *bytes.Buffer       { return c.s.symbols }
func (c *AfterCompileContext) SetSymbolStream(b *bytes.Buffer)   { c.s.symbols = b }
func (c *AfterCompileContext) XMLDocStream() *bytes.Buffer       { return c.s.xmlDoc }
func (c *AfterCompileContext) SetXMLDocStream(b *bytes.Buffer)   { c.s.xmlDoc = b }
