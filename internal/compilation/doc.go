// Package compilation holds the state of one project's pipeline run.
//
// A CompilationContext owns a single run-state record. BeforeCompileContext
// and AfterCompileContext are thin views over that record, so a change made
// through either view, or through the root accessors, is seen by every
// other reader: the compilation unit, diagnostics, metadata references and
// resources each live in exactly one slot.
//
// Resources are produced lazily by a ResourceResolver the first time anything
// reads or mutates the ResourceList. The producer runs at most once; a
// failure is cached and returned to every later caller.
//
// Nothing here is safe for concurrent use. The driver runs one module at a
// time against a context; separate projects get separate contexts.
package compilation
