// Package compiler is the image compiler invoked between the before and after
// phases of a pipeline run.
//
// It does not parse kiln sources beyond recognising top-level declarations
// and their /// documentation. Its job is to validate the unit, resolve
// metadata references and package sources, references and resources into a
// msgpack image (.kimg), with an optional symbol table (.ksym) and XML
// documentation file.
//
// Problems with the input are reported as diagnostics in EmitResult, never as
// errors. Compile returns an error only for cancellation or encoding failures.
package compiler
