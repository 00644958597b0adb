// Package diag defines the diagnostic model shared by every pipeline phase.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings produced by
//     resource generation, compile modules, the compiler and project loading.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier with a stable string form (RES1001).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the Location the finding points at; zero for project-level
//     findings.
//   - Notes – optional secondary locations/messages.
//
// # Ordering
//
// A Bag is an ordered sequence. Producers append; nothing in this package
// sorts, deduplicates or caps it, because the compile pipeline promises that
// diagnostics come out in the order they were reported. Modules that want to
// change an entry do it in place (Set) or explicitly (RemoveAt).
//
// # Emitting diagnostics
//
// Producers use a Reporter. ReportError/ReportWarning/ReportInfo build a
// ReportBuilder that can be enriched with WithNote before Emit. BagReporter
// appends into a Bag.
package diag
