// Package trace is the observability sink of the compile pipeline.
//
// Nothing in the pipeline logs through a process-wide logger: the resource
// resolver, the compilation context and the driver receive a Tracer and emit
// events into it. Tests pass a RingTracer and inspect Snapshot().
//
// # Implementations
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: immediate write to an io.Writer (text or NDJSON)
//   - RingTracer: circular in-memory buffer, dumped when a build fails
//   - LogTracer: structured log lines through phuslu/log
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: driver and pipeline phase boundaries
//   - LevelDetail: per-module hooks and resource generation
//   - LevelDebug: everything
//
// # Usage
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePhase, "before-compile", parentID)
//	defer span.End("")
//
//	trace.Point(t, trace.ScopeResource, "resources", "generating resources for App")
package trace
