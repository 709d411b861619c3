// Package trace provides structured tracing for elaboration runs.
//
// Tracing is off by default. The CLI enables it with
//
//	hdlelab check --trace=- --trace-level=detail design.toml
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Reserved for crash paths
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Per-instance events
//   - LevelDebug: Everything, including every scope definition
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "resolve-instances", 0)
//	defer span.End("")
//
// The stream tracer renders events through zerolog, either as console text
// or as newline-delimited JSON.
package trace
