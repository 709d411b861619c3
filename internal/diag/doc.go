// Package diag defines the diagnostic model shared by the design loader and
// both elaboration engines.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form (CFG/ELB/SCP/IO/OBS prefixes), a short Message, the Primary
// span and optional Notes pointing at related spans ("previous declaration
// was here").
//
// Producers emit through a Reporter, usually via the builder:
//
//	diag.ReportError(r, diag.ElabUnknownParam, span, msg).
//		WithNote(span, "declared parameters are `A`, `B`").
//		Emit()
//
// BagReporter collects into a Bag, which supports sorting, deduplication and
// merging. Bags are not goroutine-safe; concurrent producers own a bag each.
// DedupReporter drops repeated reports before they reach the bag.
//
// Package diag does no formatting beyond the single-line short form;
// rendering lives in internal/diagfmt.
package diag
