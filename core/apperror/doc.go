// Package apperror defines the structured failures returned across the engine
// boundary.
//
// Every public reconciliation or export operation returns either its payload or
// an *Error carrying a Kind, a human-readable Message and an optional technical
// Detail. Kinds map onto how a caller should react:
//
//   - Validation: configuration is wrong (missing mapping, unknown column). Fix input and rerun.
//   - DataShape: a dataset is unusable (empty sheet, no header row). The run is aborted.
//   - ResourceLimit: an export would exceed a row or byte ceiling. The reconciliation
//     result is still valid and may be exported at a narrower scope.
//   - TransientItem: a single row failed; only escalated when too many rows fail.
//   - Internal: anything unexpected, including recovered panics.
package apperror
