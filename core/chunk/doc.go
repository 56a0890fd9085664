// Package chunk provides bounded-slice iteration for large row collections.
//
// Work is split into contiguous slices of at most a given size. Between slices
// the processor yields to the scheduler and checks the context, so a long run
// stays responsive and can be aborted by the caller at a chunk boundary.
// Results never depend on the chunk size.
//
// # Adaptive sizing
//
// The exporter sizes its chunks from an estimate of the serialized row size,
// aiming for roughly TargetChunkBytes per chunk and clamping to
// [MinSize, MaxAdaptiveSize].
package chunk
