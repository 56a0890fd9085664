package chunk

import (
	"context"
	"fmt"
	"iter"
	"runtime"

	"sheet-reconciler/core/record"
)

const (
	// DefaultSize is the chunk size used when none is configured.
	DefaultSize = 1000
	// MinSize is the smallest permitted chunk size.
	MinSize = 1
	// MaxAdaptiveSize caps AdaptiveSize.
	MaxAdaptiveSize = 2000
	// TargetChunkBytes is the serialized size AdaptiveSize aims for.
	TargetChunkBytes = 5 * 1024 * 1024
)

// ProgressFunc receives the number of items processed so far and the total.
type ProgressFunc func(done, total int)

// Func processes one slice and returns its partial results.
type Func[T, R any] func(ctx context.Context, items []T) ([]R, error)

// Process splits items into slices of at most size, calls fn on each in order
// and returns the flattened results. onProgress may be nil.
func Process[T, R any](ctx context.Context, items []T, size int, fn Func[T, R], onProgress ProgressFunc) ([]R, error) {
	if size < MinSize {
		return nil, fmt.Errorf("chunk size must be >= %d, got %d", MinSize, size)
	}

	total := len(items)
	out := make([]R, 0, total)
	for start := 0; start < total; start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+size, total)
		part, err := fn(ctx, items[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)

		if onProgress != nil {
			onProgress(end, total)
		}
		Yield()
	}
	return out, nil
}

// Split returns contiguous sub-slices of at most size elements. The sub-slices
// share the backing array of items.
func Split[T any](items []T, size int) [][]T {
	if size < MinSize {
		size = DefaultSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		chunks = append(chunks, items[start:min(start+size, len(items))])
	}
	return chunks
}

// Seq exposes a slice as a chunk stream that never fails.
func Seq[T any](items []T, size int) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for _, c := range Split(items, size) {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// Yield is the cooperative suspension point between chunks.
func Yield() {
	runtime.Gosched()
}

// AdaptiveSize estimates how many rows fit into targetBytes based on a sample.
// The result is clamped to [MinSize, MaxAdaptiveSize]; an empty sample yields
// MaxAdaptiveSize.
func AdaptiveSize(sample []*record.Row, targetBytes int) int {
	if targetBytes <= 0 {
		targetBytes = TargetChunkBytes
	}

	var total, n int
	for _, r := range sample {
		if r == nil {
			continue
		}
		total += r.EstimatedSize()
		n++
	}
	if n == 0 || total == 0 {
		return MaxAdaptiveSize
	}

	avg := total / n
	if avg == 0 {
		avg = 1
	}
	size := targetBytes / avg
	return max(MinSize, min(size, MaxAdaptiveSize))
}
