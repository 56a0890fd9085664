package reconcile

import (
	"context"
	"iter"

	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"
)

// Source supplies one dataset to the Engine.
// Implementations live in core/source (spreadsheets, CSV, database tables).
type Source interface {
	// Name returns a display name for the dataset (usually a file name).
	Name() string

	// Headers returns the dataset's column names. It is called once, before
	// any row is read, to validate column mappings.
	Headers(ctx context.Context) ([]string, error)

	// Rows returns the dataset as a lazy sequence of row chunks. onProgress,
	// when not nil, receives rows read so far and the total if known (0 otherwise).
	Rows(ctx context.Context, onProgress chunk.ProgressFunc) iter.Seq2[[]*record.Row, error]
}

// Dataset is an in-memory dataset for Engine.ProcessRows.
type Dataset struct {
	Name    string        `json:"name"`
	Headers []string      `json:"headers,omitempty"`
	Rows    []*record.Row `json:"rows"`
}

// columns returns the declared headers, or the union of row columns when none
// were declared.
func (d Dataset) columns() []string {
	if len(d.Headers) > 0 {
		return d.Headers
	}
	return record.Headers(d.Rows)
}

// DatasetSource adapts an in-memory Dataset to the Source interface.
type DatasetSource struct {
	dataset   Dataset
	chunkSize int
}

// NewDatasetSource creates a Source over ds. chunkSize <= 0 selects chunk.DefaultSize.
func NewDatasetSource(ds Dataset, chunkSize int) *DatasetSource {
	if chunkSize < chunk.MinSize {
		chunkSize = chunk.DefaultSize
	}
	return &DatasetSource{dataset: ds, chunkSize: chunkSize}
}

// Name returns the dataset name.
func (s *DatasetSource) Name() string { return s.dataset.Name }

// Headers returns the declared or derived column names.
func (s *DatasetSource) Headers(context.Context) ([]string, error) {
	return s.dataset.columns(), nil
}

// Rows yields the dataset in chunks.
func (s *DatasetSource) Rows(ctx context.Context, onProgress chunk.ProgressFunc) iter.Seq2[[]*record.Row, error] {
	rows := s.dataset.Rows
	return func(yield func([]*record.Row, error) bool) {
		done := 0
		for _, part := range chunk.Split(rows, s.chunkSize) {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			done += len(part)
			if onProgress != nil {
				onProgress(done, len(rows))
			}
			if !yield(part, nil) {
				return
			}
		}
	}
}
