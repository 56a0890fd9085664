package reconcile

import (
	"context"
	"errors"
	"iter"

	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"

	"go.uber.org/zap"
)

var (
	// ErrStreamNotDrained is returned by DuplicateStream.Result before the
	// unique stream has been fully consumed.
	ErrStreamNotDrained = errors.New("duplicate stream has not been fully consumed")

	// ErrStreamConsumed is yielded when a DuplicateStream is iterated twice.
	ErrStreamConsumed = errors.New("duplicate stream can only be consumed once")
)

// DuplicateResult partitions one dataset into unique rows and duplicates.
type DuplicateResult struct {
	// UniqueItems holds the first occurrence of every key, in arrival order.
	UniqueItems []*record.Row

	// Duplicates holds every later occurrence, in arrival order.
	Duplicates []*record.Row

	// DuplicateGroups holds one group per duplicated key, in order of the
	// first collision.
	DuplicateGroups []DuplicateGroup

	// TotalCount is the number of rows consumed, excluding nil entries.
	TotalCount int

	// Dropped counts rows whose key was empty; they are neither unique nor duplicate.
	Dropped int
}

// Detector finds exact duplicate rows using all-columns composite keys.
type Detector struct {
	opts      KeyOptions
	chunkSize int
	logger    *zap.Logger
}

// NewDetector creates a detector. chunkSize <= 0 selects chunk.DefaultSize.
// Column order never affects the key: SortColumns is always enabled.
func NewDetector(opts KeyOptions, chunkSize int, logger *zap.Logger) *Detector {
	if chunkSize < chunk.MinSize {
		chunkSize = chunk.DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.SortColumns = true
	return &Detector{opts: opts, chunkSize: chunkSize, logger: logger}
}

// dedupeState is the per-run bookkeeping shared by both detector forms.
type dedupeState struct {
	keys       *KeyBuilder
	opts       KeyOptions
	seen       map[string]*record.Row
	groupIndex map[string]int
	groups     []DuplicateGroup
	duplicates []*record.Row
	total      int
	dropped    int
}

func newDedupeState(opts KeyOptions) *dedupeState {
	return &dedupeState{
		keys:       NewKeyBuilder(),
		opts:       opts,
		seen:       make(map[string]*record.Row),
		groupIndex: make(map[string]int),
	}
}

// process classifies a slice of rows and returns the ones seen for the first time.
func (s *dedupeState) process(rows []*record.Row) []*record.Row {
	unique := make([]*record.Row, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		s.total++

		key := s.keys.Build(row, nil, s.opts)
		if key == "" {
			s.dropped++
			continue
		}

		original, seen := s.seen[key]
		if !seen {
			s.seen[key] = row
			unique = append(unique, row)
			continue
		}

		s.duplicates = append(s.duplicates, row)
		if idx, ok := s.groupIndex[key]; ok {
			s.groups[idx].Items = append(s.groups[idx].Items, row)
		} else {
			s.groupIndex[key] = len(s.groups)
			s.groups = append(s.groups, DuplicateGroup{Key: key, Items: []*record.Row{original, row}})
		}
	}
	return unique
}

func (s *dedupeState) result(unique []*record.Row) *DuplicateResult {
	return &DuplicateResult{
		UniqueItems:     unique,
		Duplicates:      s.duplicates,
		DuplicateGroups: s.groups,
		TotalCount:      s.total,
		Dropped:         s.dropped,
	}
}

// FindDuplicates partitions rows in bounded chunks. onProgress may be nil.
func (d *Detector) FindDuplicates(ctx context.Context, rows []*record.Row, onProgress chunk.ProgressFunc) (*DuplicateResult, error) {
	state := newDedupeState(d.opts)

	unique, err := chunk.Process(ctx, rows, d.chunkSize, func(_ context.Context, part []*record.Row) ([]*record.Row, error) {
		return state.process(part), nil
	}, onProgress)
	if err != nil {
		return nil, err
	}

	res := state.result(unique)
	d.logger.Debug("Duplicate detection completed",
		zap.Int("total", res.TotalCount),
		zap.Int("unique", len(res.UniqueItems)),
		zap.Int("duplicates", len(res.Duplicates)),
		zap.Int("groups", len(res.DuplicateGroups)),
		zap.Int("dropped", res.Dropped),
	)
	return res, nil
}

// DuplicateStream is the lazy form of FindDuplicates. Unique yields chunks of
// unique rows as the source is read; Result becomes available once Unique has
// been iterated to the end.
type DuplicateStream struct {
	ctx       context.Context
	src       iter.Seq2[[]*record.Row, error]
	state     *dedupeState
	chunkSize int
	logger    *zap.Logger

	started bool
	drained bool
	unique  int
	err     error
}

// FindDuplicatesStream wraps a chunk stream. Nothing is read until Unique is iterated.
func (d *Detector) FindDuplicatesStream(ctx context.Context, chunks iter.Seq2[[]*record.Row, error]) *DuplicateStream {
	return &DuplicateStream{
		ctx:       ctx,
		src:       chunks,
		state:     newDedupeState(d.opts),
		chunkSize: d.chunkSize,
		logger:    d.logger,
	}
}

// Unique returns the stream of unique-row chunks. It may be iterated once.
func (s *DuplicateStream) Unique() iter.Seq2[[]*record.Row, error] {
	return func(yield func([]*record.Row, error) bool) {
		if s.started {
			yield(nil, ErrStreamConsumed)
			return
		}
		s.started = true

		for rows, err := range s.src {
			if err != nil {
				s.err = err
				yield(nil, err)
				return
			}
			for _, part := range chunk.Split(rows, s.chunkSize) {
				if err := s.ctx.Err(); err != nil {
					s.err = err
					yield(nil, err)
					return
				}

				unique := s.state.process(part)
				s.unique += len(unique)
				if len(unique) > 0 && !yield(unique, nil) {
					return
				}
				chunk.Yield()
			}
		}
		s.drained = true
		s.logger.Debug("Duplicate stream drained",
			zap.Int("total", s.state.total),
			zap.Int("unique", s.unique),
			zap.Int("duplicates", len(s.state.duplicates)),
		)
	}
}

// Result returns duplicates, groups and counts. UniqueItems is left nil since
// unique rows were handed out through the stream.
func (s *DuplicateStream) Result() (*DuplicateResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.drained {
		return nil, ErrStreamNotDrained
	}
	return s.state.result(nil), nil
}

// UniqueCount returns the number of unique rows yielded so far.
func (s *DuplicateStream) UniqueCount() int {
	return s.unique
}
