package reconcile

import (
	"context"
	"iter"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"

	"go.uber.org/zap"
)

// MatchResult partitions two sets of unique rows.
type MatchResult struct {
	Matched     []MatchedPair
	InFile1Only []*record.Row
	InFile2Only []*record.Row
}

// candidate is an indexed dataset 2 row.
type candidate struct {
	row     *record.Row
	claimed bool
}

// candidateQueue is a FIFO of candidate positions sharing one match key.
type candidateQueue struct {
	positions []int
	head      int
}

// Matcher pairs rows of two datasets by mapping-derived keys.
//
// Dataset 2 is indexed completely before dataset 1 is read, so memory grows
// with the number of unique dataset 2 rows.
type Matcher struct {
	chunkSize int
	logger    *zap.Logger

	// OnIndexed and OnMatched, when set, receive running row counts for the
	// indexing and matching passes.
	OnIndexed func(rows int)
	OnMatched func(rows int)
}

// NewMatcher creates a matcher. chunkSize only affects CompareArrays.
func NewMatcher(chunkSize int, logger *zap.Logger) *Matcher {
	if chunkSize < chunk.MinSize {
		chunkSize = chunk.DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{chunkSize: chunkSize, logger: logger}
}

// CompareArrays matches two slices of unique rows.
func (m *Matcher) CompareArrays(ctx context.Context, data1, data2 []*record.Row, mappings []ColumnMapping) (*MatchResult, error) {
	return m.CompareStreams(ctx, chunk.Seq(data1, m.chunkSize), chunk.Seq(data2, m.chunkSize), mappings)
}

// CompareStreams drains unique2 into an index, then streams unique1 once.
// Each dataset 1 row claims the earliest unclaimed dataset 2 row with the same
// match key. Unclaimed dataset 2 rows are returned in their original order.
func (m *Matcher) CompareStreams(ctx context.Context, unique1, unique2 iter.Seq2[[]*record.Row, error], mappings []ColumnMapping) (*MatchResult, error) {
	if len(mappings) == 0 {
		return nil, apperror.Validation("at least one column mapping is required")
	}

	keys := NewKeyBuilder()

	// Pass 1: index dataset 2.
	var candidates []candidate
	index := make(map[string]*candidateQueue)
	for rows, err := range unique2 {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row == nil {
				continue
			}
			pos := len(candidates)
			candidates = append(candidates, candidate{row: row})

			key := keys.MatchKey(row, mappings, Side2)
			if key == "" {
				continue
			}
			q, ok := index[key]
			if !ok {
				q = &candidateQueue{}
				index[key] = q
			}
			q.positions = append(q.positions, pos)
		}
		if m.OnIndexed != nil {
			m.OnIndexed(len(candidates))
		}
		chunk.Yield()
	}

	// Pass 2: stream dataset 1.
	res := &MatchResult{}
	processed := 0
	for rows, err := range unique1 {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row == nil {
				continue
			}
			processed++

			if partner := claim(index, candidates, keys.MatchKey(row, mappings, Side1)); partner != nil {
				res.Matched = append(res.Matched, MatchedPair{File1: row, File2: partner})
			} else {
				res.InFile1Only = append(res.InFile1Only, row)
			}
		}
		if m.OnMatched != nil {
			m.OnMatched(processed)
		}
		chunk.Yield()
	}

	// Remainder of dataset 2, original order.
	for i := range candidates {
		if !candidates[i].claimed {
			res.InFile2Only = append(res.InFile2Only, candidates[i].row)
		}
	}

	m.logger.Debug("Matching completed",
		zap.Int("indexed", len(candidates)),
		zap.Int("processed", processed),
		zap.Int("matched", len(res.Matched)),
		zap.Int("file1_only", len(res.InFile1Only)),
		zap.Int("file2_only", len(res.InFile2Only)),
	)
	return res, nil
}

// claim pops the first unclaimed candidate for key, or returns nil.
func claim(index map[string]*candidateQueue, candidates []candidate, key string) *record.Row {
	if key == "" {
		return nil
	}
	q, ok := index[key]
	if !ok {
		return nil
	}
	for q.head < len(q.positions) {
		c := &candidates[q.positions[q.head]]
		q.head++
		if !c.claimed {
			c.claimed = true
			return c.row
		}
	}
	return nil
}
