package reconcile

import (
	"context"
	"iter"
	"time"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	// Key is the normalization policy for duplicate detection.
	Key KeyOptions

	// ChunkSize bounds the rows processed between yield points.
	ChunkSize int
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{Key: DefaultKeyOptions(), ChunkSize: chunk.DefaultSize}
}

// Engine runs reconciliations. It holds configuration only; every call builds
// its own detector, matcher and key maps, so one Engine may serve concurrent runs.
type Engine struct {
	opts   Options
	logger *zap.Logger
}

// NewEngine creates an engine.
func NewEngine(opts Options, logger *zap.Logger) *Engine {
	if opts.ChunkSize < chunk.MinSize {
		opts.ChunkSize = chunk.DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, logger: logger}
}

// ProcessFiles reconciles two streaming sources.
// Mappings are validated against both header sets before any row is read.
// On error no partial result is returned.
func (e *Engine) ProcessFiles(ctx context.Context, src1, src2 Source, mappings []ColumnMapping, onProgress ProgressFunc) (res *Result, err error) {
	defer apperror.Recover(&err, "process files")

	p := newProgress(onProgress)
	p.enter(StageInit)
	log := e.logger.With(zap.String("file1", src1.Name()), zap.String("file2", src2.Name()))
	log.Info("Starting reconciliation", zap.Int("mappings", len(mappings)))
	start := time.Now()

	p.enter(StageValidateMappings)
	if err := e.validateSources(ctx, src1, src2, mappings); err != nil {
		log.Warn("Mapping validation failed", zap.Error(err))
		return nil, err
	}

	chunks1, err := e.collect(ctx, src1, p, StageStreamFile1)
	if err != nil {
		return nil, err
	}
	chunks2, err := e.collect(ctx, src2, p, StageStreamFile2)
	if err != nil {
		return nil, err
	}

	detector := NewDetector(e.opts.Key, e.opts.ChunkSize, log)
	unique1, dup1, err := e.dedupe(ctx, detector, chunks1, p, StageDedupeFile1)
	if err != nil {
		return nil, err
	}
	unique2, dup2, err := e.dedupe(ctx, detector, chunks2, p, StageDedupeFile2)
	if err != nil {
		return nil, err
	}

	p.enter(StageMatchUniques)
	matcher := e.newMatcher(log, p, countRows(unique1), countRows(unique2))
	match, err := matcher.CompareStreams(ctx, seqOf(unique1), seqOf(unique2), mappings)
	if err != nil {
		return nil, err
	}

	p.enter(StageSummarize)
	res = e.newResult(src1.Name(), src2.Name(), mappings, dup1, dup2, match)
	p.enter(StageDone)

	log.Info("Reconciliation completed",
		zap.String("run_id", res.RunID),
		zap.Int("matched", res.Summary.Matched),
		zap.Int("file1_only", res.Summary.InFile1Only),
		zap.Int("file2_only", res.Summary.InFile2Only),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// ProcessRows reconciles two in-memory datasets with the array forms of the
// detector and matcher.
func (e *Engine) ProcessRows(ctx context.Context, ds1, ds2 Dataset, mappings []ColumnMapping, onProgress ProgressFunc) (res *Result, err error) {
	defer apperror.Recover(&err, "process rows")

	p := newProgress(onProgress)
	p.enter(StageInit)
	log := e.logger.With(zap.String("file1", ds1.Name), zap.String("file2", ds2.Name))

	p.enter(StageValidateMappings)
	if err := ValidateMappings(mappings, ds1.columns(), ds2.columns()); err != nil {
		return nil, err
	}

	// Rows are already in memory.
	p.step(StageStreamFile1, 1, 1)
	p.step(StageStreamFile2, 1, 1)

	detector := NewDetector(e.opts.Key, e.opts.ChunkSize, log)
	dup1, err := detector.FindDuplicates(ctx, ds1.Rows, func(done, total int) {
		p.step(StageDedupeFile1, done, total)
	})
	if err != nil {
		return nil, err
	}
	dup2, err := detector.FindDuplicates(ctx, ds2.Rows, func(done, total int) {
		p.step(StageDedupeFile2, done, total)
	})
	if err != nil {
		return nil, err
	}

	p.enter(StageMatchUniques)
	matcher := e.newMatcher(log, p, len(dup1.UniqueItems), len(dup2.UniqueItems))
	match, err := matcher.CompareArrays(ctx, dup1.UniqueItems, dup2.UniqueItems, mappings)
	if err != nil {
		return nil, err
	}

	p.enter(StageSummarize)
	res = e.newResult(ds1.Name, ds2.Name, mappings, dup1, dup2, match)
	p.enter(StageDone)
	return res, nil
}

// validateSources loads both header sets concurrently and checks the mappings.
func (e *Engine) validateSources(ctx context.Context, src1, src2 Source, mappings []ColumnMapping) error {
	if len(mappings) == 0 {
		return apperror.Validation("at least one column mapping is required")
	}

	var headers1, headers2 []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := loadHeaders(gctx, src1)
		headers1 = h
		return err
	})
	g.Go(func() error {
		h, err := loadHeaders(gctx, src2)
		headers2 = h
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return ValidateMappings(mappings, headers1, headers2)
}

func loadHeaders(ctx context.Context, src Source) ([]string, error) {
	headers, err := src.Headers(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindDataShape, "failed to read headers of "+src.Name())
	}
	if len(headers) == 0 {
		return nil, apperror.DataShape("%s has no header row", src.Name())
	}
	return headers, nil
}

// collect reads a whole source, keeping its chunk boundaries.
func (e *Engine) collect(ctx context.Context, src Source, p *progress, stage Stage) ([][]*record.Row, error) {
	p.enter(stage)

	var chunks [][]*record.Row
	rows := 0
	for part, err := range src.Rows(ctx, func(done, total int) { p.step(stage, done, total) }) {
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperror.Wrap(err, apperror.KindDataShape, "failed to read "+src.Name())
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows += len(part)
		chunks = append(chunks, part)
	}

	p.step(stage, 1, 1)
	e.logger.Debug("Source read", zap.String("source", src.Name()), zap.Int("rows", rows), zap.Int("chunks", len(chunks)))
	return chunks, nil
}

// dedupe drains a duplicate stream over chunks and returns the unique chunks.
func (e *Engine) dedupe(ctx context.Context, d *Detector, chunks [][]*record.Row, p *progress, stage Stage) ([][]*record.Row, *DuplicateResult, error) {
	p.enter(stage)

	total := countRows(chunks)
	read := 0
	counted := func(yield func([]*record.Row, error) bool) {
		for _, part := range chunks {
			read += len(part)
			if !yield(part, nil) {
				return
			}
			p.step(stage, read, total)
		}
	}

	stream := d.FindDuplicatesStream(ctx, counted)
	var unique [][]*record.Row
	for part, err := range stream.Unique() {
		if err != nil {
			return nil, nil, err
		}
		unique = append(unique, part)
	}

	res, err := stream.Result()
	if err != nil {
		return nil, nil, err
	}
	p.step(stage, 1, 1)
	return unique, res, nil
}

func (e *Engine) newMatcher(log *zap.Logger, p *progress, unique1, unique2 int) *Matcher {
	m := NewMatcher(e.opts.ChunkSize, log)
	// Indexing dataset 2 takes the first half of the match stage.
	m.OnIndexed = func(n int) { p.step(StageMatchUniques, n, 2*unique2) }
	m.OnMatched = func(n int) {
		if unique1 > 0 {
			p.step(StageMatchUniques, unique1+n, 2*unique1)
		}
	}
	return m
}

func (e *Engine) newResult(name1, name2 string, mappings []ColumnMapping, dup1, dup2 *DuplicateResult, match *MatchResult) *Result {
	res := &Result{
		RunID:                  uuid.NewString(),
		GeneratedAt:            time.Now(),
		File1Name:              name1,
		File2Name:              name2,
		Matched:                match.Matched,
		InFile1Only:            match.InFile1Only,
		InFile2Only:            match.InFile2Only,
		DuplicatesInFile1:      dup1.Duplicates,
		DuplicatesInFile2:      dup2.Duplicates,
		DuplicateGroupsInFile1: dup1.DuplicateGroups,
		DuplicateGroupsInFile2: dup2.DuplicateGroups,
		ColumnMappings:         append([]ColumnMapping(nil), mappings...),
	}
	res.Summary = buildSummary(dup1, dup2, match)
	return res
}

func countRows(chunks [][]*record.Row) int {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	return n
}

func seqOf(chunks [][]*record.Row) iter.Seq2[[]*record.Row, error] {
	return func(yield func([]*record.Row, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}
