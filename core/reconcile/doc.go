// Package reconcile compares two tabular datasets and classifies their rows.
//
// A run removes exact duplicates inside each dataset, pairs the remaining rows
// across datasets using column mappings and reports four disjoint partitions:
// matched pairs, rows only in dataset 1, rows only in dataset 2 and the
// duplicates of each dataset (with their groups).
//
// # Architecture
//
// The package is built from four parts, leaves first:
//
// 1. KeyBuilder: derives composite keys. Duplicate detection uses every column
// of a row, sorted by name. Matching uses the mapped columns in mapping order,
// with exact mappings compared raw and the rest trimmed and case-folded.
//
// 2. Detector: partitions one dataset into unique rows and duplicates. It has
// an array form (FindDuplicates) and a lazy form (FindDuplicatesStream) that
// yields unique chunks while the source is read.
//
// 3. Matcher: indexes all unique rows of dataset 2 by match key, then streams
// dataset 1 once. Rows sharing a key are paired first-in first-out, and every
// dataset 2 row is paired at most once.
//
// 4. Engine: validates mappings against both header sets, then runs the
// stages Init, ValidateMappings, StreamFile1, StreamFile2, DedupeFile1,
// DedupeFile2, MatchUniques, Summarize and Done, reporting one
// non-decreasing 0-100 progress value.
//
// # Memory
//
// The matcher holds every unique dataset 2 row in memory while dataset 1 is
// streamed. Put the smaller dataset second when inputs are very large.
//
// # Usage Example
//
//	engine := reconcile.NewEngine(reconcile.DefaultOptions(), logger)
//	mappings := []reconcile.ColumnMapping{
//	    {File1Column: "id", File2Column: "ID", IsExactMatch: true},
//	    {File1Column: "name", File2Column: "Name"},
//	}
//
//	result, err := engine.ProcessFiles(ctx, src1, src2, mappings, func(stage reconcile.Stage, pct int) {
//	    logger.Debug("progress", zap.String("stage", string(stage)), zap.Int("percent", pct))
//	})
//
// Sources are provided by core/source; in-memory data can be passed to
// ProcessRows or wrapped with NewDatasetSource.
package reconcile
