package reconcile

import "math"

// buildSummary aggregates counts from the duplicate and match stages.
func buildSummary(dup1, dup2 *DuplicateResult, match *MatchResult) Summary {
	s := Summary{
		TotalRowsFile1:         dup1.TotalCount,
		TotalRowsFile2:         dup2.TotalCount,
		EmptyRowsFile1:         dup1.Dropped,
		EmptyRowsFile2:         dup2.Dropped,
		Matched:                len(match.Matched),
		InFile1Only:            len(match.InFile1Only),
		InFile2Only:            len(match.InFile2Only),
		DuplicatesInFile1:      len(dup1.Duplicates),
		DuplicatesInFile2:      len(dup2.Duplicates),
		DuplicateGroupsInFile1: len(dup1.DuplicateGroups),
		DuplicateGroupsInFile2: len(dup2.DuplicateGroups),
	}

	// Unique counts are derived from the partition so they also hold for
	// stream results, where UniqueItems is not retained.
	s.UniqueRowsFile1 = s.Matched + s.InFile1Only
	s.UniqueRowsFile2 = s.Matched + s.InFile2Only

	if s.UniqueRowsFile1 > 0 {
		s.MatchRate = math.Round(float64(s.Matched)/float64(s.UniqueRowsFile1)*10000) / 100
	}
	return s
}
