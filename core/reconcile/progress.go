package reconcile

// Stage identifies a step of a reconciliation run.
type Stage string

const (
	StageInit             Stage = "init"
	StageValidateMappings Stage = "validate_mappings"
	StageStreamFile1      Stage = "stream_file1"
	StageStreamFile2      Stage = "stream_file2"
	StageDedupeFile1      Stage = "dedupe_file1"
	StageDedupeFile2      Stage = "dedupe_file2"
	StageMatchUniques     Stage = "match_uniques"
	StageSummarize        Stage = "summarize"
	StageDone             Stage = "done"
)

// ProgressFunc receives the current stage and the overall run progress (0-100).
type ProgressFunc func(stage Stage, percent int)

// stageRange is the share of overall progress a stage occupies.
type stageRange struct {
	from, to int
}

var stageRanges = map[Stage]stageRange{
	StageInit:             {0, 0},
	StageValidateMappings: {5, 5},
	StageStreamFile1:      {10, 25},
	StageStreamFile2:      {25, 40},
	StageDedupeFile1:      {40, 55},
	StageDedupeFile2:      {55, 70},
	StageMatchUniques:     {70, 90},
	StageSummarize:        {95, 95},
	StageDone:             {100, 100},
}

// progress turns per-stage fractions into one non-decreasing percentage.
type progress struct {
	fn    ProgressFunc
	stage Stage
	last  int
}

func newProgress(fn ProgressFunc) *progress {
	return &progress{fn: fn, last: -1}
}

// enter reports the start of a stage.
func (p *progress) enter(stage Stage) {
	p.emit(stage, stageRanges[stage].from)
}

// step reports done/total of a stage. An unknown total (<= 0) reports the
// stage start.
func (p *progress) step(stage Stage, done, total int) {
	r := stageRanges[stage]
	pct := r.from
	if total > 0 {
		if done > total {
			done = total
		}
		pct = r.from + (r.to-r.from)*done/total
	}
	p.emit(stage, pct)
}

func (p *progress) emit(stage Stage, pct int) {
	if pct < p.last {
		pct = p.last
	}
	if pct > 100 {
		pct = 100
	}
	if pct == p.last && stage == p.stage {
		return
	}
	p.stage = stage
	p.last = pct
	if p.fn != nil {
		p.fn(stage, pct)
	}
}
