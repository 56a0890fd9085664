package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/reconcile"

	"go.uber.org/zap"
)

// FileExtension is the extension of every artifact.
const FileExtension = ".xlsx"

// allLabel names full-report artifacts in place of a category.
const allLabel = "All"

// ProgressFunc receives the export progress (0-100).
type ProgressFunc func(percent int)

// SheetStat describes one written data sheet.
type SheetStat struct {
	Name     string             `json:"name"`
	Category reconcile.Category `json:"category"`
	// Rows is the number of data rows written.
	Rows int `json:"rows"`
	// TotalRows is the number of rows the category holds.
	TotalRows int  `json:"total_rows"`
	Truncated bool `json:"truncated"`
	// Skipped counts rows that could not be serialized.
	Skipped int `json:"skipped"`
}

// Artifact is one exported workbook.
type Artifact struct {
	FileName string      `json:"file_name"`
	Data     []byte      `json:"-"`
	Sheets   []SheetStat `json:"sheets"`
}

// Size returns the artifact size in bytes.
func (a *Artifact) Size() int64 { return int64(len(a.Data)) }

// WriteTo writes the workbook bytes to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	return bytes.NewReader(a.Data).WriteTo(w)
}

// Save writes the artifact into dir and returns its path.
func (a *Artifact) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, a.FileName)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Exporter turns reconciliation results into workbooks.
type Exporter struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates an exporter.
func New(opts Options, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{opts: opts.normalized(), logger: logger, now: time.Now}
}

// Categories returns the categories a full export contains, in sheet order.
func (e *Exporter) Categories() []reconcile.Category {
	cats := reconcile.Categories()
	if e.opts.IncludeDuplicateGroups {
		cats = append(cats, reconcile.GroupCategories()...)
	}
	return cats
}

// ExportAll writes the summary and every category into one workbook.
// Categories above MaxRowsPerSheet are truncated with a note row.
func (e *Exporter) ExportAll(ctx context.Context, res *reconcile.Result, onProgress ProgressFunc) (a *Artifact, err error) {
	defer apperror.Recover(&err, "export all")
	if res == nil {
		return nil, apperror.Validation("no reconciliation result to export")
	}

	plans := make([]sheetPlan, 0, len(e.Categories()))
	for _, c := range e.Categories() {
		plans = append(plans, e.truncatedPlan(res, c))
	}
	return e.write(ctx, res, plans, e.fileName(allLabel, 0), 1, 1, newProgress(onProgress, 0, 100))
}

// ExportCategory writes the summary and a single category.
func (e *Exporter) ExportCategory(ctx context.Context, res *reconcile.Result, c reconcile.Category, onProgress ProgressFunc) (a *Artifact, err error) {
	defer apperror.Recover(&err, "export category")
	if res == nil {
		return nil, apperror.Validation("no reconciliation result to export")
	}
	canon, ok := reconcile.ParseCategory(string(c))
	if !ok {
		return nil, apperror.Validation("unknown category %q", c)
	}

	plans := []sheetPlan{e.truncatedPlan(res, canon)}
	return e.write(ctx, res, plans, e.fileName(canon.Slug(), 0), 1, 1, newProgress(onProgress, 0, 100))
}

// ExportSplit writes every row of every category, spreading large categories
// over several sheets of at most SplitRowsPerSheet rows and the sheets over
// several files of at most MaxSheetsPerFile data sheets.
func (e *Exporter) ExportSplit(ctx context.Context, res *reconcile.Result, categories []reconcile.Category, onProgress ProgressFunc) (out []*Artifact, err error) {
	defer apperror.Recover(&err, "export split")
	if res == nil {
		return nil, apperror.Validation("no reconciliation result to export")
	}
	if len(categories) == 0 {
		categories = e.Categories()
	}

	var plans []sheetPlan
	canon := make([]reconcile.Category, 0, len(categories))
	for _, raw := range categories {
		c, ok := reconcile.ParseCategory(string(raw))
		if !ok {
			return nil, apperror.Validation("unknown category %q", raw)
		}
		canon = append(canon, c)
		plans = append(plans, e.splitPlans(res, c)...)
	}

	label := allLabel
	if len(canon) == 1 {
		label = canon[0].Slug()
	}

	files := partition(plans, e.opts.MaxSheetsPerFile)
	for i, group := range files {
		from := i * 100 / len(files)
		to := (i + 1) * 100 / len(files)
		a, err := e.write(ctx, res, group, e.fileName(label, i+1), i+1, len(files), newProgress(onProgress, from, to))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (e *Exporter) truncatedPlan(res *reconcile.Result, c reconcile.Category) sheetPlan {
	t := tableFor(res, c)
	p := sheetPlan{name: string(c), table: t, end: t.count}
	if t.count > e.opts.MaxRowsPerSheet {
		p.end = e.opts.MaxRowsPerSheet
		p.truncated = true
	}
	return p
}

func (e *Exporter) splitPlans(res *reconcile.Result, c reconcile.Category) []sheetPlan {
	t := tableFor(res, c)
	if t.count == 0 {
		return []sheetPlan{{name: string(c), table: t}}
	}

	var plans []sheetPlan
	for start, n := 0, 1; start < t.count; start, n = start+e.opts.SplitRowsPerSheet, n+1 {
		name := string(c)
		if n > 1 {
			name = fmt.Sprintf("%s (%d)", c, n)
		}
		plans = append(plans, sheetPlan{name: name, table: t, start: start, end: min(start+e.opts.SplitRowsPerSheet, t.count)})
	}
	return plans
}

func partition(plans []sheetPlan, size int) [][]sheetPlan {
	var out [][]sheetPlan
	for start := 0; start < len(plans); start += size {
		out = append(out, plans[start:min(start+size, len(plans))])
	}
	return out
}

// fileName builds <base>_<label>_<yyyy-mm-dd_HH-MM>[_partN].xlsx.
func (e *Exporter) fileName(label string, part int) string {
	name := fmt.Sprintf("%s_%s_%s", e.opts.BaseName, label, e.now().Format("2006-01-02_15-04"))
	if part > 0 {
		name += fmt.Sprintf("_part%d", part)
	}
	return name + FileExtension
}

// write produces one artifact from plans.
func (e *Exporter) write(ctx context.Context, res *reconcile.Result, plans []sheetPlan, fileName string, part, parts int, p *progress) (*Artifact, error) {
	var estimate int64
	totalRows := 0
	for _, pl := range plans {
		estimate += pl.table.estimate(pl.start, pl.end)
		totalRows += pl.rows()
	}
	if estimate > e.opts.MaxBytes {
		return nil, apperror.ResourceLimit("estimated export size %s exceeds the %s limit; export a single category or use split mode",
			formatBytes(estimate), formatBytes(e.opts.MaxBytes))
	}

	log := e.logger.With(zap.String("file", fileName))
	log.Info("Writing export", zap.Int("sheets", len(plans)), zap.Int("rows", totalRows), zap.Int64("estimated_bytes", estimate))

	wb, err := newWorkbook(e.opts, log)
	if err != nil {
		return nil, err
	}
	defer wb.close()

	p.report(0)
	if err := wb.writeSummary(res, plans, part, parts); err != nil {
		return nil, fmt.Errorf("failed to write summary sheet: %w", err)
	}
	p.report(5)

	// Empty sheets still count as one unit so progress moves for them.
	units := totalRows + len(plans)
	done := 0
	for _, pl := range plans {
		stat, err := wb.writeSheet(ctx, pl, func(n int) {
			done += n
			p.report(5 + 85*done/units)
		})
		if err != nil {
			return nil, err
		}
		done++
		p.report(5 + 85*done/units)
		wb.stats = append(wb.stats, stat)
	}

	p.report(90)
	data, err := wb.serialize()
	if err != nil {
		return nil, err
	}
	p.report(100)

	log.Info("Export written", zap.Int("bytes", len(data)))
	return &Artifact{FileName: fileName, Data: data, Sheets: wb.stats}, nil
}

// progress maps 0-100 of one artifact onto [from, to] and never goes back.
type progress struct {
	fn       ProgressFunc
	from, to int
	last     int
}

func newProgress(fn ProgressFunc, from, to int) *progress {
	return &progress{fn: fn, from: from, to: to, last: -1}
}

func (p *progress) report(pct int) {
	pct = min(max(pct, 0), 100)
	v := p.from + (p.to-p.from)*pct/100
	if v <= p.last {
		return
	}
	p.last = v
	if p.fn != nil {
		p.fn(v)
	}
}
