package export

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"unicode/utf16"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/reconcile"
	"sheet-reconciler/core/record"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// SummarySheet is the name of the first sheet of every artifact.
	SummarySheet = "Summary"
	// NoDataText fills the single row of an empty category sheet.
	NoDataText = "No data"

	sampleRows = 100
)

// sheetPlan is one data sheet of an artifact: rows [start, end) of a table.
type sheetPlan struct {
	name      string
	table     table
	start     int
	end       int
	truncated bool
}

func (p sheetPlan) rows() int { return p.end - p.start }

// workbook writes one artifact.
type workbook struct {
	f      *excelize.File
	opts   Options
	logger *zap.Logger
	stats  []SheetStat
}

func newWorkbook(opts Options, logger *zap.Logger) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	return &workbook{f: f, opts: opts, logger: logger}, nil
}

func (w *workbook) close() {
	if err := w.f.Close(); err != nil {
		w.logger.Warn("Failed to close workbook", zap.Error(err))
	}
}

// streamRows writes rows to sheet starting at row 1.
func (w *workbook) streamRows(sheet string, rows [][]any) error {
	sw, err := w.f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	for i, cells := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// writeSummary fills the summary sheet. plans lists the data sheets of this artifact.
func (w *workbook) writeSummary(res *reconcile.Result, plans []sheetPlan, part, parts int) error {
	s := res.Summary
	rows := [][]any{
		{"Reconciliation Summary"},
		{"Metric", "Value"},
		{"Run ID", res.RunID},
		{"Generated At", res.GeneratedAt.Format(record.DateTimeLayout)},
		{"File 1", res.File1Name},
		{"File 2", res.File2Name},
	}
	if parts > 1 {
		rows = append(rows, []any{"Part", fmt.Sprintf("%d of %d", part, parts)})
	}
	for i, m := range res.ColumnMappings {
		mode := "normalized"
		if m.IsExactMatch {
			mode = "exact"
		}
		rows = append(rows, []any{fmt.Sprintf("Mapping %d", i+1), fmt.Sprintf("%s = %s (%s)", m.File1Column, m.File2Column, mode)})
	}
	rows = append(rows,
		[]any{"Total Rows File 1", s.TotalRowsFile1},
		[]any{"Total Rows File 2", s.TotalRowsFile2},
		[]any{"Unique Rows File 1", s.UniqueRowsFile1},
		[]any{"Unique Rows File 2", s.UniqueRowsFile2},
		[]any{"Empty Rows File 1", s.EmptyRowsFile1},
		[]any{"Empty Rows File 2", s.EmptyRowsFile2},
		[]any{string(reconcile.CategoryMatched), s.Matched},
		[]any{string(reconcile.CategoryInFile1Only), s.InFile1Only},
		[]any{string(reconcile.CategoryInFile2Only), s.InFile2Only},
		[]any{string(reconcile.CategoryDuplicatesInFile1), s.DuplicatesInFile1},
		[]any{string(reconcile.CategoryDuplicatesInFile2), s.DuplicatesInFile2},
		[]any{string(reconcile.CategoryDuplicateGroupsFile1), s.DuplicateGroupsInFile1},
		[]any{string(reconcile.CategoryDuplicateGroupsFile2), s.DuplicateGroupsInFile2},
		[]any{"Match Rate", fmt.Sprintf("%.2f%%", s.MatchRate)},
		[]any{},
		[]any{"Sheet", "Rows Exported", "Rows In Category"},
	)
	for _, p := range plans {
		rows = append(rows, []any{p.name, p.rows(), p.table.count})
	}
	return w.streamRows(SummarySheet, rows)
}

// writeSheet streams one data sheet. onRows receives the number of rows
// handled since the previous call.
func (w *workbook) writeSheet(ctx context.Context, p sheetPlan, onRows func(n int)) (SheetStat, error) {
	stat := SheetStat{Name: p.name, Category: p.table.category, TotalRows: p.table.count, Truncated: p.truncated}

	if _, err := w.f.NewSheet(p.name); err != nil {
		return stat, fmt.Errorf("failed to create sheet %s: %w", p.name, err)
	}
	sw, err := w.f.NewStreamWriter(p.name)
	if err != nil {
		return stat, fmt.Errorf("failed to open sheet %s: %w", p.name, err)
	}

	rowNum := 1
	setRow := func(cells []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", rowNum, p.name, err)
		}
		rowNum++
		return nil
	}

	if p.truncated {
		note := fmt.Sprintf("Note: showing %d of %d rows; %d rows were truncated. Export this category on its own in split mode to get every row.",
			p.rows(), p.table.count, p.table.count-p.rows())
		if err := setRow([]any{note}); err != nil {
			return stat, err
		}
	}

	if p.rows() == 0 {
		if err := setRow([]any{NoDataText}); err != nil {
			return stat, err
		}
		return stat, sw.Flush()
	}

	headers := p.table.headers(p.start, p.end)
	headerCells := make([]any, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := setRow(headerCells); err != nil {
		return stat, err
	}

	size := chunk.AdaptiveSize(p.table.sample(p.start, p.end, sampleRows), w.opts.TargetChunkBytes)
	for start := p.start; start < p.end; start += size {
		if err := ctx.Err(); err != nil {
			return stat, err
		}
		end := min(start+size, p.end)
		for i := start; i < end; i++ {
			cells, err := toCells(p.table.row(i), headers)
			if err != nil {
				stat.Skipped++
				w.logger.Debug("Skipping row", zap.String("sheet", p.name), zap.Int("index", i), zap.Error(err))
				if stat.Skipped > w.opts.MaxItemErrors {
					w.logger.Error("Too many rows failed to serialize", zap.String("sheet", p.name), zap.Int("skipped", stat.Skipped))
					return stat, apperror.New(apperror.KindDataShape,
						fmt.Sprintf("sheet %s: more than %d rows could not be written", p.name, w.opts.MaxItemErrors), err)
				}
				continue
			}
			if err := setRow(cells); err != nil {
				return stat, err
			}
			stat.Rows++
		}
		if onRows != nil {
			onRows(end - start)
		}
		chunk.Yield()
	}

	if stat.Skipped > 0 {
		w.logger.Warn("Rows skipped while exporting", zap.String("sheet", p.name), zap.Int("skipped", stat.Skipped))
	}
	return stat, sw.Flush()
}

// serialize writes the workbook to memory and enforces the byte ceiling.
func (w *workbook) serialize() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if int64(buf.Len()) > w.opts.MaxBytes {
		return nil, apperror.ResourceLimit("export is %s, above the %s limit; export a single category or use split mode",
			formatBytes(int64(buf.Len())), formatBytes(w.opts.MaxBytes))
	}
	return bytes.Clone(buf.Bytes()), nil
}

// toCells converts a row to cell values in header order. A value that cannot
// be stored in a cell fails the row.
func toCells(row *record.Row, headers []string) ([]any, error) {
	cells := make([]any, len(headers))
	for i, h := range headers {
		v, ok := row.Get(h)
		if !ok || v.IsNull() {
			continue
		}
		if f, isNum := v.Float(); isNum {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, apperror.New(apperror.KindTransientItem, fmt.Sprintf("column %s: %v is not a finite number", h, f), nil)
			}
			cells[i] = f
			continue
		}
		s := v.String()
		if len(s) > excelize.TotalCellChars && len(utf16.Encode([]rune(s))) > excelize.TotalCellChars {
			return nil, apperror.New(apperror.KindTransientItem,
				fmt.Sprintf("column %s: value exceeds %d characters", h, excelize.TotalCellChars), nil)
		}
		cells[i] = s
	}
	return cells, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
