package source

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SheetInfo describes one worksheet of a workbook.
type SheetInfo struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	// Rows counts non-blank rows below the header.
	Rows int `json:"rows"`
}

// Excel reads one worksheet of an .xlsx workbook.
type Excel struct {
	name      string
	sheet     string
	chunkSize int
	open      func() (*excelize.File, error)
	logger    *zap.Logger
}

// Option configures a source.
type Option func(*options)

type options struct {
	chunkSize int
	logger    *zap.Logger
}

// WithChunkSize sets the number of rows per yielded chunk.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{chunkSize: chunk.DefaultSize, logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.chunkSize < chunk.MinSize {
		o.chunkSize = chunk.DefaultSize
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// NewExcel creates a source for sheet of the workbook at path. An empty sheet
// selects the first worksheet.
func NewExcel(path, sheet string, opts ...Option) *Excel {
	o := buildOptions(opts)
	return &Excel{
		name:      filepath.Base(path),
		sheet:     sheet,
		chunkSize: o.chunkSize,
		open:      func() (*excelize.File, error) { return excelize.OpenFile(path) },
		logger:    o.logger,
	}
}

// NewExcelBytes creates a source over an in-memory workbook, such as an upload.
func NewExcelBytes(name string, data []byte, sheet string, opts ...Option) *Excel {
	o := buildOptions(opts)
	return &Excel{
		name:      name,
		sheet:     sheet,
		chunkSize: o.chunkSize,
		open:      func() (*excelize.File, error) { return excelize.OpenReader(bytes.NewReader(data)) },
		logger:    o.logger,
	}
}

// Name returns the workbook name, with the sheet when one was chosen.
func (e *Excel) Name() string {
	if e.sheet == "" {
		return e.name
	}
	return e.name + " [" + e.sheet + "]"
}

// Sheets lists the worksheets of the workbook with their header rows.
func (e *Excel) Sheets(ctx context.Context) ([]SheetInfo, error) {
	f, err := e.openFile()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []SheetInfo
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := inspectSheet(f, name)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Headers returns the normalized header row of the sheet.
func (e *Excel) Headers(ctx context.Context) ([]string, error) {
	f, err := e.openFile()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := e.resolveSheet(f)
	if err != nil {
		return nil, err
	}
	return readHeaderRow(f, sheet)
}

// Rows streams the data rows of the sheet in chunks.
func (e *Excel) Rows(ctx context.Context, onProgress chunk.ProgressFunc) iter.Seq2[[]*record.Row, error] {
	return func(yield func([]*record.Row, error) bool) {
		f, err := e.openFile()
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close()

		sheet, err := e.resolveSheet(f)
		if err != nil {
			yield(nil, err)
			return
		}

		rows, err := f.Rows(sheet)
		if err != nil {
			yield(nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err))
			return
		}
		defer rows.Close()

		// The recorded dimension is only an estimate and may be missing.
		total := max(sheetRowCount(f, sheet)-1, 0)

		var headers []string
		batch := make([]*record.Row, 0, e.chunkSize)
		read, skipped := 0, 0
		for rows.Next() {
			cells, err := rows.Columns()
			if err != nil {
				yield(nil, fmt.Errorf("failed to read row %d of %s: %w", read+skipped+2, sheet, err))
				return
			}
			if headers == nil {
				if isBlank(cells) {
					yield(nil, apperror.DataShape("sheet %s has a blank header row", sheet))
					return
				}
				headers = normalizeHeaders(cells)
				continue
			}
			if isBlank(cells) {
				skipped++
				continue
			}

			batch = append(batch, cellsToRow(headers, cells))
			read++
			if len(batch) < e.chunkSize {
				continue
			}

			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if onProgress != nil {
				if total < read {
					total = 0
				}
				onProgress(read, total)
			}
			if !yield(batch, nil) {
				return
			}
			batch = make([]*record.Row, 0, e.chunkSize)
		}
		if err := rows.Error(); err != nil {
			yield(nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err))
			return
		}
		if headers == nil {
			yield(nil, apperror.DataShape("sheet %s of %s is empty", sheet, e.name))
			return
		}

		if onProgress != nil {
			onProgress(read, read)
		}
		e.logger.Debug("Sheet read",
			zap.String("file", e.name),
			zap.String("sheet", sheet),
			zap.Int("rows", read),
			zap.Int("blank_rows", skipped),
		)
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}

func (e *Excel) openFile() (*excelize.File, error) {
	f, err := e.open()
	if err != nil {
		return nil, apperror.New(apperror.KindDataShape, fmt.Sprintf("failed to open workbook %s", e.name), err)
	}
	return f, nil
}

func (e *Excel) resolveSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", apperror.DataShape("workbook %s has no sheets", e.name)
	}
	if e.sheet == "" {
		return sheets[0], nil
	}
	if !slices.Contains(sheets, e.sheet) {
		return "", apperror.DataShape("sheet %q not found in %s (available: %s)", e.sheet, e.name, strings.Join(sheets, ", "))
	}
	return e.sheet, nil
}

// inspectSheet reads the header row and counts the data rows of sheet.
// Empty sheets are reported without headers.
func inspectSheet(f *excelize.File, sheet string) (SheetInfo, error) {
	info := SheetInfo{Name: sheet}
	rows, err := f.Rows(sheet)
	if err != nil {
		return info, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return info, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		switch {
		case info.Headers == nil:
			if isBlank(cells) {
				return info, nil
			}
			info.Headers = normalizeHeaders(cells)
		case !isBlank(cells):
			info.Rows++
		}
	}
	return info, rows.Error()
}

// readHeaderRow returns the first row of sheet, normalized.
func readHeaderRow(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		return nil, apperror.DataShape("sheet %s is empty", sheet)
	}
	cells, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row of %s: %w", sheet, err)
	}
	if isBlank(cells) {
		return nil, apperror.DataShape("sheet %s has a blank header row", sheet)
	}
	return normalizeHeaders(cells), nil
}

// sheetRowCount reads the row count from the sheet dimension, or 0.
func sheetRowCount(f *excelize.File, sheet string) int {
	dim, err := f.GetSheetDimension(sheet)
	if err != nil || dim == "" {
		return 0
	}
	_, last, found := strings.Cut(dim, ":")
	if !found {
		last = dim
	}
	_, row, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return 0
	}
	return row
}

// cellsToRow maps cells onto headers. Missing and blank cells become null;
// cells beyond the header row are ignored.
func cellsToRow(headers, cells []string) *record.Row {
	row := record.New(len(headers))
	for i, h := range headers {
		if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
			row.Set(h, record.String(cells[i]))
		} else {
			row.Set(h, record.Null())
		}
	}
	return row
}
