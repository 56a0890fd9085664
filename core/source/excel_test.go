package source

import (
	"context"
	"path/filepath"
	"testing"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook with one sheet per entry and returns its path.
func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, cells := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &cells))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func collect(t *testing.T, rows func(yield func([]*record.Row, error) bool)) ([][]*record.Row, error) {
	t.Helper()
	var chunks [][]*record.Row
	for part, err := range rows {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, part)
	}
	return chunks, nil
}

func TestExcel_HeadersAndRows(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Ledger": {
			{"id", " name ", "", "name"},
			{"1", "Alice", "x", "dup"},
			{},
			{"2", "", nil, "dup2"},
			{"3", "Carol"},
		},
	})

	src := NewExcel(path, "Ledger", WithChunkSize(2))
	assert.Equal(t, "book.xlsx [Ledger]", src.Name())

	headers, err := src.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "Column C", "name (2)"}, headers)

	var progress [][2]int
	chunks, err := collect(t, src.Rows(context.Background(), func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 1)

	r := chunks[0][0]
	assert.Equal(t, headers, r.Columns())
	assert.Equal(t, "Alice", r.Value("name").String())
	assert.Equal(t, "dup", r.Value("name (2)").String())

	r = chunks[0][1]
	assert.True(t, r.Value("name").IsNull())
	assert.True(t, r.Value("Column C").IsNull())

	r = chunks[1][0]
	assert.Equal(t, "3", r.Value("id").String())
	assert.True(t, r.Value("name (2)").IsNull())

	require.NotEmpty(t, progress)
	assert.Equal(t, [2]int{3, 3}, progress[len(progress)-1])
}

func TestExcel_DefaultSheetAndSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Data": {{"a", "b"}, {"1", "2"}, {"3", "4"}},
	})

	src := NewExcel(path, "")
	assert.Equal(t, "book.xlsx", src.Name())

	headers, err := src.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, headers)

	sheets, err := src.Sheets(context.Background())
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, SheetInfo{Name: "Data", Headers: []string{"a", "b"}, Rows: 2}, sheets[0])
}

func TestExcel_Errors(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Data": {{"a"}, {"1"}},
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := NewExcel(path, "Nope").Headers(context.Background())
		require.Error(t, err)
		assert.Equal(t, apperror.KindDataShape, apperror.KindOf(err))
		assert.Contains(t, err.Error(), "available: Data")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewExcel(filepath.Join(t.TempDir(), "none.xlsx"), "").Headers(context.Background())
		assert.Equal(t, apperror.KindDataShape, apperror.KindOf(err))
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := collect(t, NewExcelBytes("junk.xlsx", []byte("not a zip"), "").Rows(context.Background(), nil))
		assert.Equal(t, apperror.KindDataShape, apperror.KindOf(err))
	})

	t.Run("empty sheet", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		src := NewExcelBytes("empty.xlsx", buf.Bytes(), "")
		_, err = src.Headers(context.Background())
		assert.Equal(t, apperror.KindDataShape, apperror.KindOf(err))

		_, err = collect(t, src.Rows(context.Background(), nil))
		assert.Equal(t, apperror.KindDataShape, apperror.KindOf(err))
	})
}

func TestNormalizeHeaders(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "Column B", "id (2)", "Column D", "x"},
		normalizeHeaders([]string{" id", "", "id", "  ", "x"}))
}
