package source

import (
	"context"
	"fmt"
	"iter"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/database"
	"sheet-reconciler/core/record"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Table reads every row of a database table.
type Table struct {
	db        *gorm.DB
	table     string
	chunkSize int
	logger    *zap.Logger
}

// NewTable creates a source for table.
func NewTable(db *gorm.DB, table string, opts ...Option) *Table {
	o := buildOptions(opts)
	return &Table{db: db, table: table, chunkSize: o.chunkSize, logger: o.logger}
}

// Name returns the table name.
func (t *Table) Name() string { return t.table }

// Headers returns the table's column names in schema order.
func (t *Table) Headers(ctx context.Context) ([]string, error) {
	columns, err := database.GetTableColumns(t.db.WithContext(ctx), t.table)
	if err != nil {
		return nil, apperror.New(apperror.KindDataShape, "failed to inspect table "+t.table, err)
	}
	if len(columns) == 0 {
		return nil, apperror.DataShape("table %s does not exist or has no columns", t.table)
	}
	return database.ColumnNames(columns), nil
}

// Rows streams the table in chunks.
func (t *Table) Rows(ctx context.Context, onProgress chunk.ProgressFunc) iter.Seq2[[]*record.Row, error] {
	return func(yield func([]*record.Row, error) bool) {
		headers, err := t.Headers(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		db := t.db.WithContext(ctx)
		var total int64
		if err := db.Table(t.table).Count(&total).Error; err != nil {
			yield(nil, fmt.Errorf("failed to count rows of %s: %w", t.table, err))
			return
		}

		rows, err := db.Table(t.table).Select(headers).Rows()
		if err != nil {
			yield(nil, fmt.Errorf("failed to query %s: %w", t.table, err))
			return
		}
		defer rows.Close()

		dest := make([]any, len(headers))
		ptrs := make([]any, len(headers))
		for i := range dest {
			ptrs[i] = &dest[i]
		}

		batch := make([]*record.Row, 0, t.chunkSize)
		read := 0
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				yield(nil, fmt.Errorf("failed to scan row of %s: %w", t.table, err))
				return
			}
			row := record.New(len(headers))
			for i, h := range headers {
				row.Set(h, record.FromAny(dest[i]))
			}
			batch = append(batch, row)
			read++

			if len(batch) < t.chunkSize {
				continue
			}
			if onProgress != nil {
				onProgress(read, int(total))
			}
			if !yield(batch, nil) {
				return
			}
			batch = make([]*record.Row, 0, t.chunkSize)
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("failed to read %s: %w", t.table, err))
			return
		}

		if onProgress != nil {
			onProgress(read, read)
		}
		t.logger.Debug("Table read", zap.String("table", t.table), zap.Int("rows", read))
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}
