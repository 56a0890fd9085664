package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/chunk"
	"sheet-reconciler/core/record"

	"go.uber.org/zap"
)

const utf8BOM = "\uFEFF"

// CSV reads a comma separated file whose first record is the header row.
type CSV struct {
	name      string
	chunkSize int
	open      func() (io.ReadCloser, error)
	logger    *zap.Logger
}

// NewCSV creates a source for the file at path.
func NewCSV(path string, opts ...Option) *CSV {
	o := buildOptions(opts)
	return &CSV{
		name:      filepath.Base(path),
		chunkSize: o.chunkSize,
		open:      func() (io.ReadCloser, error) { return os.Open(path) },
		logger:    o.logger,
	}
}

// NewCSVBytes creates a source over in-memory CSV data.
func NewCSVBytes(name string, data []byte, opts ...Option) *CSV {
	o := buildOptions(opts)
	return &CSV{
		name:      name,
		chunkSize: o.chunkSize,
		open:      func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		logger:    o.logger,
	}
}

// Name returns the file name.
func (c *CSV) Name() string { return c.name }

// Headers returns the normalized header record.
func (c *CSV) Headers(ctx context.Context) ([]string, error) {
	rc, err := c.openFile()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	_, headers, err := c.reader(rc)
	return headers, err
}

// Rows streams the data records in chunks. The total is unknown while reading.
func (c *CSV) Rows(ctx context.Context, onProgress chunk.ProgressFunc) iter.Seq2[[]*record.Row, error] {
	return func(yield func([]*record.Row, error) bool) {
		rc, err := c.openFile()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rc.Close()

		r, headers, err := c.reader(rc)
		if err != nil {
			yield(nil, err)
			return
		}

		batch := make([]*record.Row, 0, c.chunkSize)
		read := 0
		for {
			cells, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(nil, apperror.New(apperror.KindDataShape, fmt.Sprintf("malformed CSV in %s", c.name), err))
				return
			}
			if isBlank(cells) {
				continue
			}

			batch = append(batch, cellsToRow(headers, cells))
			read++
			if len(batch) < c.chunkSize {
				continue
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if onProgress != nil {
				onProgress(read, 0)
			}
			if !yield(batch, nil) {
				return
			}
			batch = make([]*record.Row, 0, c.chunkSize)
		}

		if onProgress != nil {
			onProgress(read, read)
		}
		c.logger.Debug("CSV read", zap.String("file", c.name), zap.Int("rows", read))
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}

func (c *CSV) openFile() (io.ReadCloser, error) {
	rc, err := c.open()
	if err != nil {
		return nil, apperror.New(apperror.KindDataShape, fmt.Sprintf("failed to open %s", c.name), err)
	}
	return rc, nil
}

// reader positions a csv.Reader after the header record.
func (c *CSV) reader(rc io.Reader) (*csv.Reader, []string, error) {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, apperror.DataShape("%s is empty", c.name)
	}
	if err != nil {
		return nil, nil, apperror.New(apperror.KindDataShape, fmt.Sprintf("malformed CSV header in %s", c.name), err)
	}
	if len(first) > 0 {
		first[0] = strings.TrimPrefix(first[0], utf8BOM)
	}
	if isBlank(first) {
		return nil, nil, apperror.DataShape("%s has a blank header row", c.name)
	}
	return r, normalizeHeaders(first), nil
}
