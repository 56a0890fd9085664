package export

import "sheet-reconciler/core/chunk"

const (
	// DefaultMaxRowsPerSheet is the per-sheet data row ceiling.
	DefaultMaxRowsPerSheet = 50000
	// DefaultMaxBytes is the output size ceiling of one artifact.
	DefaultMaxBytes = 500 * 1024 * 1024
	// DefaultMaxSheetsPerFile bounds data sheets per file in split mode.
	DefaultMaxSheetsPerFile = 5
	// DefaultMaxItemErrors is the number of rows a sheet may skip before failing.
	DefaultMaxItemErrors = 10
	// DefaultBaseName prefixes artifact file names.
	DefaultBaseName = "reconciliation"
)

// Options holds the export policy.
type Options struct {
	// MaxRowsPerSheet truncates larger categories, with a note row.
	MaxRowsPerSheet int `mapstructure:"max_rows_per_sheet" default:"50000"`
	// MaxBytes fails an export whose estimated or written size exceeds it.
	MaxBytes int64 `mapstructure:"max_bytes" default:"524288000"`
	// TargetChunkBytes is the approximate serialized size of one write chunk.
	TargetChunkBytes int `mapstructure:"target_chunk_bytes" default:"5242880"`
	// MaxSheetsPerFile bounds data sheets per artifact in split mode.
	MaxSheetsPerFile int `mapstructure:"max_sheets_per_file" default:"5"`
	// SplitRowsPerSheet bounds rows per sheet in split mode.
	SplitRowsPerSheet int `mapstructure:"split_rows_per_sheet" default:"50000"`
	// MaxItemErrors is the number of unserializable rows a sheet tolerates.
	MaxItemErrors int `mapstructure:"max_item_errors" default:"10"`
	// IncludeDuplicateGroups adds the duplicate group sheets.
	IncludeDuplicateGroups bool `mapstructure:"include_duplicate_groups" default:"false"`
	// BaseName prefixes artifact file names.
	BaseName string `mapstructure:"base_name" default:"reconciliation"`
}

// DefaultOptions returns the default export policy.
func DefaultOptions() Options {
	return Options{
		MaxRowsPerSheet:   DefaultMaxRowsPerSheet,
		MaxBytes:          DefaultMaxBytes,
		TargetChunkBytes:  chunk.TargetChunkBytes,
		MaxSheetsPerFile:  DefaultMaxSheetsPerFile,
		SplitRowsPerSheet: DefaultMaxRowsPerSheet,
		MaxItemErrors:     DefaultMaxItemErrors,
		BaseName:          DefaultBaseName,
	}
}

// normalized replaces unset values with defaults.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxRowsPerSheet <= 0 {
		o.MaxRowsPerSheet = d.MaxRowsPerSheet
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = d.MaxBytes
	}
	if o.TargetChunkBytes <= 0 {
		o.TargetChunkBytes = d.TargetChunkBytes
	}
	if o.MaxSheetsPerFile <= 0 {
		o.MaxSheetsPerFile = d.MaxSheetsPerFile
	}
	if o.SplitRowsPerSheet <= 0 {
		o.SplitRowsPerSheet = d.SplitRowsPerSheet
	}
	if o.MaxItemErrors <= 0 {
		o.MaxItemErrors = d.MaxItemErrors
	}
	if o.BaseName == "" {
		o.BaseName = d.BaseName
	}
	return o
}
