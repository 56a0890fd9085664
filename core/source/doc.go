// Package source provides reconcile.Source implementations.
//
// Excel reads one sheet of an .xlsx workbook through excelize's streaming row
// iterator, so large sheets are never loaded as a whole. CSV reads a comma
// separated file. Table reads a database table through GORM in primary-key
// independent batches.
//
// All sources treat the first row (or the table schema) as the header row and
// emit every following row as a record.Row keyed by header name. Empty cells
// become null values, blank rows are skipped and blank or repeated header
// names are made unique (Column C, name (2)).
package source
