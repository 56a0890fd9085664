// Package export writes reconciliation results to .xlsx workbooks and
// publishes them to object storage.
//
// Every artifact starts with a Summary sheet followed by one sheet per
// category. Matched pairs are flattened into a single row with dataset 2
// columns prefixed by File2_. Rows are streamed through excelize's
// StreamWriter in chunks sized from a sample of the data, so the writer never
// holds a second copy of the result.
//
// Two ceilings bound an export:
//
//   - MaxRowsPerSheet truncates large categories in ExportAll and
//     ExportCategory, with a note row above the header.
//   - MaxBytes fails the export with a resource limit error, first from an
//     estimate before any cell is written and again on the serialized size.
//
// ExportSplit removes the row ceiling by spreading categories over numbered
// sheets and files.
//
// Example:
//
//	exp := export.New(export.DefaultOptions(), logger)
//	artifact, err := exp.ExportAll(ctx, result, func(pct int) {
//		logger.Debug("export", zap.Int("percent", pct))
//	})
//	if err != nil {
//		return err
//	}
//	path, err := artifact.Save("./out")
package export
