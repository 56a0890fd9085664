// Package reconciliation exposes the reconciliation engine over HTTP.
//
// # HTTP Endpoints
//
//   - POST /reconciliation : reconciles two JSON datasets ({"file1", "file2",
//     "mappings"}) and returns the result (?summary_only=true for the summary).
//   - POST /reconciliation/export : same body; returns the .xlsx workbook.
//     Supports ?category=, ?split=true (zip of parts) and ?publish=true.
//   - POST /reconciliation/upload : multipart upload of two .xlsx or .csv
//     files with sheet1, sheet2 and repeated map fields; returns the summary
//     or, with export, split or publish set as a query parameter or form
//     field, the workbook.
//   - POST /reconciliation/tables : reconciles two database tables.
//   - GET /reconciliation/exports : lists published exports.
//   - GET|DELETE /reconciliation/exports/<key> : downloads or removes one.
//   - POST /reconciliation/exports/prune : removes exports older than ?older_than.
//
// Errors are returned as {"error", "details"} with 400 for invalid input,
// 413 when an export exceeds its byte ceiling and 500 otherwise.
//
// Identical concurrent export requests share one run.
package reconciliation
