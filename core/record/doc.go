// Package record defines the schema-less row model shared by every stage of a
// reconciliation run.
//
// A Row is an insertion-ordered mapping from column name to a tagged scalar
// Value (null, string, number or date). Rows are produced by sources
// (spreadsheets, CSV files, database tables, JSON request bodies) and consumed
// opaquely by the engine, which only ever reads columns by name.
//
// # Null handling
//
// A column that is absent from a row and a column explicitly set to Null are
// indistinguishable through Value: both report IsNull. Callers that need to
// tell them apart use Get, which also reports presence.
//
// # Usage
//
//	row := record.New(2)
//	row.Set("id", record.String("A-1"))
//	row.Set("amount", record.Number(10))
//	v := row.Value("amount") // "10"
package record
