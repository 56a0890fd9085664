// Package database handles database connections and schema inspection.
//
// Connect opens a GORM connection for the configured driver: mysql for
// server databases, sqlite for local files. GetTableColumns lists the columns
// of a table, which the table dataset source uses as its header row;
// ValidateIdentifier guards table names before they reach SQL.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "ledger")
package database
