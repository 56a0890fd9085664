// Package config provides configuration management for the reconciler.
//
// Values come from environment variables, optionally seeded from a .env file,
// on top of defaults declared with `default` struct tags next to each
// `mapstructure` key. Nested keys map onto upper-case env names joined by
// underscores, so export.max_rows_per_sheet is EXPORT_MAX_ROWS_PER_SHEET.
//
// # Sections
//
//   - Server: port, API key and request limits
//   - Storage: MinIO/S3 bucket for published exports
//   - Database: connection used by table datasets
//   - Log: level and format
//   - Reconcile: key normalization and chunk size
//   - Export: sheet and byte ceilings, output directory and upload prefix
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := reconcile.NewEngine(cfg.Reconcile.Options(), logger)
package config
