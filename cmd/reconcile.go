package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"sheet-reconciler/core/config"
	"sheet-reconciler/core/database"
	"sheet-reconciler/core/export"
	"sheet-reconciler/core/reconcile"
	"sheet-reconciler/core/source"
	"sheet-reconciler/core/storage"
	"sheet-reconciler/feature/reconciliation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var reconcileFlags struct {
	file1, sheet1, table1 string
	file2, sheet2, table2 string
	mappings              []string
	category              string
	split                 bool
	out                   string
	upload                bool
	noExport              bool
	jsonOutput            bool
	caseSensitive         bool
}

// reconcileCmd reconciles two datasets and exports the outcome.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile two datasets and export the result",
	Long: `Reconcile two datasets on mapped columns.

Each side is a workbook (--file1/--sheet1), a CSV file, or a database table
(--table1). Duplicates are detected per dataset, unique rows are matched, and
the result is written to an .xlsx workbook.

Examples:
  # Match invoices on number, exact customer id
  reconcile --file1 ledger.xlsx --file2 bank.csv --map Invoice=invoice_no --map CustomerId=customer:exact

  # Only the unmatched rows of file 1, every row, split over several files
  reconcile --file1 a.xlsx --file2 b.xlsx --map id --category "In File 1 Only" --split

  # Publish the workbook to the configured bucket and print JSON
  reconcile --file1 a.xlsx --file2 b.xlsx --map id --upload --json`,
	RunE: runReconcile,
}

func init() {
	f := reconcileCmd.Flags()
	f.StringVar(&reconcileFlags.file1, "file1", "", "First dataset file (.xlsx or .csv)")
	f.StringVar(&reconcileFlags.sheet1, "sheet1", "", "Worksheet of file1 (default: first sheet)")
	f.StringVar(&reconcileFlags.table1, "table1", "", "Database table used as the first dataset")
	f.StringVar(&reconcileFlags.file2, "file2", "", "Second dataset file (.xlsx or .csv)")
	f.StringVar(&reconcileFlags.sheet2, "sheet2", "", "Worksheet of file2 (default: first sheet)")
	f.StringVar(&reconcileFlags.table2, "table2", "", "Database table used as the second dataset")
	f.StringArrayVar(&reconcileFlags.mappings, "map", nil, "Column mapping file1col=file2col[:exact] (repeatable)")
	f.StringVar(&reconcileFlags.category, "category", "", "Export a single category")
	f.BoolVar(&reconcileFlags.split, "split", false, "Export every row over numbered sheets and files")
	f.StringVar(&reconcileFlags.out, "out", "", "Output directory (default: export.output_dir)")
	f.BoolVar(&reconcileFlags.upload, "upload", false, "Publish the export to the configured bucket")
	f.BoolVar(&reconcileFlags.noExport, "no-export", false, "Only print the summary")
	f.BoolVar(&reconcileFlags.jsonOutput, "json", false, "Print the outcome as JSON on stdout")
	f.BoolVar(&reconcileFlags.caseSensitive, "case-sensitive", false, "Compare values case-sensitively (overrides config)")

	_ = reconcileCmd.MarkFlagRequired("map")
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, l, err := bootstrap()
	if err != nil {
		return err
	}
	defer l.Sync()

	mappings, err := reconcile.ParseMappings(reconcileFlags.mappings)
	if err != nil {
		return err
	}

	opts := cfg.Reconcile.Options()
	if cmd.Flags().Changed("case-sensitive") {
		opts.Key.CaseSensitive = reconcileFlags.caseSensitive
	}

	sources := &sourceOpener{cfg: cfg, logger: l}
	src1, err := sources.open(reconcileFlags.file1, reconcileFlags.sheet1, reconcileFlags.table1, "1")
	if err != nil {
		return err
	}
	src2, err := sources.open(reconcileFlags.file2, reconcileFlags.sheet2, reconcileFlags.table2, "2")
	if err != nil {
		return err
	}

	var publisher *export.Publisher
	if reconcileFlags.upload {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		publisher = export.NewPublisher(client, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Export.UploadPrefix, l)
	}

	svc := reconciliation.NewService(
		reconcile.NewEngine(opts, l),
		export.New(cfg.Export.Options, l),
		publisher, sources.db, opts.ChunkSize, l,
	)

	if reconcileFlags.noExport {
		res, err := svc.ReconcileSources(ctx, src1, src2, mappings)
		if err != nil {
			return err
		}
		return report(l, &reconciliation.ExportOutcome{RunID: res.RunID, Summary: res.Summary})
	}

	out, err := svc.Export(ctx, "", func(ctx context.Context) (*reconcile.Result, error) {
		return svc.ReconcileSources(ctx, src1, src2, mappings)
	}, reconciliation.ExportRequest{
		Category: reconcileFlags.category,
		Split:    reconcileFlags.split,
		Publish:  reconcileFlags.upload,
	})
	if err != nil {
		return err
	}

	dir := reconcileFlags.out
	if dir == "" {
		dir = cfg.Export.OutputDir
	}
	for _, a := range out.Artifacts {
		path, err := a.Save(dir)
		if err != nil {
			return err
		}
		l.Info("Export saved", zap.String("path", path), zap.Int64("bytes", a.Size()))
	}
	for _, p := range out.Published {
		l.Info("Export published", zap.String("key", p.Key), zap.Int64("bytes", p.Size))
	}

	return report(l, out)
}

// report prints the outcome, as JSON on stdout when requested.
func report(l *zap.Logger, out *reconciliation.ExportOutcome) error {
	if reconcileFlags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	s := out.Summary
	l.Info("Reconciliation report",
		zap.String("run_id", out.RunID),
		zap.Int("total_rows_file1", s.TotalRowsFile1),
		zap.Int("total_rows_file2", s.TotalRowsFile2),
		zap.Int("matched", s.Matched),
		zap.Int("in_file1_only", s.InFile1Only),
		zap.Int("in_file2_only", s.InFile2Only),
		zap.Int("duplicates_file1", s.DuplicatesInFile1),
		zap.Int("duplicates_file2", s.DuplicatesInFile2),
		zap.Int("empty_rows_file1", s.EmptyRowsFile1),
		zap.Int("empty_rows_file2", s.EmptyRowsFile2),
		zap.Float64("match_rate", s.MatchRate),
	)
	for _, a := range out.Artifacts {
		for _, st := range a.Sheets {
			if st.Truncated {
				l.Warn("Sheet truncated; rerun with --split to export every row",
					zap.String("sheet", st.Name), zap.Int("rows", st.Rows), zap.Int("total_rows", st.TotalRows))
			}
			if st.Skipped > 0 {
				l.Warn("Rows skipped", zap.String("sheet", st.Name), zap.Int("skipped", st.Skipped))
			}
		}
	}
	return nil
}

// sourceOpener builds dataset sources, connecting to the database on first use.
type sourceOpener struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func (o *sourceOpener) open(file, sheet, table, side string) (reconcile.Source, error) {
	opts := []source.Option{source.WithChunkSize(o.cfg.Reconcile.ChunkSize), source.WithLogger(o.logger)}

	switch {
	case file != "" && table != "":
		return nil, fmt.Errorf("--file%s and --table%s are mutually exclusive", side, side)
	case table != "":
		if o.db == nil {
			db, err := database.Connect(o.cfg.Database)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			o.db = db
		}
		return source.NewTable(o.db, table, opts...), nil
	case file == "":
		return nil, fmt.Errorf("--file%s or --table%s is required", side, side)
	case strings.EqualFold(filepath.Ext(file), ".csv"):
		return source.NewCSV(file, opts...), nil
	default:
		return source.NewExcel(file, sheet, opts...), nil
	}
}
