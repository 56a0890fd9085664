package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"sheet-reconciler/core/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inspectJSON bool

// inspectCmd lists the sheets and header rows of a dataset file.
var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "List worksheets and header rows of a workbook or CSV file",
	Long:  `Shows every worksheet with its header row and data row count, to help build --map arguments.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the sheets as JSON on stdout")
	RootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	_, l, err := bootstrap()
	if err != nil {
		return err
	}
	defer l.Sync()

	path := args[0]
	ctx := cmd.Context()

	var sheets []source.SheetInfo
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		headers, err := source.NewCSV(path).Headers(ctx)
		if err != nil {
			return err
		}
		sheets = []source.SheetInfo{{Name: filepath.Base(path), Headers: headers, Rows: -1}}
	} else {
		if sheets, err = source.NewExcel(path, "").Sheets(ctx); err != nil {
			return err
		}
	}

	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sheets)
	}

	for _, s := range sheets {
		fields := []zap.Field{zap.String("sheet", s.Name), zap.Strings("headers", s.Headers)}
		if s.Rows >= 0 {
			fields = append(fields, zap.Int("rows", s.Rows))
		}
		l.Info("Sheet", fields...)
	}
	return nil
}
