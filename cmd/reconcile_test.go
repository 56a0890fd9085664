package cmd

import (
	"testing"

	"sheet-reconciler/core/config"
	"sheet-reconciler/core/database"
	"sheet-reconciler/core/reconcile"
	"sheet-reconciler/core/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSourceOpener(t *testing.T) {
	cfg := &config.Config{
		Reconcile: reconcile.Config{ChunkSize: 100},
		Database:  database.Config{Driver: "sqlite", Name: ":memory:"},
	}

	tests := []struct {
		name  string
		file  string
		table string
		want  any
		err   string
	}{
		{name: "Excel", file: "ledger.xlsx", want: &source.Excel{}},
		{name: "CSV", file: "bank.CSV", want: &source.CSV{}},
		{name: "Table", table: "ledger", want: &source.Table{}},
		{name: "Both", file: "ledger.xlsx", table: "ledger", err: "mutually exclusive"},
		{name: "Neither", err: "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &sourceOpener{cfg: cfg, logger: zap.NewNop()}
			src, err := o.open(tt.file, "", tt.table, "1")
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, src)
		})
	}

	t.Run("ReusesConnection", func(t *testing.T) {
		o := &sourceOpener{cfg: cfg, logger: zap.NewNop()}
		_, err := o.open("", "", "a", "1")
		require.NoError(t, err)
		db := o.db
		require.NotNil(t, db)

		_, err = o.open("", "", "b", "2")
		require.NoError(t, err)
		assert.Same(t, db, o.db)
	})
}
