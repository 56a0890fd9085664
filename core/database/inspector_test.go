package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE ledger (id INTEGER PRIMARY KEY, Name TEXT, amount REAL)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "ledger")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	assert.Equal(t, []string{"id", "Name", "amount"}, ColumnNames(columns))
	assert.Equal(t, "integer", columns[0].Type)
	assert.Equal(t, "text", columns[1].Type)
	assert.Equal(t, "real", columns[2].Type)

	// PRAGMA table_info returns an empty result for unknown tables.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("ID", "INT(11)", "NO", "PRI", nil, "auto_increment").
		AddRow("Email", "VARCHAR(255)", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `customers`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Email"}, ColumnNames(columns))
	assert.Equal(t, "int(11)", columns[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"ledger", false},
		{"_tmp_2024", false},
		{"bad-name", true},
		{"x; DROP TABLE y", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
