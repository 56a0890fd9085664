package reconcile

import (
	"testing"

	"sheet-reconciler/core/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapping(t *testing.T) {
	tests := []struct {
		in      string
		want    ColumnMapping
		wantErr bool
	}{
		{in: "id=ID", want: ColumnMapping{File1Column: "id", File2Column: "ID"}},
		{in: "id=ID:exact", want: ColumnMapping{File1Column: "id", File2Column: "ID", IsExactMatch: true}},
		{in: " Name = Full Name :fuzzy", want: ColumnMapping{File1Column: "Name", File2Column: "Full Name"}},
		{in: "email", want: ColumnMapping{File1Column: "email", File2Column: "email"}},
		{in: "email:EXACT", want: ColumnMapping{File1Column: "email", File2Column: "email", IsExactMatch: true}},
		{in: "time:zone=tz", want: ColumnMapping{File1Column: "time:zone", File2Column: "tz"}},
		{in: "=ID", wantErr: true},
		{in: "id=", wantErr: true},
		{in: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMapping(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.Is(err, apperror.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMappings(t *testing.T) {
	got, err := ParseMappings([]string{"a=b", "c:exact"})
	require.NoError(t, err)
	assert.Equal(t, []ColumnMapping{
		{File1Column: "a", File2Column: "b"},
		{File1Column: "c", File2Column: "c", IsExactMatch: true},
	}, got)

	_, err = ParseMappings([]string{"a=b", "=x"})
	assert.Error(t, err)
}

func TestValidateMappings(t *testing.T) {
	headers1 := []string{"id", "name"}
	headers2 := []string{"ID", "Name"}

	tests := []struct {
		name     string
		mappings []ColumnMapping
		wantErr  string
	}{
		{
			name:     "valid",
			mappings: []ColumnMapping{{File1Column: "id", File2Column: "ID"}, {File1Column: "name", File2Column: "Name"}},
		},
		{
			name:    "empty",
			wantErr: "at least one column mapping is required",
		},
		{
			name:     "incomplete",
			mappings: []ColumnMapping{{File1Column: "id"}},
			wantErr:  "column mapping 1 is incomplete",
		},
		{
			name:     "missing columns",
			mappings: []ColumnMapping{{File1Column: "email", File2Column: "ID"}, {File1Column: "id", File2Column: "Mail"}},
			wantErr:  "file 1: email, file 2: Mail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMappings(tt.mappings, headers1, headers2)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{in: "Matched", want: CategoryMatched, ok: true},
		{in: "in_file_1_only", want: CategoryInFile1Only, ok: true},
		{in: "duplicates-in-file-2", want: CategoryDuplicatesInFile2, ok: true},
		{in: "Duplicate_Groups_File_1", want: CategoryDuplicateGroupsFile1, ok: true},
		{in: "summary", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_Slug(t *testing.T) {
	assert.Equal(t, "In_File_1_Only", CategoryInFile1Only.Slug())
	assert.Equal(t, "Matched", CategoryMatched.Slug())
}
