package reconcile

import (
	"strings"
	"time"

	"sheet-reconciler/core/record"
)

// ColumnMapping pairs a column of dataset 1 with a column of dataset 2.
type ColumnMapping struct {
	// File1Column is the column name in dataset 1.
	File1Column string `json:"file1Column" mapstructure:"file1_column"`

	// File2Column is the column name in dataset 2.
	File2Column string `json:"file2Column" mapstructure:"file2_column"`

	// IsExactMatch selects raw string equality. When false, values are compared
	// case-insensitively after trimming whitespace.
	IsExactMatch bool `json:"isExactMatch" mapstructure:"is_exact_match"`
}

// DuplicateGroup holds every row sharing a composite key, original first.
type DuplicateGroup struct {
	// Key is the composite key shared by all items.
	Key string `json:"key"`

	// Items contains the first-seen row followed by its duplicates in arrival order.
	Items []*record.Row `json:"items"`
}

// MatchedPair is a dataset 1 row together with the dataset 2 row it was paired with.
type MatchedPair struct {
	File1 *record.Row `json:"file1"`
	File2 *record.Row `json:"file2"`
}

// Summary provides aggregate statistics for a reconciliation run.
type Summary struct {
	// TotalRowsFile1 is the number of rows read from dataset 1.
	TotalRowsFile1 int `json:"total_rows_file1"`

	// TotalRowsFile2 is the number of rows read from dataset 2.
	TotalRowsFile2 int `json:"total_rows_file2"`

	// UniqueRowsFile1 counts dataset 1 rows left after duplicate removal.
	UniqueRowsFile1 int `json:"unique_rows_file1"`

	// UniqueRowsFile2 counts dataset 2 rows left after duplicate removal.
	UniqueRowsFile2 int `json:"unique_rows_file2"`

	// EmptyRowsFile1 counts dataset 1 rows without any value; they are ignored.
	EmptyRowsFile1 int `json:"empty_rows_file1"`

	// EmptyRowsFile2 counts dataset 2 rows without any value; they are ignored.
	EmptyRowsFile2 int `json:"empty_rows_file2"`

	Matched     int `json:"matched"`
	InFile1Only int `json:"in_file1_only"`
	InFile2Only int `json:"in_file2_only"`

	DuplicatesInFile1      int `json:"duplicates_in_file1"`
	DuplicatesInFile2      int `json:"duplicates_in_file2"`
	DuplicateGroupsInFile1 int `json:"duplicate_groups_in_file1"`
	DuplicateGroupsInFile2 int `json:"duplicate_groups_in_file2"`

	// MatchRate is the percentage of unique dataset 1 rows that found a partner.
	MatchRate float64 `json:"match_rate"`
}

// Result is the outcome of one reconciliation run. It is built once by the
// Engine and not modified afterwards.
type Result struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// GeneratedAt is when the run completed.
	GeneratedAt time.Time `json:"generated_at"`

	// File1Name and File2Name are display names of the inputs.
	File1Name string `json:"file1_name"`
	File2Name string `json:"file2_name"`

	Matched                []MatchedPair    `json:"matched"`
	InFile1Only            []*record.Row    `json:"in_file1_only"`
	InFile2Only            []*record.Row    `json:"in_file2_only"`
	DuplicatesInFile1      []*record.Row    `json:"duplicates_in_file1"`
	DuplicatesInFile2      []*record.Row    `json:"duplicates_in_file2"`
	DuplicateGroupsInFile1 []DuplicateGroup `json:"duplicate_groups_in_file1"`
	DuplicateGroupsInFile2 []DuplicateGroup `json:"duplicate_groups_in_file2"`

	// ColumnMappings are the mappings the run was performed with.
	ColumnMappings []ColumnMapping `json:"column_mappings"`

	Summary Summary `json:"summary"`
}

// Category names one exported partition of a Result.
type Category string

const (
	CategoryMatched              Category = "Matched"
	CategoryInFile1Only          Category = "In File 1 Only"
	CategoryInFile2Only          Category = "In File 2 Only"
	CategoryDuplicatesInFile1    Category = "Duplicates in File 1"
	CategoryDuplicatesInFile2    Category = "Duplicates in File 2"
	CategoryDuplicateGroupsFile1 Category = "Duplicate Groups File 1"
	CategoryDuplicateGroupsFile2 Category = "Duplicate Groups File 2"
)

// Categories returns the always-exported categories in sheet order.
func Categories() []Category {
	return []Category{
		CategoryMatched,
		CategoryInFile1Only,
		CategoryInFile2Only,
		CategoryDuplicatesInFile1,
		CategoryDuplicatesInFile2,
	}
}

// GroupCategories returns the optional duplicate group categories.
func GroupCategories() []Category {
	return []Category{CategoryDuplicateGroupsFile1, CategoryDuplicateGroupsFile2}
}

// Slug returns the category name usable inside a file name.
func (c Category) Slug() string {
	return strings.ReplaceAll(string(c), " ", "_")
}

// ParseCategory resolves a category from its display name or slug,
// ignoring case. Hyphens are accepted in place of spaces.
func ParseCategory(s string) (Category, bool) {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
	for _, c := range append(Categories(), GroupCategories()...) {
		if strings.EqualFold(string(c), norm) {
			return c, true
		}
	}
	return "", false
}

// Count returns the number of rows (or groups) a category holds.
func (r *Result) Count(c Category) int {
	switch c {
	case CategoryMatched:
		return len(r.Matched)
	case CategoryInFile1Only:
		return len(r.InFile1Only)
	case CategoryInFile2Only:
		return len(r.InFile2Only)
	case CategoryDuplicatesInFile1:
		return len(r.DuplicatesInFile1)
	case CategoryDuplicatesInFile2:
		return len(r.DuplicatesInFile2)
	case CategoryDuplicateGroupsFile1:
		return len(r.DuplicateGroupsInFile1)
	case CategoryDuplicateGroupsFile2:
		return len(r.DuplicateGroupsInFile2)
	default:
		return 0
	}
}
