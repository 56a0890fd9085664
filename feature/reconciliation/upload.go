package reconciliation

import (
	"io"
	"mime/multipart"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/utils"
)

// readUpload reads the single file of a multipart field.
func readUpload(files []*multipart.FileHeader, sheet, field string) (Upload, error) {
	if len(files) != 1 {
		return Upload{}, apperror.Validation("expected exactly one file in field %s", field)
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return Upload{}, apperror.New(apperror.KindValidation, "failed to open upload "+fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, apperror.New(apperror.KindValidation, "failed to read upload "+fh.Filename, err)
	}
	return Upload{FileName: fh.Filename, Data: data, Sheet: sheet}, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// formFlag reads a boolean form field ("1", "true", "yes").
func formFlag(form *multipart.Form, name string) bool {
	return utils.ToBool(firstValue(form.Value[name]))
}
