package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks an upload that could not be decoded into a table.
	ErrParse = errors.New("malformed dataset file")
	// ErrInsufficientData marks a table too small to split, scale and fit.
	ErrInsufficientData = errors.New("insufficient data")
)

// SchemaError reports required columns that are absent from the upload.
type SchemaError struct {
	Required []string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("The CSV file must contain %s columns; missing %s.",
		quoteJoin(e.Required, " and "), quoteJoin(e.Missing, ", "))
}

// ColumnTypeError reports a cell that cannot be used as a number.
// Row is the 1-based data row, not counting the header.
type ColumnTypeError struct {
	Column    string
	Row       int
	Value     string
	NonFinite bool
}

func (e *ColumnTypeError) Error() string {
	if e.NonFinite {
		return fmt.Sprintf("column '%s' must be finite, found %q in row %d", e.Column, e.Value, e.Row)
	}
	if e.Value == "" {
		return fmt.Sprintf("column '%s' has a missing value in row %d", e.Column, e.Row)
	}
	return fmt.Sprintf("column '%s' must be numeric, found %q in row %d", e.Column, e.Value, e.Row)
}

func quoteJoin(names []string, sep string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "'" + name + "'"
	}
	return strings.Join(quoted, sep)
}
