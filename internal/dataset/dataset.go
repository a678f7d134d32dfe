package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"renovate/adapters/excel"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// nanValues are the cell spellings treated as missing.
var nanValues = []string{"", "NA", "NaN", "nan", "null"}

// Schema names the columns every upload must carry.
type Schema struct {
	IDColumn     string
	TargetColumn string
}

// DefaultSchema returns the building renovation schema.
func DefaultSchema() Schema {
	return Schema{
		IDColumn:     "id",
		TargetColumn: "building_renovation_percent",
	}
}

// Dataset is a parsed upload: the raw string cells for previewing and a
// type-detected frame for numeric extraction.
type Dataset struct {
	Name   string
	header []string
	rows   [][]string
	frame  dataframe.DataFrame
}

// Matrix is the numeric view of a dataset handed to the pipeline.
type Matrix struct {
	FeatureNames []string
	X            [][]float64 // row-major, aligned with FeatureNames
	Y            []float64
}

// Load decodes an uploaded CSV or XLSX file.
func Load(name string, r io.Reader) (*Dataset, error) {
	raw, err := excel.NewDataReader(name).ReadRecords(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(raw.Headers) == 0 {
		return nil, fmt.Errorf("%w: the file is empty", ErrInsufficientData)
	}
	return FromRecords(name, raw.Records())
}

// FromRecords builds a dataset from string records whose first row is the header.
func FromRecords(name string, records [][]string) (*Dataset, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%w: the file is empty", ErrInsufficientData)
	}

	header := make([]string, len(records[0]))
	seen := make(map[string]bool, len(header))
	for i, h := range records[0] {
		if h == "" {
			h = fmt.Sprintf("unnamed_%d", i)
		}
		if seen[h] {
			return nil, fmt.Errorf("%w: duplicate column '%s'", ErrParse, h)
		}
		seen[h] = true
		header[i] = h
	}

	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrParse, i+1, len(row), len(header))
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: the file has a header but no rows", ErrInsufficientData)
	}

	loaded := make([][]string, 0, len(records))
	loaded = append(loaded, header)
	loaded = append(loaded, rows...)
	frame := dataframe.LoadRecords(loaded,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(nanValues),
	)
	if frame.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, frame.Err)
	}

	return &Dataset{Name: name, header: header, rows: rows, frame: frame}, nil
}

// Columns returns the header in file order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.header...)
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Preview returns up to n data rows exactly as they appeared in the file.
func (d *Dataset) Preview(n int) [][]string {
	if n > len(d.rows) {
		n = len(d.rows)
	}
	if n < 0 {
		n = 0
	}
	return d.rows[:n]
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	for _, h := range d.header {
		if h == name {
			return true
		}
	}
	return false
}

// Validate checks that the schema's required columns are present.
func (d *Dataset) Validate(s Schema) error {
	required := []string{s.TargetColumn, s.IDColumn}
	var missing []string
	for _, col := range required {
		if !d.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Required: required, Missing: missing}
	}
	return nil
}

// FeatureNames lists every column other than the id and the target, in header order.
func (d *Dataset) FeatureNames(s Schema) []string {
	names := make([]string, 0, len(d.header))
	for _, h := range d.header {
		if h == s.IDColumn || h == s.TargetColumn {
			continue
		}
		names = append(names, h)
	}
	return names
}

// Matrix validates the schema and extracts numeric features and target.
// String-typed features are rejected rather than encoded.
func (d *Dataset) Matrix(s Schema) (*Matrix, error) {
	if err := d.Validate(s); err != nil {
		return nil, err
	}

	names := d.FeatureNames(s)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no feature columns besides '%s' and '%s'", ErrInsufficientData, s.IDColumn, s.TargetColumn)
	}

	y, err := d.numericColumn(s.TargetColumn)
	if err != nil {
		return nil, err
	}

	columns := make([][]float64, len(names))
	for j, name := range names {
		if columns[j], err = d.numericColumn(name); err != nil {
			return nil, err
		}
	}

	x := make([][]float64, d.Len())
	for i := range x {
		row := make([]float64, len(names))
		for j := range names {
			row[j] = columns[j][i]
		}
		x[i] = row
	}

	return &Matrix{FeatureNames: names, X: x, Y: y}, nil
}

func (d *Dataset) numericColumn(name string) ([]float64, error) {
	col := d.frame.Col(name)
	if col.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, col.Err)
	}

	if t := col.Type(); t != series.Int && t != series.Float {
		return nil, d.firstBadCell(name)
	}
	if col.HasNaN() {
		return nil, d.firstBadCell(name)
	}

	// "inf" and "Infinity" parse as floats
	values := col.Float()
	idx := d.columnIndex(name)
	for i, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, &ColumnTypeError{Column: name, Row: i + 1, Value: d.rows[i][idx], NonFinite: true}
		}
	}
	return values, nil
}

// firstBadCell locates the cell that made a column unusable.
func (d *Dataset) firstBadCell(name string) error {
	idx := d.columnIndex(name)
	for i, row := range d.rows {
		raw := row[idx]
		if isMissing(raw) {
			return &ColumnTypeError{Column: name, Row: i + 1}
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return &ColumnTypeError{Column: name, Row: i + 1, Value: raw}
		}
	}
	return &ColumnTypeError{Column: name, Row: 1, Value: d.rows[0][idx]}
}

func (d *Dataset) columnIndex(name string) int {
	for i, h := range d.header {
		if h == name {
			return i
		}
	}
	return -1
}

func isMissing(raw string) bool {
	for _, v := range nanValues {
		if raw == v {
			return true
		}
	}
	return false
}

// IsUserError reports whether err was caused by the uploaded file's contents.
func IsUserError(err error) bool {
	var schemaErr *SchemaError
	var typeErr *ColumnTypeError
	return errors.As(err, &schemaErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrInsufficientData)
}
