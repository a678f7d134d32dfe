package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"renovate/internal/logging"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// DataReader decodes uploaded spreadsheets (CSV or XLSX) into raw string records
type DataReader struct {
	filename string
	fileType FileType
}

// NewDataReader creates a reader for the named upload. Files without an
// extension are treated as CSV.
func NewDataReader(filename string) *DataReader {
	return &DataReader{filename: filename, fileType: DetectFileType(filename)}
}

// DetectFileType maps a file name onto a supported format
func DetectFileType(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", "":
		return FileTypeCSV
	case ".xlsx", ".xlsm":
		return FileTypeXLSX
	default:
		return FileTypeUnknown
	}
}

// FileType reports the detected format
func (r *DataReader) FileType() FileType {
	return r.fileType
}

// ReadRecords reads the whole upload. The first record is the header row.
func (r *DataReader) ReadRecords(src io.Reader) (*RawData, error) {
	log := logging.With("excel")
	start := time.Now()

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case FileTypeCSV:
		rows, err = readCSV(src)
	case FileTypeXLSX:
		rows, err = readXLSX(src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.filename)
	}
	if err != nil {
		return nil, err
	}

	data := processRows(rows)
	log.Debug().
		Str("file", r.filename).
		Str("type", string(r.fileType)).
		Int("columns", len(data.Headers)).
		Int("rows", len(data.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("upload decoded")
	return data, nil
}

func readCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.Comma = ','
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// readXLSX reads the first sheet of a workbook
func readXLSX(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	return padRows(rows), nil
}

// padRows squares off excelize output, which drops trailing empty cells
func padRows(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}
	return rows
}

// processRows trims cells and splits off the header row
func processRows(rows [][]string) *RawData {
	data := &RawData{}
	if len(rows) == 0 {
		return data
	}

	headerRow := rows[0]
	data.Headers = make([]string, len(headerRow))
	for i, header := range headerRow {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		data.Headers[i] = strings.TrimSpace(header)
	}

	data.Rows = make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = strings.TrimSpace(cell)
		}
		data.Rows = append(data.Rows, cells)
	}
	return data
}
