package excel

// FileType identifies an upload format
type FileType string

const (
	FileTypeCSV     FileType = "csv"
	FileTypeXLSX    FileType = "xlsx"
	FileTypeUnknown FileType = "unknown"
)

// RawData represents a decoded spreadsheet
type RawData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, aligned with Headers
}

// Records returns the header followed by the data rows
func (d *RawData) Records() [][]string {
	records := make([][]string, 0, len(d.Rows)+1)
	records = append(records, d.Headers)
	return append(records, d.Rows...)
}
