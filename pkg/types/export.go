package types

import "time"

// ExportFormat is the file type of a series export.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ContentType returns the MIME type used when serving the export.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// ExportRecord is an export that was archived to storage.
type ExportRecord struct {
	ID         string       `json:"id"`
	LocationID string       `json:"locationID"`
	ModelID    string       `json:"modelID"`
	RangeDays  int          `json:"rangeDays"`
	Format     ExportFormat `json:"format"`
	Filename   string       `json:"filename"`
	Rows       int          `json:"rows"`
	CreatedAt  time.Time    `json:"createdAt"`
	// Data is omitted from listings.
	Data []byte `json:"-"`
}
