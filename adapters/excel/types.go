package excel

import "promohypo/domain/dataset"

// RawRowData represents a row of raw spreadsheet data as header → cell text
type RawRowData = dataset.RawRow

// ExcelData represents the complete spreadsheet dataset
type ExcelData struct {
	Sheet   string       // Sheet the rows came from; empty for csv
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}
