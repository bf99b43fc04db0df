package masters

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnMap maps a column code (or header name for loose sheets) to its
// 0-based column index. Built once per sheet read and reused by the
// writer so both sides agree on placement.
type ColumnMap map[string]int

// Cell is one typed cell value. Raw always carries the stored string;
// Amount and Time are set when the declared column type parses.
type Cell struct {
	Raw    string
	Amount *decimal.Decimal
	Time   *time.Time
}

// Concrete reports whether the cell holds a real value: non-empty and
// not a bare zero placeholder.
func (c Cell) Concrete() bool {
	s := strings.TrimSpace(c.Raw)
	return s != "" && s != "0"
}

// Row is one data row, keyed by column code.
type Row map[string]Cell

// Cell returns the row's cell for a code, zero-valued when absent.
func (r Row) Cell(code string) Cell {
	return r[code]
}

// Table is one logical sheet's typed data.
type Table struct {
	Sheet     string
	Columns   ColumnMap
	CodeRow   int // 1-based row holding the column codes; 0 when loose
	DataStart int // 1-based first data row
	Rows      []Row
}

// MastersData is one in-memory snapshot of the Masters workbook. It is
// read-only input downstream; the writer derives a new output structure
// rather than mutating it.
type MastersData struct {
	FilePath       string
	TDSCodes       *Table
	TDSParties     *Table
	ChallanDetails *Table
	TDSRates       *Table
	Warnings       []Warning
}

// Warning is a non-fatal per-row issue, collected and reported in
// aggregate at the end of the read.
type Warning struct {
	Sheet   string
	Row     int // 1-based spreadsheet row
	Code    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s row %d %s: %s", w.Sheet, w.Row, w.Code, w.Message)
}

// MissingColumnError reports a required column absent from a declared
// sheet. This is fatal for the sheet: no partial processing of it is
// meaningful.
type MissingColumnError struct {
	Sheet string
	Code  string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sheet %q: required column %s not found", e.Sheet, e.Code)
}
