package masters

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sahajtax/tdsret/extractor/common"
)

// codeScanRows bounds the window searched for the column-code row.
const codeScanRows = 10

var (
	panRegex       = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	codeParenRegex = regexp.MustCompile(`\(([0-9]+[A-Z]*)\)`)
	codeDashRegex  = regexp.MustCompile(`^-([0-9]+[A-Z]*)$`)
)

// ReadOptions tunes a workbook read.
type ReadOptions struct {
	// Detectors locate the totals row that terminates a sheet's data
	// region. Defaults to the standard chain with no fixed offset.
	Detectors []TotalsDetector
}

// ReadMasters reads a Masters workbook from disk using the default
// schemas and detector chain.
func ReadMasters(path string) (*MastersData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open masters file: %w", err)
	}
	defer f.Close()

	return ReadWorkbook(f, path, DefaultSchemas(), ReadOptions{})
}

// ReadWorkbook reads the declared sheets of an open workbook into typed
// tables. A missing required column is fatal for its sheet; malformed
// row values are collected as warnings so the caller sees the full
// picture in one pass.
func ReadWorkbook(f *excelize.File, path string, schemas []SheetSchema, opts ReadOptions) (*MastersData, error) {
	detectors := opts.Detectors
	if detectors == nil {
		detectors = []TotalsDetector{FormulaMarkerDetector{}, LabelMarkerDetector{}}
	}

	data := &MastersData{FilePath: path}
	for _, schema := range schemas {
		table, warnings, err := readSheet(f, schema, detectors)
		if err != nil {
			if _, missing := err.(*sheetMissingError); missing && !schema.Coded() {
				// Loose reference sheets are informational; note and move on.
				data.Warnings = append(data.Warnings, Warning{Sheet: schema.Name, Message: "sheet not found"})
				continue
			}
			return nil, err
		}
		data.Warnings = append(data.Warnings, warnings...)

		switch schema.Name {
		case SheetTDSCodes:
			data.TDSCodes = table
		case SheetTDSParties:
			data.TDSParties = table
		case SheetChallanDetails:
			data.ChallanDetails = table
		case SheetTDSRates:
			data.TDSRates = table
		}

		log.Printf("Read %d rows from %s", len(table.Rows), schema.Name)
	}

	return data, nil
}

// SheetLayout is the located structure of a coded sheet: where its codes
// sit and where data begins. The writer maps output template sheets with
// it so reading and writing share one placement discipline.
type SheetLayout struct {
	Columns   ColumnMap
	CodeRow   int
	DataStart int
}

// MapSheet locates the code row of a sheet and builds its column map
// without reading data rows.
func MapSheet(f *excelize.File, sheet string, schema SheetSchema) (SheetLayout, error) {
	g, err := newExcelGrid(f, sheet)
	if err != nil {
		return SheetLayout{}, &sheetMissingError{sheet: sheet, err: err}
	}
	return layoutFromGrid(g, schema), nil
}

func layoutFromGrid(g *excelGrid, schema SheetSchema) SheetLayout {
	codeRow := findCodeRow(g)
	headerRow := 1
	dataStart := 2
	if codeRow > 0 {
		headerRow = codeRow - 1
		if headerRow < 1 {
			headerRow = 1
		}
		dataStart = codeRow + 1
	}

	return SheetLayout{
		Columns:   buildColumnMap(g, schema, codeRow, headerRow),
		CodeRow:   codeRow,
		DataStart: dataStart,
	}
}

// SheetGrid snapshots a sheet as a Grid for totals detection.
func SheetGrid(f *excelize.File, sheet string) (Grid, error) {
	return newExcelGrid(f, sheet)
}

type sheetMissingError struct {
	sheet string
	err   error
}

func (e *sheetMissingError) Error() string {
	return fmt.Sprintf("sheet %q not readable: %v", e.sheet, e.err)
}

func readSheet(f *excelize.File, schema SheetSchema, detectors []TotalsDetector) (*Table, []Warning, error) {
	grid, err := newExcelGrid(f, schema.Name)
	if err != nil {
		return nil, nil, &sheetMissingError{sheet: schema.Name, err: err}
	}

	if schema.Coded() {
		return readCodedSheet(grid, schema, detectors)
	}
	return readLooseSheet(grid, schema)
}

// extractCode normalizes a code-row cell to the "(415A)" form. Both the
// parenthesized and dash-prefixed template variants are recognized.
func extractCode(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if m := codeParenRegex.FindStringSubmatch(text); len(m) > 1 {
		return "(" + m[1] + ")", true
	}
	if m := codeDashRegex.FindStringSubmatch(text); len(m) > 1 {
		return "(" + m[1] + ")", true
	}
	return "", false
}

// findCodeRow scans the leading rows for the one carrying the most
// recognized column codes.
func findCodeRow(g *excelGrid) int {
	limit := codeScanRows
	if g.MaxRow() < limit {
		limit = g.MaxRow()
	}

	bestRow, bestCount := 0, 0
	for row := 1; row <= limit; row++ {
		count := 0
		for col := 1; col <= g.maxCol(); col++ {
			if _, ok := extractCode(g.Value(row, col)); ok {
				count++
			}
		}
		if count > bestCount {
			bestRow, bestCount = row, count
		}
	}
	return bestRow
}

func (g *excelGrid) maxCol() int {
	max := 0
	for _, row := range g.rows {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// buildColumnMap maps column codes to 0-based indices from the code row,
// then fills declared columns the code row missed by matching header
// display names.
func buildColumnMap(g *excelGrid, schema SheetSchema, codeRow, headerRow int) ColumnMap {
	columns := ColumnMap{}

	if codeRow > 0 {
		for col := 1; col <= g.maxCol(); col++ {
			if code, ok := extractCode(g.Value(codeRow, col)); ok {
				if _, taken := columns[code]; !taken {
					columns[code] = col - 1
				}
			}
		}
	}

	for _, declared := range schema.Columns {
		if _, found := columns[declared.Code]; found || len(declared.Fallbacks) == 0 {
			continue
		}
		for col := 1; col <= g.maxCol(); col++ {
			header := strings.ToLower(strings.TrimSpace(g.Value(headerRow, col)))
			if header == "" {
				continue
			}
			for _, name := range declared.Fallbacks {
				if strings.Contains(header, strings.ToLower(name)) {
					columns[declared.Code] = col - 1
					break
				}
			}
			if _, found := columns[declared.Code]; found {
				break
			}
		}
	}

	return columns
}

func readCodedSheet(g *excelGrid, schema SheetSchema, detectors []TotalsDetector) (*Table, []Warning, error) {
	layout := layoutFromGrid(g, schema)
	columns, dataStart := layout.Columns, layout.DataStart

	for _, declared := range schema.Columns {
		if !declared.Required {
			continue
		}
		if _, found := columns[declared.Code]; !found {
			return nil, nil, &MissingColumnError{Sheet: schema.Name, Code: declared.Code}
		}
	}

	var amountCols []int
	for _, declared := range schema.Columns {
		if declared.Type != TypeDecimal {
			continue
		}
		if idx, found := columns[declared.Code]; found {
			amountCols = append(amountCols, idx+1)
		}
	}

	totalsRow, detector, hasTotals := FindTotalsRow(g, dataStart, amountCols, detectors)
	if hasTotals {
		log.Printf("%s: totals row at %d (%s)", schema.Name, totalsRow, detector)
	}

	table := &Table{
		Sheet:     schema.Name,
		Columns:   columns,
		CodeRow:   layout.CodeRow,
		DataStart: dataStart,
	}

	var warnings []Warning
	for row := dataStart; row <= g.MaxRow(); row++ {
		if hasTotals && row >= totalsRow {
			break
		}
		if !isDataRow(g, schema, columns, row) {
			break
		}

		parsed := Row{}
		for _, declared := range schema.Columns {
			idx, found := columns[declared.Code]
			if !found {
				continue
			}
			cell, warn := parseCell(g.Value(row, idx+1), declared.Type)
			if warn != "" {
				warnings = append(warnings, Warning{Sheet: schema.Name, Row: row, Code: declared.Code, Message: warn})
			}
			parsed[declared.Code] = cell
		}

		// PAN is validated per row; malformed values warn, never abort.
		if pan := parsed.Cell("(416)"); pan.Concrete() && !panRegex.MatchString(strings.TrimSpace(pan.Raw)) {
			warnings = append(warnings, Warning{
				Sheet: schema.Name, Row: row, Code: "(416)",
				Message: fmt.Sprintf("malformed PAN %q", strings.TrimSpace(pan.Raw)),
			})
		}

		table.Rows = append(table.Rows, parsed)
	}

	return table, warnings, nil
}

// isDataRow checks the sheet's key columns for concrete, non-formula
// values. Formula-only rows below the data (recomputed totals and the
// like) fail the test and terminate the region.
func isDataRow(g *excelGrid, schema SheetSchema, columns ColumnMap, row int) bool {
	var keyIdx []int
	for _, code := range schema.KeyCodes {
		if idx, found := columns[code]; found {
			keyIdx = append(keyIdx, idx+1)
		}
	}

	if len(keyIdx) == 0 {
		// No key columns mapped: any concrete static cell counts.
		for col := 1; col <= g.maxCol(); col++ {
			if concreteStatic(g, row, col) {
				return true
			}
		}
		return false
	}

	for _, col := range keyIdx {
		if concreteStatic(g, row, col) {
			return true
		}
	}
	return false
}

func concreteStatic(g *excelGrid, row, col int) bool {
	value := strings.TrimSpace(g.Value(row, col))
	if value == "" || value == "0" {
		return false
	}
	return g.Formula(row, col) == ""
}

func parseCell(raw string, kind CellType) (Cell, string) {
	cell := Cell{Raw: strings.TrimSpace(raw)}
	if cell.Raw == "" {
		return cell, ""
	}

	switch kind {
	case TypeDecimal:
		amount, err := common.CleanDecimal(cell.Raw)
		if err != nil {
			return cell, fmt.Sprintf("unparseable amount %q", cell.Raw)
		}
		cell.Amount = &amount
	case TypeDate:
		if dt, ok := common.ParseDate(cell.Raw); ok {
			cell.Time = &dt
			break
		}
		// Unformatted date cells surface as raw Excel serials.
		if serial, err := strconv.ParseFloat(cell.Raw, 64); err == nil && serial > 0 {
			if dt, err := excelize.ExcelDateToTime(serial, false); err == nil {
				cell.Time = &dt
				break
			}
		}
		return cell, fmt.Sprintf("unparseable date %q", cell.Raw)
	}

	return cell, ""
}

// readLooseSheet reads a sheet without column codes: row 1 is the
// header, every cell is a string, and the region ends at the first
// fully-empty row.
func readLooseSheet(g *excelGrid, schema SheetSchema) (*Table, []Warning, error) {
	columns := ColumnMap{}
	for col := 1; col <= g.maxCol(); col++ {
		header := strings.TrimSpace(g.Value(1, col))
		if header == "" {
			continue
		}
		if _, taken := columns[header]; !taken {
			columns[header] = col - 1
		}
	}

	table := &Table{Sheet: schema.Name, Columns: columns, DataStart: 2}

	for row := 2; row <= g.MaxRow(); row++ {
		empty := true
		parsed := Row{}
		for header, idx := range columns {
			raw := strings.TrimSpace(g.Value(row, idx+1))
			if raw != "" {
				empty = false
			}
			parsed[header] = Cell{Raw: raw}
		}
		if empty {
			break
		}
		table.Rows = append(table.Rows, parsed)
	}

	return table, nil, nil
}
