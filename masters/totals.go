package masters

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid is the minimal sheet view the totals detectors need. The reader
// and the writer both satisfy it over their excelize files, so the same
// detection runs against the Masters sheet and the output template.
type Grid interface {
	// Value returns the cached cell value at a 1-based row/column.
	Value(row, col int) string
	// Formula returns the cell's formula, empty for static cells.
	Formula(row, col int) string
	MaxRow() int
}

// TotalsDetector locates the totals row of a sheet. Template variants
// differ in how the row is marked, so detection is an ordered strategy
// chain rather than a single rule.
type TotalsDetector interface {
	Name() string
	Detect(g Grid, dataStart int, amountCols []int) (int, bool)
}

// FormulaMarkerDetector finds the first row whose amount columns carry a
// SUM formula.
type FormulaMarkerDetector struct{}

func (FormulaMarkerDetector) Name() string { return "formula-marker" }

func (FormulaMarkerDetector) Detect(g Grid, dataStart int, amountCols []int) (int, bool) {
	for row := dataStart; row <= g.MaxRow(); row++ {
		for _, col := range amountCols {
			formula := strings.ToUpper(g.Formula(row, col))
			if strings.Contains(formula, "SUM") {
				return row, true
			}
		}
	}
	return 0, false
}

// LabelMarkerDetector finds the first row labeled TOTAL in its leading
// columns.
type LabelMarkerDetector struct{}

func (LabelMarkerDetector) Name() string { return "label-marker" }

func (LabelMarkerDetector) Detect(g Grid, dataStart int, amountCols []int) (int, bool) {
	for row := dataStart; row <= g.MaxRow(); row++ {
		for col := 1; col <= 3; col++ {
			value := strings.ToLower(strings.TrimSpace(g.Value(row, col)))
			if strings.Contains(value, "total") {
				return row, true
			}
		}
	}
	return 0, false
}

// FixedOffsetDetector falls back to a template-defined row position for
// variants that mark the totals row with neither formula nor label.
type FixedOffsetDetector struct {
	Row int
}

func (FixedOffsetDetector) Name() string { return "fixed-offset" }

func (d FixedOffsetDetector) Detect(g Grid, dataStart int, amountCols []int) (int, bool) {
	if d.Row > dataStart && d.Row <= g.MaxRow() {
		return d.Row, true
	}
	return 0, false
}

// DefaultDetectors is the standard chain: content detection first, fixed
// position last.
func DefaultDetectors(fallbackRow int) []TotalsDetector {
	return []TotalsDetector{
		FormulaMarkerDetector{},
		LabelMarkerDetector{},
		FixedOffsetDetector{Row: fallbackRow},
	}
}

// FindTotalsRow runs the detector chain and returns the first hit along
// with the detector that produced it.
func FindTotalsRow(g Grid, dataStart int, amountCols []int, detectors []TotalsDetector) (int, string, bool) {
	for _, d := range detectors {
		if row, ok := d.Detect(g, dataStart, amountCols); ok {
			return row, d.Name(), true
		}
	}
	return 0, "", false
}

// excelGrid adapts an open excelize sheet to the Grid interface. Values
// come from a GetRows snapshot; formulas are looked up per cell.
type excelGrid struct {
	file  *excelize.File
	sheet string
	rows  [][]string
}

func newExcelGrid(f *excelize.File, sheet string) (*excelGrid, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return &excelGrid{file: f, sheet: sheet, rows: rows}, nil
}

func (g *excelGrid) Value(row, col int) string {
	if row < 1 || row > len(g.rows) {
		return ""
	}
	cells := g.rows[row-1]
	if col < 1 || col > len(cells) {
		return ""
	}
	return cells[col-1]
}

func (g *excelGrid) Formula(row, col int) string {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	formula, err := g.file.GetCellFormula(g.sheet, axis)
	if err != nil {
		return ""
	}
	return formula
}

func (g *excelGrid) MaxRow() int { return len(g.rows) }
