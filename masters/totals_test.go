package masters

import (
	"testing"
)

// fakeGrid is an in-memory Grid for detector tests.
type fakeGrid struct {
	values   map[[2]int]string
	formulas map[[2]int]string
	maxRow   int
}

func (g fakeGrid) Value(row, col int) string   { return g.values[[2]int{row, col}] }
func (g fakeGrid) Formula(row, col int) string { return g.formulas[[2]int{row, col}] }
func (g fakeGrid) MaxRow() int                 { return g.maxRow }

func TestFormulaMarkerDetector(t *testing.T) {
	g := fakeGrid{
		values: map[[2]int]string{
			{4, 7}: "1000",
			{5, 7}: "2000",
		},
		formulas: map[[2]int]string{
			{6, 7}: "SUM(G4:G5)",
		},
		maxRow: 8,
	}

	row, ok := FormulaMarkerDetector{}.Detect(g, 4, []int{7})
	if !ok {
		t.Fatal("Expected formula marker to be detected")
	}
	if row != 6 {
		t.Errorf("Expected totals row 6, got %d", row)
	}
}

func TestFormulaMarkerDetector_IgnoresNonAmountColumns(t *testing.T) {
	g := fakeGrid{
		formulas: map[[2]int]string{
			{5, 1}: "SUM(A1:A4)",
		},
		maxRow: 6,
	}

	if _, ok := (FormulaMarkerDetector{}).Detect(g, 4, []int{7}); ok {
		t.Error("Expected no detection from a SUM outside the amount columns")
	}
}

func TestLabelMarkerDetector(t *testing.T) {
	g := fakeGrid{
		values: map[[2]int]string{
			{4, 1}: "1",
			{5, 1}: "2",
			{6, 2}: "Grand Total",
		},
		maxRow: 8,
	}

	row, ok := LabelMarkerDetector{}.Detect(g, 4, nil)
	if !ok {
		t.Fatal("Expected label marker to be detected")
	}
	if row != 6 {
		t.Errorf("Expected totals row 6, got %d", row)
	}
}

func TestLabelMarkerDetector_OnlyLeadingColumns(t *testing.T) {
	g := fakeGrid{
		values: map[[2]int]string{
			{5, 9}: "Total",
		},
		maxRow: 6,
	}

	if _, ok := (LabelMarkerDetector{}).Detect(g, 4, nil); ok {
		t.Error("Expected label in a trailing column to be ignored")
	}
}

func TestFixedOffsetDetector(t *testing.T) {
	g := fakeGrid{maxRow: 60}

	row, ok := FixedOffsetDetector{Row: 55}.Detect(g, 4, nil)
	if !ok || row != 55 {
		t.Errorf("Expected fixed row 55, got %d (ok=%v)", row, ok)
	}

	if _, ok := (FixedOffsetDetector{Row: 0}).Detect(g, 4, nil); ok {
		t.Error("Expected unset fixed offset to produce no detection")
	}

	if _, ok := (FixedOffsetDetector{Row: 80}).Detect(g, 4, nil); ok {
		t.Error("Expected out-of-range fixed offset to produce no detection")
	}
}

func TestFindTotalsRow_ChainOrder(t *testing.T) {
	// Formula marker at row 6, label at row 9: the chain must report the
	// formula hit first.
	g := fakeGrid{
		values: map[[2]int]string{
			{9, 1}: "TOTAL",
		},
		formulas: map[[2]int]string{
			{6, 7}: "SUM(G4:G5)",
		},
		maxRow: 10,
	}

	row, name, ok := FindTotalsRow(g, 4, []int{7}, DefaultDetectors(55))
	if !ok {
		t.Fatal("Expected a totals row")
	}
	if row != 6 {
		t.Errorf("Expected row 6, got %d", row)
	}
	if name != "formula-marker" {
		t.Errorf("Expected formula-marker to win, got %s", name)
	}
}

func TestFindTotalsRow_FallsBackToFixedOffset(t *testing.T) {
	g := fakeGrid{maxRow: 60}

	row, name, ok := FindTotalsRow(g, 4, []int{7}, DefaultDetectors(55))
	if !ok {
		t.Fatal("Expected fixed-offset fallback to fire")
	}
	if row != 55 || name != "fixed-offset" {
		t.Errorf("Expected row 55 via fixed-offset, got %d via %s", row, name)
	}
}

func TestFindTotalsRow_NoDetection(t *testing.T) {
	g := fakeGrid{maxRow: 10}

	detectors := []TotalsDetector{FormulaMarkerDetector{}, LabelMarkerDetector{}}
	if _, _, ok := FindTotalsRow(g, 4, []int{7}, detectors); ok {
		t.Error("Expected no totals row on an unmarked sheet")
	}
}
