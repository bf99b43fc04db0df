package writer

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sahajtax/tdsret/extractor/common"
	"github.com/sahajtax/tdsret/masters"
)

var challanCodes = []string{
	"(401)", "(402)", "(403)", "(404)", "(405)", "(406)", "(407)",
	"(408)", "(409)", "(410)", "(411)", "(412)", "(413)",
}

var deducteeCodes = []string{
	"(414)", "(415)", "(415A)", "(416)", "(417)", "(418)", "(419)", "(420)",
	"(421)", "(422)", "(423)", "(424)", "(425)", "(425A)", "(425B)", "(425C)",
	"(425D)", "(425E)", "(425F)", "(426)", "(427)", "(428)",
}

// buildTemplate lays out both output sheets the way the filing template
// does: title, headers, code row at 3, four blank data rows, totals row
// at 8 marked by SUM formulas.
func buildTemplate(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()

	addSheet := func(name string, codes []string, sumCol string) {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(name, "A1", name))
		for i, code := range codes {
			axis, err := excelize.CoordinatesToCellName(i+1, 3)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(name, axis, code))
		}
		require.NoError(t, f.SetCellFormula(name, sumCol+"8", fmt.Sprintf("SUM(%s4:%s7)", sumCol, sumCol)))
	}

	addSheet(SheetChallanDetails, challanCodes, "C")
	addSheet(SheetDeducteeBreakup, deducteeCodes, "G")
	return f
}

func tenderDate(day int) *time.Time {
	dt := time.Date(2025, time.April, day, 0, 0, 0, 0, time.Local)
	return &dt
}

func testChallan(section, bsr, serial, tax string, day int) common.Challan {
	return common.Challan{
		TAN:             "DELT01234A",
		NatureOfPayment: section,
		CIN:             "CIN001",
		BSRCode:         bsr,
		ChallanNo:       serial,
		TenderDate:      tenderDate(day),
		ModeOfPayment:   "NET BANKING",
		TaxAmount:       decimal.RequireFromString(tax),
	}
}

func amountCell(value string) masters.Cell {
	d := decimal.RequireFromString(value)
	return masters.Cell{Raw: value, Amount: &d}
}

func dateCell(day int) masters.Cell {
	dt := tenderDate(day)
	return masters.Cell{Raw: dt.Format("02/01/2006"), Time: dt}
}

func partyRow(section, pan, name, amount, tds string) masters.Row {
	return masters.Row{
		"(415A)": masters.Cell{Raw: section},
		"(416)":  masters.Cell{Raw: pan},
		"(417)":  masters.Cell{Raw: name},
		"(418)":  dateCell(7),
		"(419)":  amountCell(amount),
		"(421)":  amountCell(tds),
	}
}

func testMasters(rows ...masters.Row) *masters.MastersData {
	return &masters.MastersData{
		TDSParties: &masters.Table{
			Sheet:     masters.SheetTDSParties,
			DataStart: 4,
			Rows:      rows,
		},
	}
}

func cellValue(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	value, err := f.GetCellValue(sheet, axis)
	require.NoError(t, err)
	return value
}

func TestPopulate_ChallanDetails(t *testing.T) {
	f := buildTemplate(t)
	w := NewFromFile(f)

	challans := []common.Challan{
		testChallan("94C", "0000345", "00042", "45250.50", 7),
		testChallan("94A", "0000345", "00043", "12000", 9),
	}

	require.NoError(t, w.Populate(testMasters(partyRow("94C", "ABCDE1234F", "ALPHA", "100000", "2000")), challans))

	assert.Equal(t, "1", cellValue(t, f, SheetChallanDetails, "A4"))
	assert.Equal(t, "94 C", cellValue(t, f, SheetChallanDetails, "B4"))
	// 45250.50 rounds up at the half-rupee boundary.
	assert.Equal(t, "45251", cellValue(t, f, SheetChallanDetails, "C4"))
	assert.Equal(t, "94 A", cellValue(t, f, SheetChallanDetails, "B5"))
	assert.Equal(t, "NO", cellValue(t, f, SheetChallanDetails, "M4"))
	assert.Equal(t, "07/04/2025", cellValue(t, f, SheetChallanDetails, "K4"))
}

func TestPopulate_IdentifiersKeepLeadingZeros(t *testing.T) {
	f := buildTemplate(t)
	w := NewFromFile(f)

	challans := []common.Challan{testChallan("94C", "0000345", "00042", "1000", 7)}
	require.NoError(t, w.Populate(testMasters(partyRow("94C", "ABCDE1234F", "ALPHA", "50000", "1000")), challans))

	assert.Equal(t, "0000345", cellValue(t, f, SheetChallanDetails, "J4"))
	assert.Equal(t, "00042", cellValue(t, f, SheetChallanDetails, "L4"))
	// The deductee sheet carries the same identifiers via the section
	// lookup: (425D) at Q, (425E) at R.
	assert.Equal(t, "0000345", cellValue(t, f, SheetDeducteeBreakup, "Q4"))
	assert.Equal(t, "00042", cellValue(t, f, SheetDeducteeBreakup, "R4"))
}

func TestPopulate_TotalsRowShrinksToData(t *testing.T) {
	f := buildTemplate(t)
	w := NewFromFile(f)

	// Two challans into four template rows: totals move up to row 6 and
	// the SUM is re-ranged over exactly the written rows.
	challans := []common.Challan{
		testChallan("94C", "0000345", "00042", "1000", 7),
		testChallan("94A", "0000345", "00043", "2000", 9),
	}
	require.NoError(t, w.Populate(testMasters(partyRow("94C", "ABCDE1234F", "ALPHA", "50000", "1000")), challans))

	formula, err := f.GetCellFormula(SheetChallanDetails, "C6")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C4:C5)", formula)
	assert.Equal(t, "TOTAL", cellValue(t, f, SheetChallanDetails, "A6"))
}

func TestPopulate_TotalsRowGrowsForOverflow(t *testing.T) {
	f := buildTemplate(t)
	w := NewFromFile(f)

	var challans []common.Challan
	for i := 0; i < 5; i++ {
		challans = append(challans, testChallan("94C", "0000345", fmt.Sprintf("%05d", i+1), "1000", 7))
	}
	require.NoError(t, w.Populate(testMasters(partyRow("94C", "ABCDE1234F", "ALPHA", "50000", "1000")), challans))

	formula, err := f.GetCellFormula(SheetChallanDetails, "C9")
	require.NoError(t, err)
	assert.Equal(t, "SUM(C4:C8)", formula)
	assert.Equal(t, "5", cellValue(t, f, SheetChallanDetails, "A8"))
}

func TestPopulate_DeducteeBreakup(t *testing.T) {
	f := buildTemplate(t)
	w := NewFromFile(f)

	data := testMasters(
		partyRow("94C", "ABCDE1234F", "ALPHA ENGINEERING", "100000.50", "2000"),
		partyRow("94 C", "AAAPB5678K", "BETA TRADERS", "50000", "1000.50"),
	)
	challans := []common.Challan{testChallan("94C", "0000345", "00042", "3000", 10)}

	require.NoError(t, w.Populate(data, challans))

	assert.Equal(t, "94 C", cellValue(t, f, SheetDeducteeBreakup, "C4"))
	assert.Equal(t, "ALPHA ENGINEERING", cellValue(t, f, SheetDeducteeBreakup, "E4"))
	// Half-up rounding on both amount columns.
	assert.Equal(t, "100001", cellValue(t, f, SheetDeducteeBreakup, "G4"))
	assert.Equal(t, "1001", cellValue(t, f, SheetDeducteeBreakup, "I5"))
	// Company code derived from the PAN fourth character.
	assert.Equal(t, "02", cellValue(t, f, SheetDeducteeBreakup, "B4"))
	assert.Equal(t, "01", cellValue(t, f, SheetDeducteeBreakup, "B5"))
	// Deposit date comes from the challan via the section lookup.
	assert.Equal(t, "10/04/2025", cellValue(t, f, SheetDeducteeBreakup, "S4"))
	assert.Equal(t, "N.A", cellValue(t, f, SheetDeducteeBreakup, "V4"))

	deducted, err := f.GetCellFormula(SheetDeducteeBreakup, "L4")
	require.NoError(t, err)
	assert.Equal(t, "I4+J4+K4", deducted)
}

func TestPopulate_MissingTemplateColumnFatal(t *testing.T) {
	f := buildTemplate(t)
	// Blank out the (421) code cell: TDS amount is filing-mandatory.
	require.NoError(t, f.SetCellValue(SheetDeducteeBreakup, "I3", ""))

	w := NewFromFile(f)
	err := w.Populate(testMasters(partyRow("94C", "ABCDE1234F", "ALPHA", "1000", "10")),
		[]common.Challan{testChallan("94C", "0000345", "00042", "10", 7)})

	require.Error(t, err)
	templateErr, ok := err.(*TemplateColumnError)
	require.True(t, ok, "expected *TemplateColumnError, got %T", err)
	assert.Equal(t, "(421)", templateErr.Code)
	assert.Equal(t, SheetDeducteeBreakup, templateErr.Sheet)
}

func TestPopulate_SaveAndReload(t *testing.T) {
	f := buildTemplate(t)
	w := NewFromFile(f)

	challans := []common.Challan{testChallan("94C", "0000123", "00001", "100.50", 7)}
	require.NoError(t, w.Populate(testMasters(partyRow("94C", "ABCDE1234F", "ALPHA", "5025", "100.50")), challans))

	out := filepath.Join(t.TempDir(), "TDS_April_2025.xlsx")
	require.NoError(t, w.SaveAs(out))
	require.NoError(t, w.Close())

	reopened, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, "0000123", cellValue(t, reopened, SheetChallanDetails, "J4"))
	assert.Equal(t, "101", cellValue(t, reopened, SheetChallanDetails, "C4"))
}

func TestDeducteeCode(t *testing.T) {
	tests := []struct {
		raw, pan, want string
	}{
		{"1", "", "01"},
		{"02", "", "02"},
		{"", "ABCPE1234F", "01"},
		{"", "ABCDE1234F", "02"},
		{"", "", "02"},
	}
	for _, tc := range tests {
		if got := deducteeCode(tc.raw, tc.pan); got != tc.want {
			t.Errorf("deducteeCode(%q, %q) = %q, want %q", tc.raw, tc.pan, got, tc.want)
		}
	}
}

func TestRateText(t *testing.T) {
	ten := decimal.NewFromInt(10)
	fraction := decimal.RequireFromString("0.1")

	if got := rateText(&ten, decimal.Zero, decimal.Zero); got != "10.00%" {
		t.Errorf("Expected 10.00%%, got %s", got)
	}
	// A stored fraction is a ratio, not a percentage.
	if got := rateText(&fraction, decimal.Zero, decimal.Zero); got != "10.00%" {
		t.Errorf("Expected 10.00%% from fraction, got %s", got)
	}
	if got := rateText(nil, decimal.NewFromInt(100000), decimal.NewFromInt(2000)); got != "2.00%" {
		t.Errorf("Expected derived 2.00%%, got %s", got)
	}
	if got := rateText(nil, decimal.Zero, decimal.Zero); got != "0%" {
		t.Errorf("Expected 0%%, got %s", got)
	}
}
