// Package writer populates the filing output template from validated
// Masters data and deduplicated challan records. Cells are addressed by
// column code through the same mapping discipline the reader uses, so a
// template with user-inserted columns still lines up.
package writer

import (
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"github.com/sahajtax/tdsret/extractor/common"
	"github.com/sahajtax/tdsret/masters"
)

const outputDateFormat = "02/01/2006"

// Writer holds an open output template.
type Writer struct {
	file *excelize.File
}

// Open loads an output template from disk.
func Open(templatePath string) (*Writer, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open output template: %w", err)
	}
	return &Writer{file: f}, nil
}

// NewFromFile wraps an already-open workbook.
func NewFromFile(f *excelize.File) *Writer {
	return &Writer{file: f}
}

// File exposes the underlying workbook.
func (w *Writer) File() *excelize.File { return w.file }

// SaveAs writes the populated workbook to path.
func (w *Writer) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save output file: %w", err)
	}
	log.Println("Wrote", path)
	return nil
}

func (w *Writer) Close() error { return w.file.Close() }

// Populate fills both output sheets. The input data is never mutated;
// all derivation happens into the template copy.
func (w *Writer) Populate(data *masters.MastersData, challans []common.Challan) error {
	if err := w.writeChallanDetails(challans); err != nil {
		return err
	}
	return w.writeDeducteeBreakup(data, challans)
}

// sheetWriter batches cell writes against one sheet, capturing the first
// error so call sites stay flat.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (sw *sheetWriter) axis(col0, row int) string {
	name, err := excelize.CoordinatesToCellName(col0+1, row)
	if err != nil && sw.err == nil {
		sw.err = err
	}
	return name
}

func (sw *sheetWriter) set(col0, row int, value interface{}) {
	if sw.err != nil {
		return
	}
	sw.err = sw.f.SetCellValue(sw.sheet, sw.axis(col0, row), value)
}

// setText writes a string cell explicitly, so identifier-like values
// such as "0000345" keep their leading zeros.
func (sw *sheetWriter) setText(col0, row int, value string) {
	if sw.err != nil {
		return
	}
	sw.err = sw.f.SetCellStr(sw.sheet, sw.axis(col0, row), value)
}

func (sw *sheetWriter) setFormula(col0, row int, formula string) {
	if sw.err != nil {
		return
	}
	sw.err = sw.f.SetCellFormula(sw.sheet, sw.axis(col0, row), formula)
}

func (sw *sheetWriter) clear(col0, row int) {
	if sw.err != nil {
		return
	}
	sw.err = sw.f.SetCellValue(sw.sheet, sw.axis(col0, row), nil)
}

func fixedTotalsRow(key string, fallback int) int {
	if row := viper.GetInt(key); row > 0 {
		return row
	}
	return fallback
}

// prepareSheet maps the sheet's columns, verifies the required codes,
// locates the totals row and resizes the data region to hold exactly
// needed rows. It returns the layout and the (possibly shifted) totals
// row; totals row 0 means the template carries none and the caller
// should append one.
func (w *Writer) prepareSheet(schema masters.SheetSchema, needed, fallbackRow int) (masters.SheetLayout, int, error) {
	layout, err := masters.MapSheet(w.file, schema.Name, schema)
	if err != nil {
		return masters.SheetLayout{}, 0, err
	}

	for _, column := range schema.Columns {
		if !column.Required {
			continue
		}
		if _, found := layout.Columns[column.Code]; !found {
			return masters.SheetLayout{}, 0, &TemplateColumnError{Sheet: schema.Name, Code: column.Code}
		}
	}

	grid, err := masters.SheetGrid(w.file, schema.Name)
	if err != nil {
		return masters.SheetLayout{}, 0, err
	}

	var amountCols []int
	for _, column := range schema.Columns {
		if column.Type != masters.TypeDecimal {
			continue
		}
		if idx, found := layout.Columns[column.Code]; found {
			amountCols = append(amountCols, idx+1)
		}
	}

	totalsRow, detector, hasTotals := masters.FindTotalsRow(
		grid, layout.DataStart, amountCols, masters.DefaultDetectors(fallbackRow))

	if hasTotals {
		log.Printf("%s: totals row at %d (%s)", schema.Name, totalsRow, detector)
		capacity := totalsRow - layout.DataStart
		switch {
		case needed > capacity:
			if err := w.file.InsertRows(schema.Name, totalsRow, needed-capacity); err != nil {
				return masters.SheetLayout{}, 0, fmt.Errorf("failed to grow %s: %w", schema.Name, err)
			}
			totalsRow += needed - capacity
		case needed < capacity:
			for totalsRow-layout.DataStart > needed {
				if err := w.file.RemoveRow(schema.Name, totalsRow-1); err != nil {
					return masters.SheetLayout{}, 0, fmt.Errorf("failed to shrink %s: %w", schema.Name, err)
				}
				totalsRow--
			}
		}
	} else {
		totalsRow = 0
	}

	// Clear stale template data from the region that will be rewritten.
	sw := &sheetWriter{f: w.file, sheet: schema.Name}
	for row := layout.DataStart; row < layout.DataStart+needed; row++ {
		for _, idx := range layout.Columns {
			sw.clear(idx, row)
		}
	}
	return layout, totalsRow, sw.err
}

// writeTotals stamps the TOTAL label and re-ranged SUM formulas onto the
// totals row so they cover exactly the rows just written.
func writeTotals(sw *sheetWriter, schema masters.SheetSchema, layout masters.SheetLayout, totalsRow, needed int) {
	labelCol := 0
	if idx, found := layout.Columns[schema.Columns[0].Code]; found {
		labelCol = idx
	}
	sw.set(labelCol, totalsRow, "TOTAL")

	if needed == 0 {
		return
	}
	lastData := layout.DataStart + needed - 1
	for _, column := range schema.Columns {
		if column.Type != masters.TypeDecimal {
			continue
		}
		idx, found := layout.Columns[column.Code]
		if !found {
			continue
		}
		sw.setFormula(idx, totalsRow,
			fmt.Sprintf("SUM(%s:%s)", sw.axis(idx, layout.DataStart), sw.axis(idx, lastData)))
	}
}

func roundedInt(amount decimal.Decimal) int64 {
	return common.RoundRupees(amount).IntPart()
}

func (w *Writer) writeChallanDetails(challans []common.Challan) error {
	schema := ChallanSchema()
	layout, totalsRow, err := w.prepareSheet(schema, len(challans), fixedTotalsRow("writer.challan_totals_row", 8))
	if err != nil {
		return err
	}
	if totalsRow == 0 {
		totalsRow = layout.DataStart + len(challans)
	}

	sw := &sheetWriter{f: w.file, sheet: schema.Name}
	cols := layout.Columns

	for i, c := range challans {
		row := layout.DataStart + i

		sw.set(cols["(401)"], row, i+1)
		sw.set(cols["(402)"], row, common.FormatSection(c.NatureOfPayment))
		sw.set(cols["(403)"], row, roundedInt(c.TaxAmount))
		if idx, ok := cols["(404)"]; ok {
			sw.set(idx, row, roundedInt(c.Surcharge))
		}
		if idx, ok := cols["(405)"]; ok {
			sw.set(idx, row, roundedInt(c.Cess))
		}
		if idx, ok := cols["(406)"]; ok {
			sw.set(idx, row, roundedInt(c.Interest))
		}
		if idx, ok := cols["(407)"]; ok {
			sw.set(idx, row, roundedInt(c.Penalty))
		}
		if idx, ok := cols["(408)"]; ok {
			sw.setFormula(idx, row, sumOfCells(sw, row, cols, "(403)", "(404)", "(405)", "(406)", "(407)"))
		}
		if idx, ok := cols["(409)"]; ok {
			sw.set(idx, row, c.ModeOfPayment)
		}
		sw.setText(cols["(410)"], row, c.BSRCode)
		if c.TenderDate != nil {
			sw.setText(cols["(411)"], row, c.TenderDate.Format(outputDateFormat))
		}
		sw.setText(cols["(412)"], row, c.ChallanNo)
		if idx, ok := cols["(413)"]; ok {
			sw.set(idx, row, "NO")
		}
	}

	writeTotals(sw, schema, layout, totalsRow, len(challans))
	if sw.err != nil {
		return fmt.Errorf("failed to write %s: %w", schema.Name, sw.err)
	}
	log.Printf("Wrote %d challans to %s", len(challans), schema.Name)
	return nil
}

// sumOfCells builds an addition formula over whichever of the listed
// codes are mapped, e.g. "C4+D4+E4".
func sumOfCells(sw *sheetWriter, row int, cols masters.ColumnMap, codes ...string) string {
	var terms []string
	for _, code := range codes {
		if idx, found := cols[code]; found {
			terms = append(terms, sw.axis(idx, row))
		}
	}
	return strings.Join(terms, "+")
}

// challanRef carries the deposit identifiers written into a deductee row
// when the Masters row itself does not record them.
type challanRef struct {
	bsr      string
	serial   string
	dateText string
}

func challanLookup(challans []common.Challan) map[string]challanRef {
	lookup := make(map[string]challanRef, len(challans))
	for _, c := range challans {
		section := common.NormalizeSection(c.NatureOfPayment)
		if _, taken := lookup[section]; taken {
			continue
		}
		ref := challanRef{bsr: c.BSRCode, serial: c.ChallanNo}
		if c.TenderDate != nil {
			ref.dateText = c.TenderDate.Format(outputDateFormat)
		}
		lookup[section] = ref
	}
	return lookup
}

// deducteeCode normalizes the 01/02 individual-vs-company code, falling
// back to the PAN's fourth character when the Masters row omits it.
func deducteeCode(raw, pan string) string {
	code := strings.TrimSpace(raw)
	if code != "" && isDigits(code) {
		if len(code) == 1 {
			code = "0" + code
		}
		return code
	}
	if len(pan) >= 4 && (pan[3] == 'P' || pan[3] == 'p') {
		return "01"
	}
	return "02"
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// rateText renders the deduction rate as a percentage string. A stored
// fraction like 0.1 means 10%; absent rates are derived from the row's
// own TDS/amount ratio.
func rateText(stored *decimal.Decimal, amount, tds decimal.Decimal) string {
	if stored != nil {
		rate := *stored
		if rate.LessThan(decimal.NewFromInt(1)) && rate.GreaterThan(decimal.Zero) {
			rate = rate.Mul(decimal.NewFromInt(100))
		}
		return rate.StringFixed(2) + "%"
	}
	if amount.GreaterThan(decimal.Zero) && tds.GreaterThan(decimal.Zero) {
		return tds.Div(amount).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
	}
	return "0%"
}

func (w *Writer) writeDeducteeBreakup(data *masters.MastersData, challans []common.Challan) error {
	if data == nil || data.TDSParties == nil {
		return fmt.Errorf("no deductee rows to write")
	}
	parties := data.TDSParties.Rows

	schema := DeducteeSchema()
	layout, totalsRow, err := w.prepareSheet(schema, len(parties), fixedTotalsRow("writer.deductee_totals_row", 55))
	if err != nil {
		return err
	}
	if totalsRow == 0 {
		totalsRow = layout.DataStart + len(parties)
	}

	sw := &sheetWriter{f: w.file, sheet: schema.Name}
	cols := layout.Columns
	lookup := challanLookup(challans)

	for i, party := range parties {
		row := layout.DataStart + i
		section := common.NormalizeSection(party.Cell("(415A)").Raw)
		pan := strings.TrimSpace(party.Cell("(416)").Raw)
		ref := lookup[section]

		var amount, tds decimal.Decimal
		if a := party.Cell("(419)").Amount; a != nil {
			amount = *a
		}
		if t := party.Cell("(421)").Amount; t != nil {
			tds = *t
		}

		sw.set(cols["(414)"], row, i+1)
		if idx, ok := cols["(415)"]; ok {
			sw.setText(idx, row, deducteeCode(party.Cell("(415)").Raw, pan))
		}
		sw.set(cols["(415A)"], row, common.FormatSection(section))
		sw.set(cols["(416)"], row, pan)
		sw.set(cols["(417)"], row, strings.TrimSpace(party.Cell("(417)").Raw))
		if idx, ok := cols["(418)"]; ok {
			sw.setText(idx, row, dateCellText(party.Cell("(418)")))
		}
		sw.set(cols["(419)"], row, roundedInt(amount))
		// (420) Paid by Book Entry stays blank.
		sw.set(cols["(421)"], row, roundedInt(tds))
		if idx, ok := cols["(422)"]; ok {
			surcharge := decimal.Zero
			if s := party.Cell("(422)").Amount; s != nil {
				surcharge = *s
			}
			sw.set(idx, row, roundedInt(surcharge))
		}
		if idx, ok := cols["(423)"]; ok {
			sw.set(idx, row, 0)
		}
		if idx, ok := cols["(424)"]; ok {
			sw.setFormula(idx, row, sumOfCells(sw, row, cols, "(421)", "(422)", "(423)"))
		}
		if idx, ok := cols["(425)"]; ok {
			if deducted, found := cols["(424)"]; found {
				sw.setFormula(idx, row, sw.axis(deducted, row))
			}
		}
		if idx, ok := cols["(425A)"]; ok {
			sw.set(idx, row, 0)
		}
		if idx, ok := cols["(425B)"]; ok {
			sw.set(idx, row, 0)
		}
		if idx, ok := cols["(425C)"]; ok {
			sw.setFormula(idx, row, sumOfCells(sw, row, cols, "(425)", "(425A)", "(425B)"))
		}
		if idx, ok := cols["(425D)"]; ok {
			sw.setText(idx, row, firstNonEmpty(party.Cell("(425D)").Raw, ref.bsr))
		}
		if idx, ok := cols["(425E)"]; ok {
			sw.setText(idx, row, firstNonEmpty(party.Cell("(425E)").Raw, ref.serial))
		}
		if idx, ok := cols["(425F)"]; ok {
			deposited := dateCellText(party.Cell("(425F)"))
			if deposited == "" {
				deposited = ref.dateText
			}
			sw.setText(idx, row, deposited)
		}
		if idx, ok := cols["(426)"]; ok {
			sw.setText(idx, row, dateCellText(party.Cell("(418)")))
		}
		if idx, ok := cols["(427)"]; ok {
			sw.setText(idx, row, rateText(party.Cell("(427)").Amount, amount, tds))
		}
		if idx, ok := cols["(428)"]; ok {
			sw.set(idx, row, "N.A")
		}
	}

	writeTotals(sw, schema, layout, totalsRow, len(parties))
	if sw.err != nil {
		return fmt.Errorf("failed to write %s: %w", schema.Name, sw.err)
	}
	log.Printf("Wrote %d deductee rows to %s", len(parties), schema.Name)
	return nil
}

func dateCellText(cell masters.Cell) string {
	if cell.Time != nil {
		return cell.Time.Format(outputDateFormat)
	}
	return strings.TrimSpace(cell.Raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
