package masters

// CellType declares how a column's cells are parsed.
type CellType int

const (
	TypeString CellType = iota
	TypeDecimal
	TypeDate
)

// Column is one declared column of a logical sheet. Code is the template
// column code (e.g. "(419)"); Fallbacks are display-name fragments used
// to locate the column when the code row omits it.
type Column struct {
	Code      string
	Name      string
	Required  bool
	Type      CellType
	Fallbacks []string
}

// SheetSchema declares a logical sheet: its columns and the key codes
// whose concrete values mark a real data row. A schema with no coded
// columns is read loosely, keyed by header text.
type SheetSchema struct {
	Name     string
	Columns  []Column
	KeyCodes []string
}

// Coded reports whether the sheet is located by column codes.
func (s SheetSchema) Coded() bool {
	for _, c := range s.Columns {
		if c.Code != "" {
			return true
		}
	}
	return false
}

// Column returns the declared column for a code.
func (s SheetSchema) Column(code string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Code == code {
			return c, true
		}
	}
	return Column{}, false
}

// Sheet names of the Masters workbook.
const (
	SheetTDSCodes       = "TDS CODES"
	SheetTDSParties     = "TDS PARTIES"
	SheetChallanDetails = "CHALLAN DETAILS"
	SheetTDSRates       = "TDS RATES"
)

// PartiesSchema declares the TDS PARTIES sheet. Amount Paid (419) and
// TDS Amount (421) are filing-mandatory; their absence fails the sheet.
func PartiesSchema() SheetSchema {
	return SheetSchema{
		Name: SheetTDSParties,
		Columns: []Column{
			{Code: "(414)", Name: "Sr.No", Type: TypeString},
			{Code: "(415)", Name: "Deductee Code", Type: TypeString,
				Fallbacks: []string{"Deductee Code", "Individual/Company", "Indiv/Comp", "Code"}},
			{Code: "(415A)", Name: "Section/Nature of Payment", Required: true, Type: TypeString,
				Fallbacks: []string{"Section Under Payment Made", "Type of Payment", "Nature of Payment", "Section"}},
			{Code: "(416)", Name: "PAN", Type: TypeString,
				Fallbacks: []string{"PAN of the Deductee", "PAN"}},
			{Code: "(417)", Name: "Name", Type: TypeString,
				Fallbacks: []string{"Name of the Deductee", "Deductee Name", "Name"}},
			{Code: "(418)", Name: "Date of Payment", Type: TypeDate,
				Fallbacks: []string{"Date of Payment", "Payment Date"}},
			{Code: "(419)", Name: "Amount Paid", Required: true, Type: TypeDecimal,
				Fallbacks: []string{"Amount Paid", "Gross Amount", "Amount"}},
			{Code: "(420)", Name: "Paid by Book Entry", Type: TypeString},
			{Code: "(421)", Name: "TDS Amount", Required: true, Type: TypeDecimal,
				Fallbacks: []string{"TDS Amount", "Tax Deducted", "TDS"}},
			{Code: "(422)", Name: "Surcharge", Type: TypeDecimal},
			{Code: "(425D)", Name: "BSR Code", Type: TypeString,
				Fallbacks: []string{"BSR Code", "BSR"}},
			{Code: "(425E)", Name: "Challan Serial No", Type: TypeString,
				Fallbacks: []string{"Challan Serial No", "Challan No"}},
			{Code: "(425F)", Name: "Date Deposited", Type: TypeDate,
				Fallbacks: []string{"Date on which deposited", "Date Deposited"}},
			{Code: "(427)", Name: "Rate", Type: TypeDecimal,
				Fallbacks: []string{"TDS Deducted Rates", "TDS Rate", "Rate"}},
		},
		// A row is data only when at least one of these holds a concrete
		// value; totals and formula-only rows fail this test.
		KeyCodes: []string{"(417)", "(416)"},
	}
}

// loosely-read reference sheets
func codesSchema() SheetSchema {
	return SheetSchema{Name: SheetTDSCodes}
}

func challanDetailsSchema() SheetSchema {
	return SheetSchema{Name: SheetChallanDetails}
}

func ratesSchema() SheetSchema {
	return SheetSchema{Name: SheetTDSRates}
}

// DefaultSchemas declares the four logical sheets of a Masters workbook.
func DefaultSchemas() []SheetSchema {
	return []SheetSchema{
		codesSchema(),
		PartiesSchema(),
		challanDetailsSchema(),
		ratesSchema(),
	}
}
