package writer

import (
	"fmt"

	"github.com/sahajtax/tdsret/masters"
)

// Output template sheet names.
const (
	SheetDeducteeBreakup = "DEDUCTEE BREAK-UP"
	SheetChallanDetails  = "CHALLAN DETAILS"
)

// TemplateColumnError reports a filing-mandatory column code missing
// from the output template. Fatal for the run: the field cannot be
// silently skipped.
type TemplateColumnError struct {
	Sheet string
	Code  string
}

func (e *TemplateColumnError) Error() string {
	return fmt.Sprintf("output template sheet %q: required column %s not found", e.Sheet, e.Code)
}

// ChallanSchema declares the CHALLAN DETAILS output sheet.
func ChallanSchema() masters.SheetSchema {
	return masters.SheetSchema{
		Name: SheetChallanDetails,
		Columns: []masters.Column{
			{Code: "(401)", Name: "Sr.No", Required: true},
			{Code: "(402)", Name: "Section Code", Required: true},
			{Code: "(403)", Name: "TDS Rs.", Required: true, Type: masters.TypeDecimal},
			{Code: "(404)", Name: "Surcharge Rs.", Type: masters.TypeDecimal},
			{Code: "(405)", Name: "Education Cess Rs.", Type: masters.TypeDecimal},
			{Code: "(406)", Name: "Interest Rs.", Type: masters.TypeDecimal},
			{Code: "(407)", Name: "Others Rs.", Type: masters.TypeDecimal},
			{Code: "(408)", Name: "Total Tax Deposited Rs.", Type: masters.TypeDecimal},
			{Code: "(409)", Name: "Cheque/DD No"},
			{Code: "(410)", Name: "BSR Code", Required: true},
			{Code: "(411)", Name: "Date on which Tax Deposited", Required: true, Type: masters.TypeDate},
			{Code: "(412)", Name: "Challan Serial No", Required: true},
			{Code: "(413)", Name: "Whether TDS Deposited by Book Entry"},
		},
	}
}

// DeducteeSchema declares the DEDUCTEE BREAK-UP output sheet.
func DeducteeSchema() masters.SheetSchema {
	return masters.SheetSchema{
		Name: SheetDeducteeBreakup,
		Columns: []masters.Column{
			{Code: "(414)", Name: "Sr.No", Required: true},
			{Code: "(415)", Name: "Deductee Code"},
			{Code: "(415A)", Name: "Section Under Payment Made", Required: true},
			{Code: "(416)", Name: "PAN of the Deductee", Required: true},
			{Code: "(417)", Name: "Name of the Deductee", Required: true},
			{Code: "(418)", Name: "Date of Payment", Type: masters.TypeDate},
			{Code: "(419)", Name: "Amount Paid Rs.", Required: true, Type: masters.TypeDecimal},
			{Code: "(420)", Name: "Paid by Book Entry"},
			{Code: "(421)", Name: "TDS Rs.", Required: true, Type: masters.TypeDecimal},
			{Code: "(422)", Name: "Surcharge Rs.", Type: masters.TypeDecimal},
			{Code: "(423)", Name: "Educational Cess Rs.", Type: masters.TypeDecimal},
			{Code: "(424)", Name: "Total Tax Deducted Rs.", Type: masters.TypeDecimal},
			{Code: "(425)", Name: "Total Tax Deposited Rs.", Type: masters.TypeDecimal},
			{Code: "(425A)", Name: "Interest Rs.", Type: masters.TypeDecimal},
			{Code: "(425B)", Name: "Others Rs.", Type: masters.TypeDecimal},
			{Code: "(425C)", Name: "Total Rs.", Type: masters.TypeDecimal},
			{Code: "(425D)", Name: "BSR Code"},
			{Code: "(425E)", Name: "Challan Serial No"},
			{Code: "(425F)", Name: "Date on which Deposited", Type: masters.TypeDate},
			{Code: "(426)", Name: "Date of Deduction", Type: masters.TypeDate},
			{Code: "(427)", Name: "Rate at which Deducted"},
			{Code: "(428)", Name: "Reason for Non/Lower Deduction"},
		},
	}
}
