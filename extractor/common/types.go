package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Challan is one remittance receipt extracted from an ITNS-281 PDF.
// BSRCode and ChallanNo are kept as text: both carry significant leading
// zeros that an integer conversion would silently drop.
type Challan struct {
	Source          string          `json:"source"`
	TAN             string          `json:"tan"`
	NatureOfPayment string          `json:"nature_of_payment"`
	CIN             string          `json:"cin"`
	BSRCode         string          `json:"bsr_code"`
	ChallanNo       string          `json:"challan_no"`
	TenderDate      *time.Time      `json:"tender_date,omitempty"`
	ModeOfPayment   string          `json:"mode_of_payment,omitempty"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Surcharge       decimal.Decimal `json:"surcharge"`
	Cess            decimal.Decimal `json:"cess"`
	Interest        decimal.Decimal `json:"interest"`
	Penalty         decimal.Decimal `json:"penalty"`
	Fee234E         decimal.Decimal `json:"fee_234e"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// ChallanKey is the natural key used for deduplication. Challan serials
// are only unique within a BSR branch, so the full composite is used.
type ChallanKey struct {
	TAN       string
	CIN       string
	BSRCode   string
	ChallanNo string
}

// Key returns the natural key of the challan.
func (c Challan) Key() ChallanKey {
	return ChallanKey{TAN: c.TAN, CIN: c.CIN, BSRCode: c.BSRCode, ChallanNo: c.ChallanNo}
}

// FieldError reports a single required field that could not be matched in
// a challan's text. Extraction reports these per field so a batch run can
// decide whether to skip or flag the file.
type FieldError struct {
	Field string `json:"field"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("challan field %q not found", e.Field)
}
