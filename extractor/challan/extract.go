// Package challan extracts the fields of an ITNS-281 bank challan receipt
// from PDF text. Patterns live in the config so template drift can be
// absorbed without a rebuild.
package challan

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/sahajtax/tdsret/extractor/common"
)

// RequiredFields are the fields a challan must yield for the record to be
// usable downstream. Each miss is reported individually.
var RequiredFields = []string{"tan", "nature_of_payment", "cin", "bsr_code", "challan_no", "tax_amount"}

type config struct {
	TAN             *regexp.Regexp
	NatureOfPayment *regexp.Regexp
	CIN             *regexp.Regexp
	BSRCode         *regexp.Regexp
	ChallanNo       *regexp.Regexp
	TenderDate      *regexp.Regexp
	ModeOfPayment   *regexp.Regexp
	TaxAmount       []*regexp.Regexp
	Surcharge       []*regexp.Regexp
	Cess            []*regexp.Regexp
	Interest        []*regexp.Regexp
	Penalty         []*regexp.Regexp
	Fee234E         []*regexp.Regexp
	TotalAmount     []*regexp.Regexp
	DateFormat      string
}

func compile(key string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + viper.GetString(key))
}

func compileList(key string) []*regexp.Regexp {
	patterns := viper.GetStringSlice(key)
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+p))
	}
	return compiled
}

func loadConfig() config {
	return config{
		TAN:             compile("challan.patterns.tan"),
		NatureOfPayment: compile("challan.patterns.nature_of_payment"),
		CIN:             compile("challan.patterns.cin"),
		BSRCode:         compile("challan.patterns.bsr_code"),
		ChallanNo:       compile("challan.patterns.challan_no"),
		TenderDate:      compile("challan.patterns.tender_date"),
		ModeOfPayment:   compile("challan.patterns.mode_of_payment"),
		TaxAmount:       compileList("challan.patterns.tax_amount"),
		Surcharge:       compileList("challan.patterns.surcharge"),
		Cess:            compileList("challan.patterns.cess"),
		Interest:        compileList("challan.patterns.interest"),
		Penalty:         compileList("challan.patterns.penalty"),
		Fee234E:         compileList("challan.patterns.fee_234e"),
		TotalAmount:     compileList("challan.patterns.total_amount"),
		DateFormat:      viper.GetString("challan.date_format"),
	}
}

// Extract applies the labeled field patterns to one challan's text rows.
// It is a pure function of its input: re-running it on the same text
// yields an identical record. A partial record is returned alongside the
// list of required fields that could not be matched.
func Extract(path string, rows []string) (common.Challan, []common.FieldError) {
	cfg := loadConfig()
	text := strings.Join(rows, "\n")

	record := common.Challan{
		Source: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	if match := cfg.TAN.FindStringSubmatch(text); len(match) > 1 {
		record.TAN = strings.ToUpper(strings.TrimSpace(match[1]))
	}
	if match := cfg.NatureOfPayment.FindStringSubmatch(text); len(match) > 1 {
		record.NatureOfPayment = common.NormalizeSection(match[1])
	}
	if match := cfg.CIN.FindStringSubmatch(text); len(match) > 1 {
		record.CIN = strings.ToUpper(strings.TrimSpace(match[1]))
	}
	if match := cfg.BSRCode.FindStringSubmatch(text); len(match) > 1 {
		record.BSRCode = common.PadBSR(match[1])
	}
	if match := cfg.ChallanNo.FindStringSubmatch(text); len(match) > 1 {
		// Kept as text; leading zeros are part of the serial.
		record.ChallanNo = strings.TrimSpace(match[1])
	}
	if match := cfg.ModeOfPayment.FindStringSubmatch(text); len(match) > 1 {
		record.ModeOfPayment = strings.ToUpper(strings.TrimSpace(match[1]))
	}
	if match := cfg.TenderDate.FindStringSubmatch(text); len(match) > 1 {
		if dt, err := time.ParseInLocation(cfg.DateFormat, match[1], time.Local); err == nil {
			record.TenderDate = &dt
		} else if dt, ok := common.ParseDate(match[1]); ok {
			record.TenderDate = &dt
		}
	}

	taxAmount, taxFound := firstAmount(cfg.TaxAmount, text)
	record.TaxAmount = taxAmount
	record.Surcharge, _ = firstAmount(cfg.Surcharge, text)
	record.Cess, _ = firstAmount(cfg.Cess, text)
	record.Interest, _ = firstAmount(cfg.Interest, text)
	record.Penalty, _ = firstAmount(cfg.Penalty, text)
	record.Fee234E, _ = firstAmount(cfg.Fee234E, text)
	record.TotalAmount, _ = firstAmount(cfg.TotalAmount, text)

	var missing []common.FieldError
	for _, field := range RequiredFields {
		if !fieldPresent(record, field, taxFound) {
			missing = append(missing, common.FieldError{Field: field})
		}
	}

	return record, missing
}

// firstAmount tries an ordered pattern list and parses the first match.
func firstAmount(patterns []*regexp.Regexp, text string) (decimal.Decimal, bool) {
	for _, re := range patterns {
		if match := re.FindStringSubmatch(text); len(match) > 1 {
			amount, err := common.CleanDecimal(match[1])
			if err == nil {
				return amount, true
			}
		}
	}
	return decimal.Zero, false
}

func fieldPresent(record common.Challan, field string, taxFound bool) bool {
	switch field {
	case "tan":
		return record.TAN != ""
	case "nature_of_payment":
		return record.NatureOfPayment != ""
	case "cin":
		return record.CIN != ""
	case "bsr_code":
		return record.BSRCode != ""
	case "challan_no":
		return record.ChallanNo != ""
	case "tax_amount":
		return taxFound
	}
	return true
}
