// Package recon cross-checks the TDS amounts recorded in the Masters
// workbook against the amounts actually deposited per the bank challans,
// section by section.
package recon

import (
	"log"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/sahajtax/tdsret/extractor/common"
	"github.com/sahajtax/tdsret/masters"
)

// Discrepancy is one section whose deducted and deposited totals differ
// beyond tolerance. A section present on only one side reports the full
// amount as the delta.
type Discrepancy struct {
	Section      string          `json:"section"`
	MastersTotal decimal.Decimal `json:"masters_total"`
	ChallanTotal decimal.Decimal `json:"challan_total"`
	Delta        decimal.Decimal `json:"delta"`
}

// Result is the outcome of one validation pass. Totals for every section
// are kept so the caller can report matches as well as mismatches.
type Result struct {
	Passed        bool                       `json:"passed"`
	Tolerance     decimal.Decimal            `json:"tolerance"`
	MastersTotals map[string]decimal.Decimal `json:"masters_totals"`
	ChallanTotals map[string]decimal.Decimal `json:"challan_totals"`
	Discrepancies []Discrepancy              `json:"discrepancies,omitempty"`
}

// DefaultTolerance reads the configured rupee tolerance. Challan amounts
// are deposited in whole rupees while deductions carry paise, so the
// default allows the totals to differ by up to one rupee per section.
func DefaultTolerance() decimal.Decimal {
	configured := viper.GetString("recon.tolerance")
	if configured == "" {
		return decimal.NewFromInt(1)
	}
	tolerance, err := decimal.NewFromString(configured)
	if err != nil {
		log.Printf("WARN invalid recon.tolerance %q, using 1", configured)
		return decimal.NewFromInt(1)
	}
	return tolerance
}

// MastersTotalsBySection sums the TDS Amount column of the deductee
// table, grouped by normalized section code. Rows without a parsed
// amount contribute nothing.
func MastersTotalsBySection(parties *masters.Table) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	if parties == nil {
		return totals
	}
	for _, row := range parties.Rows {
		section := common.NormalizeSection(row.Cell("(415A)").Raw)
		if section == "" {
			continue
		}
		amount := row.Cell("(421)").Amount
		if amount == nil {
			continue
		}
		totals[section] = totals[section].Add(*amount)
	}
	return totals
}

// ChallanTotalsBySection sums deposited tax amounts grouped by the
// challan's nature of payment.
func ChallanTotalsBySection(challans []common.Challan) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, c := range challans {
		section := common.NormalizeSection(c.NatureOfPayment)
		if section == "" {
			continue
		}
		totals[section] = totals[section].Add(c.TaxAmount)
	}
	return totals
}

// Validate compares the two total sets. The check is symmetric: a
// section deducted but never deposited fails exactly like a deposit with
// no matching deduction.
func Validate(parties *masters.Table, challans []common.Challan, tolerance decimal.Decimal) Result {
	result := Result{
		Tolerance:     tolerance,
		MastersTotals: MastersTotalsBySection(parties),
		ChallanTotals: ChallanTotalsBySection(challans),
	}

	sections := make(map[string]bool)
	for section := range result.MastersTotals {
		sections[section] = true
	}
	for section := range result.ChallanTotals {
		sections[section] = true
	}

	ordered := make([]string, 0, len(sections))
	for section := range sections {
		ordered = append(ordered, section)
	}
	sort.Strings(ordered)

	for _, section := range ordered {
		deducted := result.MastersTotals[section]
		deposited := result.ChallanTotals[section]
		delta := deducted.Sub(deposited).Abs()
		if delta.GreaterThan(tolerance) {
			result.Discrepancies = append(result.Discrepancies, Discrepancy{
				Section:      section,
				MastersTotal: deducted,
				ChallanTotal: deposited,
				Delta:        delta,
			})
		}
	}

	result.Passed = len(result.Discrepancies) == 0

	if result.Passed {
		log.Printf("Reconciliation passed across %d sections", len(ordered))
	} else {
		for _, d := range result.Discrepancies {
			log.Printf("WARN section %s: deducted %s, deposited %s, delta %s",
				d.Section, d.MastersTotal, d.ChallanTotal, d.Delta)
		}
	}

	return result
}
