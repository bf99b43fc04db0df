// Package pipeline sequences one processing run: read the Masters
// workbook, extract and deduplicate the challan PDFs, reconcile the two,
// and merge into the output template. The run either completes or stops
// at the validation gate; no step's internal error escapes unclassified.
package pipeline

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/sahajtax/tdsret/extractor"
	"github.com/sahajtax/tdsret/masters"
	"github.com/sahajtax/tdsret/recon"
	"github.com/sahajtax/tdsret/writer"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusDone             Status = "done"
	StatusDoneWithWarnings Status = "done_with_warnings"
	StatusAborted          Status = "aborted"
	StatusFailed           Status = "failed"
)

// Options configure one run. Sources overrides ChallanDir when set, so
// callers holding already-extracted text (the HTTP API, tests) skip the
// filesystem.
type Options struct {
	MastersPath  string
	TemplatePath string
	OutputDir    string
	ChallanDir   string
	Sources      []extractor.Source

	// ProceedOnMismatch merges despite a failed reconciliation. The
	// discrepancies are still reported as warnings.
	ProceedOnMismatch bool
}

// Outcome is the single structured result of a run.
type Outcome struct {
	Status     Status                `json:"status"`
	Error      string                `json:"error,omitempty"`
	Batch      extractor.BatchResult `json:"batch"`
	Recon      *recon.Result         `json:"recon,omitempty"`
	OutputPath string                `json:"output_path,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

func failed(outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Error = err.Error()
	log.Println("ERROR", err)
	return outcome
}

// Run executes the full pipeline synchronously.
func Run(opts Options) Outcome {
	var outcome Outcome

	data, err := masters.ReadMasters(opts.MastersPath)
	if err != nil {
		return failed(outcome, fmt.Errorf("masters read: %w", err))
	}
	for _, warning := range data.Warnings {
		outcome.Warnings = append(outcome.Warnings, warning.String())
	}
	if data.TDSParties == nil || len(data.TDSParties.Rows) == 0 {
		return failed(outcome, fmt.Errorf("masters read: no deductee rows in %s", masters.SheetTDSParties))
	}

	sources := opts.Sources
	if sources == nil {
		sources, err = extractor.SourcesFromDirectory(opts.ChallanDir)
		if err != nil {
			return failed(outcome, fmt.Errorf("challan scan: %w", err))
		}
	}
	if len(sources) == 0 {
		return failed(outcome, fmt.Errorf("challan scan: no PDF files to process"))
	}

	outcome.Batch = extractor.ExtractAll(sources)
	for _, failure := range outcome.Batch.Failures {
		outcome.Warnings = append(outcome.Warnings, "extraction failed for "+failure.File)
	}
	if len(outcome.Batch.Challans) == 0 {
		return failed(outcome, fmt.Errorf("extraction: no usable challan records"))
	}

	result := recon.Validate(data.TDSParties, outcome.Batch.Challans, recon.DefaultTolerance())
	outcome.Recon = &result
	if !result.Passed {
		if !opts.ProceedOnMismatch {
			outcome.Status = StatusAborted
			outcome.Error = fmt.Sprintf("reconciliation failed for %d section(s)", len(result.Discrepancies))
			log.Println("Aborted:", outcome.Error)
			return outcome
		}
		for _, d := range result.Discrepancies {
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("section %s off by %s (deducted %s, deposited %s)",
					d.Section, d.Delta, d.MastersTotal, d.ChallanTotal))
		}
	}

	w, err := writer.Open(opts.TemplatePath)
	if err != nil {
		return failed(outcome, fmt.Errorf("template open: %w", err))
	}
	defer w.Close()

	if err := w.Populate(data, outcome.Batch.Challans); err != nil {
		return failed(outcome, fmt.Errorf("merge: %w", err))
	}

	outcome.OutputPath = filepath.Join(opts.OutputDir, outputFileName(data.TDSParties, time.Now()))
	if err := w.SaveAs(outcome.OutputPath); err != nil {
		return failed(outcome, fmt.Errorf("output write: %w", err))
	}

	outcome.Status = StatusDone
	if len(outcome.Warnings) > 0 {
		outcome.Status = StatusDoneWithWarnings
	}
	return outcome
}

// outputFileName derives TDS_{Month}_{Year}.xlsx from the earliest Date
// of Payment across the deductee rows, falling back to the current date
// when no row carries one.
func outputFileName(parties *masters.Table, now time.Time) string {
	earliest := time.Time{}
	for _, row := range parties.Rows {
		paid := row.Cell("(418)").Time
		if paid == nil {
			continue
		}
		if earliest.IsZero() || paid.Before(earliest) {
			earliest = *paid
		}
	}
	if earliest.IsZero() {
		earliest = now
	}
	return fmt.Sprintf("TDS_%s_%d.xlsx", earliest.Month().String(), earliest.Year())
}
