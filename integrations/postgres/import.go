package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahajtax/tdsret/extractor/challan"
	"github.com/sahajtax/tdsret/extractor/common"
)

// ImportResult tracks the outcome of an import operation.
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

// ImportOptions configures the import behavior.
type ImportOptions struct {
	Force   bool // Force reprocessing of already-archived challans
	Verbose bool // Enable verbose logging
}

// ImportFile extracts a single challan PDF and stores it in the archive.
// An already-archived challan (same natural key) is skipped unless Force
// is set, in which case the old record is replaced.
func (db *DB) ImportFile(ctx context.Context, filePath string, opts ImportOptions) (processed, skipped, failed int, errors []string) {
	fileName := filepath.Base(filePath)

	rows, err := common.ExtractRowsFromPDF(filePath)
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: failed to read file: %v", fileName, err)}
	}

	record, missing := challan.Extract(filePath, rows)
	if len(missing) > 0 {
		fields := make([]string, 0, len(missing))
		for _, m := range missing {
			fields = append(fields, m.Field)
		}
		return 0, 0, 1, []string{fmt.Sprintf("%s: missing fields: %s", fileName, strings.Join(fields, ", "))}
	}

	exists, existingID, err := db.ChallanExists(ctx, record.Key())
	if err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: check error: %v", fileName, err)}
	}

	if exists {
		if !opts.Force {
			if opts.Verbose {
				log.Printf("Skipping %s: challan %s/%s already archived", fileName, record.BSRCode, record.ChallanNo)
			}
			return 0, 1, 0, nil
		}
		if err := db.DeleteChallan(ctx, existingID); err != nil {
			return 0, 0, 1, []string{fmt.Sprintf("%s: replace error: %v", fileName, err)}
		}
	}

	if _, err := db.CreateChallan(ctx, record); err != nil {
		return 0, 0, 1, []string{fmt.Sprintf("%s: insert error: %v", fileName, err)}
	}

	if opts.Verbose {
		log.Printf("Archived %s: %s %s tax %s", fileName, record.BSRCode, record.ChallanNo, record.TaxAmount)
	}
	return 1, 0, 0, nil
}

// ImportDirectory imports every PDF in a directory, in sorted name order.
func (db *DB) ImportDirectory(ctx context.Context, dir string, opts ImportOptions) (ImportResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var result ImportResult
	for _, name := range names {
		processed, skipped, failed, errs := db.ImportFile(ctx, filepath.Join(dir, name), opts)
		result.Processed += processed
		result.Skipped += skipped
		result.Failed += failed
		result.Errors = append(result.Errors, errs...)
	}

	log.Printf("Import complete: %d archived, %d skipped, %d failed",
		result.Processed, result.Skipped, result.Failed)
	return result, nil
}

// Import archives a single PDF or a directory of PDFs.
func (db *DB) Import(ctx context.Context, path string, opts ImportOptions) (ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, path, opts)
	}

	var result ImportResult
	result.Processed, result.Skipped, result.Failed, result.Errors = db.ImportFile(ctx, path, opts)
	return result, nil
}
