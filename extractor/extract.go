// Package extractor runs challan extraction over batches of PDF sources
// and collapses duplicate receipts by their natural key.
package extractor

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahajtax/tdsret/extractor/challan"
	"github.com/sahajtax/tdsret/extractor/common"
)

// Source is one challan's text, however it was obtained. The batch step
// only needs a name for reporting and the extracted rows.
type Source interface {
	Name() string
	Rows() ([]string, error)
}

// FileSource reads a PDF from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return s.Path }

func (s FileSource) Rows() ([]string, error) {
	return common.ExtractRowsFromPDF(s.Path)
}

// TextSource carries pre-extracted rows, used by the HTTP API and tests.
type TextSource struct {
	SourceName string
	TextRows   []string
}

func (s TextSource) Name() string            { return s.SourceName }
func (s TextSource) Rows() ([]string, error) { return s.TextRows, nil }

// FileFailure records a source that could not produce a usable challan.
// Failures never abort the batch; they are reported in aggregate.
type FileFailure struct {
	File    string             `json:"file"`
	Missing []common.FieldError `json:"missing,omitempty"`
	Err     string             `json:"error,omitempty"`
}

// BatchResult is the outcome of extracting and deduplicating one batch.
// FilesScanned and len(Challans) may legitimately differ: duplicate
// receipts are expected when files are re-uploaded.
type BatchResult struct {
	Challans     []common.Challan `json:"challans"`
	Failures     []FileFailure    `json:"failures,omitempty"`
	FilesScanned int              `json:"files_scanned"`
}

// UniqueCount returns the number of deduplicated challans.
func (r BatchResult) UniqueCount() int { return len(r.Challans) }

// SourcesFromDirectory lists the PDF files of a directory as sources in
// sorted name order, so the first-seen dedup rule is stable across runs.
func SourcesFromDirectory(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read challan directory: %w", err)
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

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, FileSource{Path: filepath.Join(dir, name)})
	}
	return sources, nil
}

// ExtractAll extracts every source independently and keeps exactly one
// record per natural key, first seen wins. A source failing required
// fields is recorded and skipped.
func ExtractAll(sources []Source) BatchResult {
	result := BatchResult{FilesScanned: len(sources)}
	seen := make(map[common.ChallanKey]common.Challan)

	for _, src := range sources {
		rows, err := src.Rows()
		if err != nil {
			result.Failures = append(result.Failures, FileFailure{File: src.Name(), Err: err.Error()})
			continue
		}

		record, missing := challan.Extract(src.Name(), rows)
		if len(missing) > 0 {
			result.Failures = append(result.Failures, FileFailure{File: src.Name(), Missing: missing})
			continue
		}

		key := record.Key()
		if existing, dup := seen[key]; dup {
			// Same physical challan re-scanned or re-uploaded. Dropped, not
			// merged; a differing tax amount on the same key is worth a look.
			if !existing.TaxAmount.Equal(record.TaxAmount) {
				log.Printf("WARN duplicate challan %s/%s has different tax amounts: %s vs %s (%s, %s)",
					key.BSRCode, key.ChallanNo,
					existing.TaxAmount, record.TaxAmount,
					existing.Source, record.Source)
			}
			continue
		}

		seen[key] = record
		result.Challans = append(result.Challans, record)
	}

	log.Printf("Processed %d files, %d unique challans, %d failures",
		result.FilesScanned, len(result.Challans), len(result.Failures))

	return result
}

// ExtractPath runs a batch over a single PDF or a directory of PDFs.
func ExtractPath(path string) (BatchResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to stat path: %w", err)
	}

	var sources []Source
	if info.IsDir() {
		log.Println("Scanning", path)
		sources, err = SourcesFromDirectory(path)
		if err != nil {
			return BatchResult{}, err
		}
	} else {
		sources = []Source{FileSource{Path: path}}
	}

	return ExtractAll(sources), nil
}
