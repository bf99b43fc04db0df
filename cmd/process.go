package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sahajtax/tdsret/pipeline"
)

var (
	processMasters  string
	processTemplate string
	processPDFs     string
	processOutput   string
	processProceed  bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full return-preparation pipeline",
	Long: `Reads the TDS Masters workbook, extracts and deduplicates the challan
PDFs, reconciles deducted against deposited amounts per section, and on a
pass merges everything into the output template.

The run aborts at the reconciliation gate on a mismatch unless
--proceed-on-mismatch is set.

Examples:
  tdsret process -m Masters.xlsx -t Template.xlsx -p ./challans -o ./out
  tdsret process -m Masters.xlsx -t Template.xlsx -p ./challans --proceed-on-mismatch`,
	Run: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stdout)
		log.SetFlags(log.Ltime | log.Lmsgprefix)

		outcome := pipeline.Run(pipeline.Options{
			MastersPath:       processMasters,
			TemplatePath:      processTemplate,
			ChallanDir:        processPDFs,
			OutputDir:         processOutput,
			ProceedOnMismatch: processProceed,
		})

		fmt.Printf("\nStatus: %s\n", outcome.Status)
		fmt.Printf("Files scanned: %d, unique challans: %d, failures: %d\n",
			outcome.Batch.FilesScanned, outcome.Batch.UniqueCount(), len(outcome.Batch.Failures))

		if outcome.Recon != nil {
			if outcome.Recon.Passed {
				fmt.Println("Reconciliation: PASSED")
			} else {
				fmt.Println("Reconciliation: FAILED")
				for _, d := range outcome.Recon.Discrepancies {
					fmt.Printf("  section %s: deducted %s, deposited %s (delta %s)\n",
						d.Section, d.MastersTotal, d.ChallanTotal, d.Delta)
				}
			}
		}

		for _, warning := range outcome.Warnings {
			fmt.Println("  warning:", warning)
		}

		switch outcome.Status {
		case pipeline.StatusDone, pipeline.StatusDoneWithWarnings:
			fmt.Println("Output:", outcome.OutputPath)
		case pipeline.StatusAborted:
			fmt.Println("No output written:", outcome.Error)
			os.Exit(1)
		case pipeline.StatusFailed:
			fmt.Println("Failed:", outcome.Error)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&processMasters, "masters", "m", "", "Path to the TDS Masters workbook (required)")
	processCmd.Flags().StringVarP(&processTemplate, "template", "t", "", "Path to the output template workbook (required)")
	processCmd.Flags().StringVarP(&processPDFs, "pdfs", "p", "", "Directory of challan PDFs (required)")
	processCmd.Flags().StringVarP(&processOutput, "output", "o", ".", "Directory for the generated return file")
	processCmd.Flags().BoolVar(&processProceed, "proceed-on-mismatch", false, "Merge even when reconciliation fails")

	processCmd.MarkFlagRequired("masters")
	processCmd.MarkFlagRequired("template")
	processCmd.MarkFlagRequired("pdfs")
}
