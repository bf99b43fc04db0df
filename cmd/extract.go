package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sahajtax/tdsret/extractor"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts challan receipt(s)",
	Long: `Extracts one challan PDF or a directory of them and prints the
deduplicated records as JSON.`,
	Run: extractHandler,
}

func extractHandler(cmd *cobra.Command, args []string) {
	target := viper.GetString("target")

	result, err := extractor.ExtractPath(target)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("error: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("error: %v", err)
	}
	fmt.Println(string(out))
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("folder", "f", ".", "File or folder in which tdsret will scan for challan PDFs")
	viper.BindPFlag("target", extractCmd.Flags().Lookup("folder"))
}
