package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Embedded default configuration (from .tdsret.yaml)
const defaultConfigYAML = `
challan:
  date_format: "02/01/2006"
  patterns:
    tan: 'TAN\s*:\s*([A-Z0-9]+)'
    nature_of_payment: 'Nature of Payment\s*:\s*(\d+\s?[A-Z])'
    cin: 'CIN\s*:\s*([A-Z0-9]+)'
    bsr_code: 'BSR code\s*:\s*(\d+)'
    challan_no: 'Challan No\s*:\s*(\d+)'
    tender_date: 'Tender Date\s*:\s*(\d{2}/\d{2}/\d{4})'
    mode_of_payment: 'Mode of Payment\s*:\s*([^\n]+)'
    tax_amount:
      - 'A\s+Tax\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Tax\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
    surcharge:
      - 'B\s+Surcharge\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Surcharge\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
    cess:
      - 'C\s+Cess\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Cess\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
    interest:
      - 'D\s+Interest\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Interest\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
    penalty:
      - 'E\s+Penalty\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Penalty\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
    fee_234e:
      - 'F\s+Fee under section 234E\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Fee under section 234E\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
    total_amount:
      - 'Total \(A\+B\+C\+D\+E\+F\)\s+₹\s*([\d,]+(?:\.\d+)?)'
      - 'Total\s+Rs\.?\s*([\d,]+(?:\.\d+)?)'
recon:
  tolerance: "1"
writer:
  challan_totals_row: 8
  deductee_totals_row: 55`

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "tdsret [filename]",
		Short: "TDS challan extraction and return preparation",
		Long: `tdsret extracts ITNS-281 challan receipts, reconciles them against a
TDS Masters workbook and merges the result into the quarterly return template.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				viper.Set("target", args[0])
				extractHandler(extractCmd, []string{})
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.tdsret.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	if !verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetFlags(log.Ltime | log.Lmsgprefix)
		log.SetPrefix("INFO: ")
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".tdsret")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, use embedded default configuration
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Printf("Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}
