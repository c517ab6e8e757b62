package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "sauto-parser",
	Short:        "sauto-parser collects used-car adverts from sauto.cz into a table.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().String("format", "", "output format: table, csv, markdown or html (default: $OUTPUT_FORMAT)")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
