package cmd

import (
	"sauto-parser/internal"

	"github.com/spf13/cobra"
)

func init() {
	scrapeCmd.Flags().String("filter", "", "YAML search filter file (default: $SAUTO_FILTER_FILE)")
	scrapeCmd.Flags().Int("max-pages", -1, "stop after this many search pages, 0 for no limit (default: $SAUTO_MAX_PAGES)")
	scrapeCmd.Flags().Int("workers", 0, "number of detail pages fetched concurrently (default: $SAUTO_WORKERS)")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Enumerate adverts matching the filter, extract every detail page and print the table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		filter, _ := cmd.Flags().GetString("filter")
		maxPages, _ := cmd.Flags().GetInt("max-pages")
		workers, _ := cmd.Flags().GetInt("workers")

		app, err := internal.NewApp(internal.Options{
			EnvFile:    envFile,
			FilterFile: filter,
			Format:     format,
			MaxPages:   maxPages,
			Workers:    workers,
			Out:        cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		return app.RunScrape(cmd.Context())
	},
}
