package cmd

import (
	"sauto-parser/internal"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(drainCmd)
}

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Consume published records from RabbitMQ and print them as a table on Ctrl+C.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		app, err := internal.NewApp(internal.Options{
			EnvFile:  envFile,
			Format:   format,
			MaxPages: -1,
			Out:      cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		return app.RunDrain(cmd.Context())
	},
}
