package cli

import (
	"github.com/spf13/cobra"

	"github.com/andy/docket/internal/app"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "docket",
	Short: "A billable-hours timer for attorneys",
	Long: `Docket tracks billable time against clients and matters, rounding up
to the tenth of an hour the way legal invoices expect.

By default, running docket without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(mattersCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(secretsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
}
