// Command claimsportal is a terminal dashboard for payor claim review.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/claims-portal/internal/model"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "claimsportal",
		Short: "Review and monitor insurance claims from the terminal",
		Long: `claimsportal signs a payor in to the claims service and keeps a live
dashboard of their claims. New claims and status changes are surfaced
as notifications while the dashboard is open.

Run without arguments to start the interactive dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWatchCmd(),
		newConfigCmd(),
	)
	return root
}
