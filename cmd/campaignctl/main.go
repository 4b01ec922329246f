package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "campaignctl",
		Short: "Campaign document maintenance tool",
		Long: `campaignctl inspects and maintains campaign landing page documents.

Normalize or render a stored blocks payload offline, or migrate the
documents stored in the database to the current schema.`,
		Version:       config.VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.NewNormalizeCmd())
	rootCmd.AddCommand(cli.NewRenderCmd())
	rootCmd.AddCommand(cli.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
