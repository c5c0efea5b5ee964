package cli

import "github.com/spf13/cobra"

// RootCmd returns the draftboard command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "draftboard",
		Short: "Draftboard - gameweek standings for a draft league",
		Long: `Draftboard captures draft league standings snapshots, assigns them to
gameweeks and keeps one enriched row per entry per gameweek.

Configuration is read from the YAML file named by DRAFTBOARD_CONFIG and from
DRAFTBOARD_* environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(IngestCmd())
	root.AddCommand(MergeCmd())
	root.AddCommand(SyncCmd())
	root.AddCommand(WindowsCmd())
	root.AddCommand(ServeCmd())

	return root
}
