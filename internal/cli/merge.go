package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/draftboard/internal/app"
)

// MergeCmd returns the merge command.
func MergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Append enriched standings for snapshots newer than the watermark",
		Long: `Read raw snapshots newer than the enriched store's watermark, assign each to
its gameweek, classify rank movement, keep the latest observation per entry
per gameweek and append the result in one transaction.

Gameweek boundaries are fetched from the upstream API. Snapshots before the
first gameweek are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := bootstrap(ctx, "merge")
			if err != nil {
				return err
			}
			defer e.push(ctx, "draftboard_merge")

			client, err := e.client()
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(ctx, store)

			report, err := app.NewEngine(store, client, store).Merge(ctx)
			if err != nil {
				return err
			}
			printMerge(cmd.OutOrStdout(), report)
			return nil
		},
	}
}
