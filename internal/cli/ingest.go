package cli

import (
	"github.com/spf13/cobra"

	"github.com/okian/draftboard/internal/app"
)

// IngestCmd returns the ingest command.
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Capture the current league standings into the raw store",
		Long: `Fetch the league details once, stamp every standings row with the capture
time and append them to the raw snapshot table. Entry names are upserted.
Re-running within the same second stores nothing new.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := bootstrap(ctx, "ingest")
			if err != nil {
				return err
			}
			defer e.push(ctx, "draftboard_ingest")

			client, err := e.client()
			if err != nil {
				return err
			}
			store, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer e.closeStore(ctx, store)

			report, err := app.Capture(ctx, client, store)
			if err != nil {
				return err
			}
			printIngest(cmd.OutOrStdout(), report)
			return nil
		},
	}
}
