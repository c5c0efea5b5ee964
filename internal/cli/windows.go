package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/draftboard/internal/domain/window"
)

// WindowsCmd returns the windows command.
func WindowsCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Print the gameweek catalog",
		Long: `Fetch the gameweek deadlines, build the window catalog and print each window
with its half-open span. The window containing --at (default: now) is marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ts := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				ts = parsed
			}

			e, err := bootstrap(ctx, "windows")
			if err != nil {
				return err
			}
			client, err := e.client()
			if err != nil {
				return err
			}
			bounds, err := client.Boundaries(ctx)
			if err != nil {
				return err
			}
			catalog, err := window.Build(bounds)
			if err != nil {
				return err
			}
			printWindows(cmd.OutOrStdout(), catalog, ts)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Timestamp to resolve (RFC3339)")

	return cmd
}
