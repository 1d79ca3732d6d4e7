package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"render-queue/internal/diagnostics"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the blender executable and output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			report := diagnostics.NewChecker().Run(settings)
			for _, item := range report.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", item.Status, item.Name, item.Message)
				if item.Hint != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "       %s\n", item.Hint)
				}
			}

			if report.HasFailures {
				return fmt.Errorf("diagnostics reported failures")
			}
			return nil
		},
	}
}
