package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the prediction service is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := c.Health(ctx); err != nil {
			return fmt.Errorf("service unhealthy: %w", err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", c.BaseURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
