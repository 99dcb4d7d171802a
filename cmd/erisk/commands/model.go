package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/erpredict/internal/cli"
	"github.com/TimurManjosov/erpredict/internal/features"
	"github.com/TimurManjosov/erpredict/internal/model"
)

var modelRemote bool

var modelCmd = &cobra.Command{
	Use:   "model [artifact]",
	Short: "Inspect a model artifact",
	Long: `Show checksum, tree count and feature schema of a model artifact on disk,
or of the model served by the prediction service with --remote.

Examples:
  erisk model catboost_er_model.json
  erisk model --remote --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var info *model.Info

		switch {
		case modelRemote:
			c, err := newClient()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			info, err = c.ModelInfo(ctx)
			if err != nil {
				return fmt.Errorf("failed to get model info: %w", err)
			}

		case len(args) == 1:
			m, err := model.LoadModel(model.KindCatBoostJSON, args[0])
			if err != nil {
				return err
			}
			if err := features.CheckCompatible(m.FeatureNames()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			i := m.Info()
			info = &i

		default:
			return fmt.Errorf("an artifact path or --remote is required")
		}

		if quiet {
			return nil
		}
		return cli.PrintModelInfo(cmd.OutOrStdout(), info, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)

	modelCmd.Flags().BoolVar(&modelRemote, "remote", false, "Inspect the model loaded by the service")
}
