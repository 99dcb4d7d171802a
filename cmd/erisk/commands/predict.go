package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/erpredict/internal/cli"
	"github.com/TimurManjosov/erpredict/internal/client"
)

var (
	predictModel  string
	predictStrict bool
)

var predictCmd = &cobra.Command{
	Use:   "predict <payload.json|->",
	Short: "Score a patient payload",
	Long: `Score a JSON patient payload. The payload is sent to the prediction service
unless --model points at a local artifact, in which case it is scored in-process
with the same validation rules.

Examples:
  erisk predict patient.json
  erisk predict - < patient.json
  erisk predict patient.json --model catboost_er_model.json --strict`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := cli.ReadPayload(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		var prediction *client.Prediction
		if predictModel != "" {
			p, warnings, err := cli.PredictLocal(ctx, predictModel, payload, predictStrict)
			if err != nil {
				return fmt.Errorf("local prediction failed: %w", err)
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s %s\n", w.Field, w.Reason)
			}
			prediction = p
		} else {
			c, err := newClient()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			prediction, err = c.Predict(ctx, payload)
			if err != nil {
				return fmt.Errorf("prediction failed: %w", err)
			}
		}

		if quiet {
			return nil
		}
		return cli.PrintPrediction(cmd.OutOrStdout(), prediction, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictModel, "model", "", "Score locally against this model artifact")
	predictCmd.Flags().BoolVar(&predictStrict, "strict", false, "Reject unrecognized categorical values (local scoring only)")
}
