package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/erpredict/internal/cli"
	"github.com/TimurManjosov/erpredict/internal/client"
)

var (
	// Global flags
	baseURL string
	profile string
	format  string
	timeout time.Duration
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "erisk",
	Short: "CLI tool for ER visit risk predictions",
	Long: `erisk scores patient payloads against the ER visit prediction service,
or directly against a model artifact on disk.

Examples:
  erisk health
  erisk predict patient.json
  cat patient.json | erisk predict - --format json
  erisk predict patient.json --model catboost_er_model.json
  erisk model catboost_er_model.json
  erisk model --remote`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the prediction service")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Service profile from the config file")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}

// newClient resolves the service address and builds an API client.
func newClient() (*client.Client, error) {
	url, err := cli.ResolveBaseURL(profile, baseURL)
	if err != nil {
		return nil, err
	}
	c := client.NewClient(url)
	c.HTTPClient.Timeout = timeout
	return c, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
