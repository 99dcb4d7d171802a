package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/erpredict/internal/client"
	"github.com/TimurManjosov/erpredict/internal/inference"
	"github.com/TimurManjosov/erpredict/internal/model"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintPrediction outputs a prediction in the specified format
func PrintPrediction(w io.Writer, p *client.Prediction, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, p)
	case FormatYAML:
		return printYAML(w, p)
	case FormatTable:
		return printPredictionTable(w, p)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintModelInfo outputs model metadata in the specified format
func PrintModelInfo(w io.Writer, info *model.Info, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, info)
	case FormatYAML:
		return printYAML(w, info)
	case FormatTable:
		return printModelTable(w, info)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// printYAML goes through JSON first so both formats share the same keys.
func printYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(generic)
}

func printPredictionTable(w io.Writer, p *client.Prediction) error {
	table := tablewriter.NewWriter(w)
	table.Header("Prediction", "Outcome", "No ER Visit", "ER Visit", "Prediction ID")

	outcome := "no ER visit"
	if p.Prediction == inference.Visit {
		outcome = "ER visit"
	}
	id := p.ID
	if id == "" {
		id = "-"
	}

	table.Append(
		strconv.Itoa(p.Prediction),
		outcome,
		fmt.Sprintf("%.2f%%", p.Probabilities.NoERVisit),
		fmt.Sprintf("%.2f%%", p.Probabilities.ERVisit),
		id,
	)

	return table.Render()
}

func printModelTable(w io.Writer, info *model.Info) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	table.Append("Kind", string(info.Kind))
	if info.Path != "" {
		table.Append("Path", info.Path)
	}
	table.Append("Checksum", info.Checksum)
	table.Append("Trees", strconv.Itoa(info.Trees))
	table.Append("Max depth", strconv.Itoa(info.MaxDepth))
	table.Append("Loaded at", info.LoadedAt.Format("2006-01-02 15:04:05"))
	for i, name := range info.FeatureNames {
		table.Append(fmt.Sprintf("Feature %d", i), name)
	}

	return table.Render()
}
