package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/TimurManjosov/erpredict/internal/client"
	"github.com/TimurManjosov/erpredict/internal/features"
	"github.com/TimurManjosov/erpredict/internal/inference"
	"github.com/TimurManjosov/erpredict/internal/model"
)

// ReadPayload reads a request body from path, or from stdin when path is "-".
func ReadPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

// PredictLocal scores payload against an artifact on disk, running the same
// validation and mapping as the service.
func PredictLocal(ctx context.Context, modelPath string, payload []byte, strict bool) (*client.Prediction, []features.Warning, error) {
	m, err := model.LoadModel(model.KindCatBoostJSON, modelPath)
	if err != nil {
		return nil, nil, err
	}
	if err := features.CheckCompatible(m.FeatureNames()); err != nil {
		return nil, nil, err
	}

	p, err := features.DecodePayload(bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	row, warnings, err := features.NewMapper(features.Options{StrictCategoricals: strict}).Assemble(p)
	if err != nil {
		return nil, nil, err
	}

	inv, err := inference.NewInvoker(m)
	if err != nil {
		return nil, nil, err
	}
	res, err := inv.Predict(ctx, row)
	if err != nil {
		return nil, nil, err
	}
	return &client.Prediction{Result: res}, warnings, nil
}
