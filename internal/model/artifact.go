// Package model loads pretrained gradient-boosted tree classifiers from disk
// and evaluates them.
//
// The supported artifact is the JSON export of a CatBoost binary classifier
// (model.save_model(path, format="json")). A loaded *Model is immutable and
// safe for concurrent use.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// artifact mirrors the subset of the CatBoost JSON export the evaluator needs.
type artifact struct {
	ModelInfo      map[string]any  `json:"model_info"`
	FeaturesInfo   featuresInfo    `json:"features_info"`
	ObliviousTrees []obliviousTree `json:"oblivious_trees"`
	ScaleAndBias   json.RawMessage `json:"scale_and_bias"`
}

type featuresInfo struct {
	FloatFeatures []floatFeature `json:"float_features"`
}

type floatFeature struct {
	FeatureIndex     int       `json:"feature_index"`
	FlatFeatureIndex int       `json:"flat_feature_index"`
	FeatureID        string    `json:"feature_id"`
	Borders          []float64 `json:"borders"`
}

type obliviousTree struct {
	Splits     []split   `json:"splits"`
	LeafValues []float64 `json:"leaf_values"`
}

type split struct {
	FloatFeatureIndex int     `json:"float_feature_index"`
	Border            float64 `json:"border"`
	SplitType         string  `json:"split_type"`
}

const floatFeatureSplit = "FloatFeature"

// parseScaleAndBias accepts both layouts CatBoost has used:
// [scale, bias] and [scale, [bias, ...]].
func parseScaleAndBias(raw json.RawMessage) (scale, bias float64, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 1, 0, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return 0, 0, fmt.Errorf("scale_and_bias: %w", err)
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("scale_and_bias: expected 2 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &scale); err != nil {
		return 0, 0, fmt.Errorf("scale_and_bias: scale: %w", err)
	}

	var scalar float64
	if err := json.Unmarshal(parts[1], &scalar); err == nil {
		return scale, scalar, nil
	}
	var vector []float64
	if err := json.Unmarshal(parts[1], &vector); err != nil {
		return 0, 0, fmt.Errorf("scale_and_bias: bias: %w", err)
	}
	switch len(vector) {
	case 0:
		return scale, 0, nil
	case 1:
		return scale, vector[0], nil
	default:
		return 0, 0, errors.New("scale_and_bias: multi-dimensional bias is not supported (binary classifiers only)")
	}
}
