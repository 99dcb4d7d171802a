package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "testdata/er_model.json"

// vector builds a 17-column vector with the columns the fixture splits on.
func vector(age, hba1c, erVisits float64) []float64 {
	v := make([]float64, 17)
	v[1] = age
	v[3] = hba1c
	v[5] = erVisits
	return v
}

func TestLoad_Fixture(t *testing.T) {
	m, err := Load(fixturePath)
	require.NoError(t, err)

	assert.Equal(t, 17, m.NumFeatures())

	info := m.Info()
	assert.Equal(t, KindCatBoostJSON, info.Kind)
	assert.Equal(t, fixturePath, info.Path)
	assert.Equal(t, 2, info.Trees)
	assert.Equal(t, 2, info.MaxDepth)
	assert.Len(t, info.Checksum, 16)
	assert.Equal(t, "Gender", info.FeatureNames[0])
	assert.Equal(t, "Diastolic_BP_Avg", info.FeatureNames[16])
	assert.False(t, info.LoadedAt.IsZero())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "expected not-exist error, got %v", err)
}

func TestParse_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `catboost binary`},
		{"no trees", `{"features_info":{"float_features":[]},"oblivious_trees":[]}`},
		{"leaf count", `{"features_info":{"float_features":[{"feature_index":0,"flat_feature_index":0}]},
			"oblivious_trees":[{"splits":[{"float_feature_index":0,"border":1,"split_type":"FloatFeature"}],"leaf_values":[1]}]}`},
		{"undeclared feature", `{"features_info":{"float_features":[{"feature_index":0,"flat_feature_index":0}]},
			"oblivious_trees":[{"splits":[{"float_feature_index":3,"border":1}],"leaf_values":[1,2]}]}`},
		{"ctr split", `{"features_info":{"float_features":[{"feature_index":0,"flat_feature_index":0}]},
			"oblivious_trees":[{"splits":[{"float_feature_index":0,"border":1,"split_type":"OnlineCtr"}],"leaf_values":[1,2]}]}`},
		{"multiclass bias", `{"features_info":{"float_features":[{"feature_index":0,"flat_feature_index":0}]},
			"oblivious_trees":[{"splits":[],"leaf_values":[1]}],"scale_and_bias":[1,[0,1,2]]}`},
		{"duplicate feature", `{"features_info":{"float_features":[{"feature_index":0,"flat_feature_index":0},{"feature_index":0,"flat_feature_index":1}]},
			"oblivious_trees":[{"splits":[],"leaf_values":[1]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptArtifact)
		})
	}
}

func TestLoadModel_UnsupportedKind(t *testing.T) {
	_, err := LoadModel("onnx", fixturePath)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	m, err := LoadModel("", fixturePath)
	require.NoError(t, err)
	assert.Equal(t, KindCatBoostJSON, m.Info().Kind)
}

func TestRawScore(t *testing.T) {
	m, err := Load(fixturePath)
	require.NoError(t, err)

	tests := []struct {
		name     string
		features []float64
		want     float64
	}{
		{"visit history, young, normal hba1c", vector(45, 6.1, 1), 1.5 - 0.5},
		{"no visits, old, high hba1c", vector(60, 7.0, 0), -1.0 + 1.0},
		{"visits, old, normal hba1c", vector(60, 6.0, 2), 1.5 + 0.3},
		{"no visits, young, high hba1c", vector(40, 7.0, 0), -1.0 + 0.4},
		{"border goes left", vector(50, 6.5, 0.5), -1.0 - 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.RawScore(tt.features)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPredictProba(t *testing.T) {
	m, err := Load(fixturePath)
	require.NoError(t, err)

	probs, err := m.PredictProba(vector(45, 6.1, 1))
	require.NoError(t, err)
	require.Len(t, probs, 2)

	want := 1 / (1 + math.Exp(-1))
	assert.InDelta(t, want, probs[1], 1e-12)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-12)

	label, err := m.Predict(vector(45, 6.1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestPredict_ThresholdIsStrict(t *testing.T) {
	m, err := Load(fixturePath)
	require.NoError(t, err)

	// raw score of exactly 0 -> P = 0.5 -> class 0
	label, err := m.Predict(vector(60, 7.0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestPredict_ShortVector(t *testing.T) {
	m, err := Load(fixturePath)
	require.NoError(t, err)

	_, err = m.PredictProba([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrFeatureCount)

	_, err = m.Predict(nil)
	assert.ErrorIs(t, err, ErrFeatureCount)
}

func TestParseScaleAndBias(t *testing.T) {
	tests := []struct {
		raw       string
		wantScale float64
		wantBias  float64
		wantErr   bool
	}{
		{``, 1, 0, false},
		{`null`, 1, 0, false},
		{`[1, 0.25]`, 1, 0.25, false},
		{`[2, [0.5]]`, 2, 0.5, false},
		{`[1, []]`, 1, 0, false},
		{`[1]`, 0, 0, true},
		{`"x"`, 0, 0, true},
	}

	for _, tt := range tests {
		scale, bias, err := parseScaleAndBias([]byte(tt.raw))
		if tt.wantErr {
			assert.Error(t, err, "raw=%q", tt.raw)
			continue
		}
		require.NoError(t, err, "raw=%q", tt.raw)
		assert.Equal(t, tt.wantScale, scale)
		assert.Equal(t, tt.wantBias, bias)
	}
}
