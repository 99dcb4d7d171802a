package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies an artifact format.
type Kind string

const (
	// KindCatBoostJSON is a CatBoost binary classifier exported as JSON.
	KindCatBoostJSON Kind = "catboost_json"
)

// maxTreeDepth bounds the leaf table size of a single oblivious tree.
const maxTreeDepth = 16

var (
	// ErrUnsupportedKind is returned by LoadModel for unknown artifact kinds.
	ErrUnsupportedKind = errors.New("unsupported model kind")
	// ErrCorruptArtifact wraps every decoding or structural problem in an artifact.
	ErrCorruptArtifact = errors.New("corrupt model artifact")
	// ErrFeatureCount is returned when a feature vector is too short for the model.
	ErrFeatureCount = errors.New("feature vector length mismatch")
)

// Classifier is a binary probabilistic classifier over a dense feature vector.
type Classifier interface {
	// NumFeatures is the minimum feature vector length the classifier accepts.
	NumFeatures() int
	// PredictProba returns [P(class 0), P(class 1)].
	PredictProba(features []float64) ([]float64, error)
	// Predict returns the predicted class label (0 or 1).
	Predict(features []float64) (int, error)
}

// Model is a loaded oblivious-tree ensemble.
type Model struct {
	kind         Kind
	path         string
	checksum     uint64
	loadedAt     time.Time
	trees        []tree
	scale        float64
	bias         float64
	featureNames []string
}

// tree is an oblivious tree: every level splits on one (column, border) pair
// and the leaf index is the bitmask of the level outcomes.
type tree struct {
	columns []int
	borders []float64
	leaves  []float64
}

var _ Classifier = (*Model)(nil)

// LoadModel loads an artifact of the given kind. An empty kind defaults to
// KindCatBoostJSON.
func LoadModel(kind Kind, path string) (*Model, error) {
	switch kind {
	case KindCatBoostJSON, "":
		return Load(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

// Load reads and decodes a CatBoost JSON artifact from path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.path = path
	return m, nil
}

// Parse decodes a CatBoost JSON artifact held in memory.
func Parse(data []byte) (*Model, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}

	m, err := compile(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	m.kind = KindCatBoostJSON
	m.checksum = xxhash.Sum64(data)
	m.loadedAt = time.Now().UTC()
	return m, nil
}

func compile(a artifact) (*Model, error) {
	if len(a.ObliviousTrees) == 0 {
		return nil, errors.New("artifact has no oblivious_trees")
	}

	// float_feature_index in splits refers to feature_index, which maps to a
	// column of the input vector through flat_feature_index.
	columnOf := make(map[int]int, len(a.FeaturesInfo.FloatFeatures))
	width := 0
	for _, f := range a.FeaturesInfo.FloatFeatures {
		if f.FlatFeatureIndex < 0 {
			return nil, fmt.Errorf("float feature %d has negative flat_feature_index", f.FeatureIndex)
		}
		if _, dup := columnOf[f.FeatureIndex]; dup {
			return nil, fmt.Errorf("duplicate float feature index %d", f.FeatureIndex)
		}
		columnOf[f.FeatureIndex] = f.FlatFeatureIndex
		if f.FlatFeatureIndex+1 > width {
			width = f.FlatFeatureIndex + 1
		}
	}

	names := make([]string, width)
	for _, f := range a.FeaturesInfo.FloatFeatures {
		names[f.FlatFeatureIndex] = f.FeatureID
	}

	trees := make([]tree, 0, len(a.ObliviousTrees))
	for i, ot := range a.ObliviousTrees {
		depth := len(ot.Splits)
		if depth > maxTreeDepth {
			return nil, fmt.Errorf("tree %d: depth %d exceeds %d", i, depth, maxTreeDepth)
		}
		if want := 1 << depth; len(ot.LeafValues) != want {
			return nil, fmt.Errorf("tree %d: expected %d leaf values, got %d (binary classifiers only)", i, want, len(ot.LeafValues))
		}

		t := tree{
			columns: make([]int, depth),
			borders: make([]float64, depth),
			leaves:  ot.LeafValues,
		}
		for d, s := range ot.Splits {
			if s.SplitType != "" && s.SplitType != floatFeatureSplit {
				return nil, fmt.Errorf("tree %d: unsupported split type %q", i, s.SplitType)
			}
			col, ok := columnOf[s.FloatFeatureIndex]
			if !ok {
				return nil, fmt.Errorf("tree %d: split references undeclared float feature %d", i, s.FloatFeatureIndex)
			}
			t.columns[d] = col
			t.borders[d] = s.Border
		}
		trees = append(trees, t)
	}

	scale, bias, err := parseScaleAndBias(a.ScaleAndBias)
	if err != nil {
		return nil, err
	}

	return &Model{
		trees:        trees,
		scale:        scale,
		bias:         bias,
		featureNames: names,
	}, nil
}

// NumFeatures implements Classifier.
func (m *Model) NumFeatures() int { return len(m.featureNames) }

// FeatureNames returns the feature ids declared by the artifact, indexed by
// column. Columns the artifact does not name are empty strings.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

// RawScore returns the ensemble's log-odds for class 1.
func (m *Model) RawScore(features []float64) (float64, error) {
	if len(features) < len(m.featureNames) {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrFeatureCount, len(m.featureNames), len(features))
	}

	var sum float64
	for _, t := range m.trees {
		idx := 0
		for d, col := range t.columns {
			if features[col] > t.borders[d] {
				idx |= 1 << d
			}
		}
		sum += t.leaves[idx]
	}
	return m.scale*sum + m.bias, nil
}

// PredictProba implements Classifier.
func (m *Model) PredictProba(features []float64) ([]float64, error) {
	raw, err := m.RawScore(features)
	if err != nil {
		return nil, err
	}
	p := sigmoid(raw)
	return []float64{1 - p, p}, nil
}

// Predict implements Classifier. The decision threshold is a raw score of 0,
// i.e. P(class 1) > 0.5.
func (m *Model) Predict(features []float64) (int, error) {
	raw, err := m.RawScore(features)
	if err != nil {
		return 0, err
	}
	if raw > 0 {
		return 1, nil
	}
	return 0, nil
}

// Info describes a loaded model.
type Info struct {
	Kind         Kind      `json:"kind"`
	Path         string    `json:"path,omitempty"`
	Checksum     string    `json:"checksum"`
	Trees        int       `json:"trees"`
	MaxDepth     int       `json:"maxDepth"`
	FeatureNames []string  `json:"featureNames"`
	LoadedAt     time.Time `json:"loadedAt"`
}

// Info returns descriptive metadata for logs and the model info route.
func (m *Model) Info() Info {
	maxDepth := 0
	for _, t := range m.trees {
		if len(t.columns) > maxDepth {
			maxDepth = len(t.columns)
		}
	}
	return Info{
		Kind:         m.kind,
		Path:         m.path,
		Checksum:     fmt.Sprintf("%016x", m.checksum),
		Trees:        len(m.trees),
		MaxDepth:     maxDepth,
		FeatureNames: m.FeatureNames(),
		LoadedAt:     m.loadedAt,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
