package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ModelJSON is a two-tree CatBoost JSON artifact over the 17-column schema.
//
//	tree 1 splits on "ER Visits (past 12m)" > 0.5: leaves -1.0 | 1.5
//	tree 2 splits on "Age" > 50 then "HbA1c" > 6.5: leaves -0.5, 0.3, 0.4, 1.0
//
// ExamplePayload therefore scores a raw 1.5 - 0.5 = 1.0, i.e. P(visit) = 73.11%.
const ModelJSON = `{
	"model_info": {"params": {"loss_function": {"type": "Logloss"}}},
	"features_info": {"float_features": [
		{"feature_index":0,"flat_feature_index":0,"feature_id":"Gender","borders":[]},
		{"feature_index":1,"flat_feature_index":1,"feature_id":"Age","borders":[]},
		{"feature_index":2,"flat_feature_index":2,"feature_id":"BMI","borders":[]},
		{"feature_index":3,"flat_feature_index":3,"feature_id":"HbA1c","borders":[]},
		{"feature_index":4,"flat_feature_index":4,"feature_id":"Cholesterol (Total)","borders":[]},
		{"feature_index":5,"flat_feature_index":5,"feature_id":"ER Visits (past 12m)","borders":[]},
		{"feature_index":6,"flat_feature_index":6,"feature_id":"Vigorous Activity","borders":[]},
		{"feature_index":7,"flat_feature_index":7,"feature_id":"(Smoked 100 cigarettes)","borders":[]},
		{"feature_index":8,"flat_feature_index":8,"feature_id":"Calories","borders":[]},
		{"feature_index":9,"flat_feature_index":9,"feature_id":"Sugar","borders":[]},
		{"feature_index":10,"flat_feature_index":10,"feature_id":"Fiber","borders":[]},
		{"feature_index":11,"flat_feature_index":11,"feature_id":"Saturated Fat","borders":[]},
		{"feature_index":12,"flat_feature_index":12,"feature_id":"Dietary Cholesterol","borders":[]},
		{"feature_index":13,"flat_feature_index":13,"feature_id":"Sodium","borders":[]},
		{"feature_index":14,"flat_feature_index":14,"feature_id":"Potassium","borders":[]},
		{"feature_index":15,"flat_feature_index":15,"feature_id":"Systolic_BP_Avg","borders":[]},
		{"feature_index":16,"flat_feature_index":16,"feature_id":"Diastolic_BP_Avg","borders":[]}
	]},
	"oblivious_trees": [
		{"splits": [{"float_feature_index":5,"border":0.5,"split_type":"FloatFeature"}],
		 "leaf_values": [-1.0, 1.5]},
		{"splits": [{"float_feature_index":1,"border":50,"split_type":"FloatFeature"},
		            {"float_feature_index":3,"border":6.5,"split_type":"FloatFeature"}],
		 "leaf_values": [-0.5, 0.3, 0.4, 1.0]}
	],
	"scale_and_bias": [1, [0]]
}`

// ExamplePayload is a valid request body without DietaryCholesterol.
const ExamplePayload = `{"Gender":"Male","Age":"45","BMI":"27.5","HbA1c":"6.1","Cholesterol":"190","ER_Visits":"1",` +
	`"VigorousActivity":"Yes","Smoked":"No","Calories":"2200","Sugar":"50","Fiber":"20","SatFat":"15",` +
	`"Sodium":"2300","Potassium":"3000","SystolicBP":"120","DiastolicBP":"80"}`

// WriteModel writes contents (ModelJSON when empty) to a temp file and
// returns its path.
func WriteModel(t *testing.T, contents string) string {
	t.Helper()
	if contents == "" {
		contents = ModelJSON
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write model fixture: %v", err)
	}
	return path
}
