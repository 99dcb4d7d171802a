// Package features maps prediction request payloads onto the fixed feature
// vector the classifier was trained on.
package features

import (
	"errors"
	"fmt"
)

// Width is the number of columns in the feature vector.
const Width = 17

// Kind describes how a request value is encoded into a column.
type Kind int

const (
	// Categorical values are encoded 1 when they equal Column.Positive, else 0.
	Categorical Kind = iota
	// Continuous values are coerced to float64.
	Continuous
	// Count values are coerced to an integer.
	Count
)

// Column binds a training-time column name to its request key.
type Column struct {
	Name     string   // column name in the trained artifact
	Key      string   // request payload key
	Kind     Kind     // how the value is encoded
	Positive string   // categorical value encoded as 1
	Known    []string // categorical values that are recognized
	Default  *float64 // used only when Key is absent
}

// Required reports whether the request must carry the column's key.
func (c Column) Required() bool {
	return c.Kind != Categorical && c.Default == nil
}

// DefaultDietaryCholesterol is substituted when DietaryCholesterol is absent.
const DefaultDietaryCholesterol = 300.0

func defaultValue(v float64) *float64 { return &v }

var (
	sexes   = []string{"Male", "Female"}
	yesOrNo = []string{"Yes", "No"}
)

// Schema is the column order the artifact was trained with. It must never be
// reordered.
var Schema = [Width]Column{
	{Name: "Gender", Key: "Gender", Kind: Categorical, Positive: "Male", Known: sexes},
	{Name: "Age", Key: "Age", Kind: Continuous},
	{Name: "BMI", Key: "BMI", Kind: Continuous},
	{Name: "HbA1c", Key: "HbA1c", Kind: Continuous},
	{Name: "Cholesterol (Total)", Key: "Cholesterol", Kind: Continuous},
	{Name: "ER Visits (past 12m)", Key: "ER_Visits", Kind: Count},
	{Name: "Vigorous Activity", Key: "VigorousActivity", Kind: Categorical, Positive: "Yes", Known: yesOrNo},
	{Name: "(Smoked 100 cigarettes)", Key: "Smoked", Kind: Categorical, Positive: "Yes", Known: yesOrNo},
	{Name: "Calories", Key: "Calories", Kind: Continuous},
	{Name: "Sugar", Key: "Sugar", Kind: Continuous},
	{Name: "Fiber", Key: "Fiber", Kind: Continuous},
	{Name: "Saturated Fat", Key: "SatFat", Kind: Continuous},
	{Name: "Dietary Cholesterol", Key: "DietaryCholesterol", Kind: Continuous, Default: defaultValue(DefaultDietaryCholesterol)},
	{Name: "Sodium", Key: "Sodium", Kind: Continuous},
	{Name: "Potassium", Key: "Potassium", Kind: Continuous},
	{Name: "Systolic_BP_Avg", Key: "SystolicBP", Kind: Continuous},
	{Name: "Diastolic_BP_Avg", Key: "DiastolicBP", Kind: Continuous},
}

// ColumnNames returns the schema column names in order.
func ColumnNames() []string {
	names := make([]string, Width)
	for i, c := range Schema {
		names[i] = c.Name
	}
	return names
}

// ErrSchemaMismatch is returned when a model artifact disagrees with Schema.
var ErrSchemaMismatch = errors.New("model feature schema mismatch")

// CheckCompatible verifies that a model's declared feature names line up with
// Schema. Empty names are not checked.
func CheckCompatible(modelFeatures []string) error {
	if len(modelFeatures) > Width {
		return fmt.Errorf("%w: model declares %d features, schema has %d", ErrSchemaMismatch, len(modelFeatures), Width)
	}
	for i, name := range modelFeatures {
		if name != "" && name != Schema[i].Name {
			return fmt.Errorf("%w: column %d is %q in the model but %q in the schema", ErrSchemaMismatch, i, name, Schema[i].Name)
		}
	}
	return nil
}
