package features

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const examplePayload = `{"Gender":"Male","Age":"45","BMI":"27.5","HbA1c":"6.1","Cholesterol":"190","ER_Visits":"1",
"VigorousActivity":"Yes","Smoked":"No","Calories":"2200","Sugar":"50","Fiber":"20","SatFat":"15",
"Sodium":"2300","Potassium":"3000","SystolicBP":"120","DiastolicBP":"80"}`

func decode(t *testing.T, body string) *Payload {
	t.Helper()
	p, err := DecodePayload(strings.NewReader(body))
	require.NoError(t, err)
	return p
}

func column(name string) int {
	for i, c := range Schema {
		if c.Key == name {
			return i
		}
	}
	panic("unknown column " + name)
}

func TestAssemble_ExamplePayload(t *testing.T) {
	row, warnings, err := NewMapper(Options{}).Assemble(decode(t, examplePayload))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, ColumnNames(), row.Columns)
	assert.Equal(t, []float64{
		1, 45, 27.5, 6.1, 190, 1,
		1, 0, 2200, 50, 20, 15,
		300, 2300, 3000, 120, 80,
	}, row.Values)
}

func TestAssemble_NumericLiterals(t *testing.T) {
	body := `{"Gender":"Female","Age":45,"BMI":27.5,"HbA1c":6.1,"Cholesterol":190,"ER_Visits":2,
"VigorousActivity":"No","Smoked":"Yes","Calories":2200,"Sugar":50,"Fiber":20,"SatFat":15,
"DietaryCholesterol":250,"Sodium":2300,"Potassium":3000,"SystolicBP":120,"DiastolicBP":80}`

	row, _, err := NewMapper(Options{}).Assemble(decode(t, body))
	require.NoError(t, err)

	assert.Equal(t, 0.0, row.Values[column("Gender")])
	assert.Equal(t, 2.0, row.Values[column("ER_Visits")])
	assert.Equal(t, 0.0, row.Values[column("VigorousActivity")])
	assert.Equal(t, 1.0, row.Values[column("Smoked")])
	assert.Equal(t, 250.0, row.Values[column("DietaryCholesterol")])
}

func TestAssemble_GenderEncoding(t *testing.T) {
	tests := []struct {
		name        string
		gender      string // raw JSON, empty means absent
		want        float64
		wantWarning bool
	}{
		{"male", `"Male"`, 1, false},
		{"female", `"Female"`, 0, false},
		{"lowercase male", `"male"`, 0, true},
		{"other string", `"M"`, 0, true},
		{"number", `1`, 0, true},
		{"null", `null`, 0, true},
		{"absent", ``, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(examplePayload, `"Gender":"Male",`, "", 1)
			if tt.gender != "" {
				body = strings.Replace(body, "{", `{"Gender":`+tt.gender+",", 1)
			}

			row, warnings, err := NewMapper(Options{}).Assemble(decode(t, body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, row.Values[column("Gender")])

			if tt.wantWarning {
				require.Len(t, warnings, 1)
				assert.Equal(t, "Gender", warnings[0].Field)
			} else {
				assert.Empty(t, warnings)
			}
		})
	}
}

func TestAssemble_StrictCategoricals(t *testing.T) {
	body := strings.Replace(examplePayload, `"Smoked":"No"`, `"Smoked":"no"`, 1)

	_, _, err := NewMapper(Options{StrictCategoricals: true}).Assemble(decode(t, body))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, "Smoked must be one of Yes, No", ve.Fields["Smoked"])

	_, _, err = NewMapper(Options{StrictCategoricals: true}).Assemble(decode(t, examplePayload))
	assert.NoError(t, err)
}

func TestAssemble_DietaryCholesterolDefault(t *testing.T) {
	row, _, err := NewMapper(Options{}).Assemble(decode(t, examplePayload))
	require.NoError(t, err)
	assert.Equal(t, DefaultDietaryCholesterol, row.Values[column("DietaryCholesterol")])

	// present-but-null is not the same as absent
	body := strings.Replace(examplePayload, "{", `{"DietaryCholesterol":null,`, 1)
	_, _, err = NewMapper(Options{}).Assemble(decode(t, body))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "DietaryCholesterol")
}

func TestAssemble_MissingAndInvalidFields(t *testing.T) {
	body := strings.Replace(examplePayload, `"Age":"45",`, "", 1)
	body = strings.Replace(body, `"BMI":"27.5"`, `"BMI":"heavy"`, 1)
	body = strings.Replace(body, `"ER_Visits":"1"`, `"ER_Visits":"1.5"`, 1)

	_, _, err := NewMapper(Options{}).Assemble(decode(t, body))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, map[string]string{
		"Age":       "Age is required",
		"BMI":       "BMI must be a number or a numeric string",
		"ER_Visits": "ER_Visits must be an integer or an integer string",
	}, ve.Fields)
	assert.Equal(t, "invalid payload: Age: Age is required; BMI: BMI must be a number or a numeric string; ER_Visits: ER_Visits must be an integer or an integer string", ve.Error())
}

func TestAssemble_EveryRequiredField(t *testing.T) {
	for _, col := range Schema {
		if !col.Required() {
			continue
		}
		t.Run(col.Key, func(t *testing.T) {
			values := map[string]any{}
			for _, c := range Schema {
				if c.Key != col.Key {
					values[c.Key] = "1"
				}
			}
			body, err := json.Marshal(values)
			require.NoError(t, err)
			p := decode(t, string(body))

			_, _, err = NewMapper(Options{}).Assemble(p)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, col.Key+" is required", ve.Fields[col.Key])
		})
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"Age":1}`, false},
		{"trailing whitespace", "{\"Age\":1}\n\n", false},
		{"empty body", ``, true},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"string", `"Male"`, true},
		{"truncated", `{"Age":`, true},
		{"two objects", `{}{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(strings.NewReader(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidJSON)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodePayload_KeysAreCaseSensitive(t *testing.T) {
	p := decode(t, `{"age":45,"Extra":true}`)
	assert.False(t, p.Get("Age").Present)
	assert.Equal(t, []string{"Extra", "age"}, p.UnknownKeys())
}

func TestCheckCompatible(t *testing.T) {
	assert.NoError(t, CheckCompatible(ColumnNames()))
	assert.NoError(t, CheckCompatible([]string{"Gender", "", "BMI"}))
	assert.NoError(t, CheckCompatible(nil))

	swapped := ColumnNames()
	swapped[1], swapped[2] = swapped[2], swapped[1]
	assert.ErrorIs(t, CheckCompatible(swapped), ErrSchemaMismatch)

	assert.ErrorIs(t, CheckCompatible(make([]string, Width+1)), ErrSchemaMismatch)
}

func TestRowKey(t *testing.T) {
	row, _, err := NewMapper(Options{}).Assemble(decode(t, examplePayload))
	require.NoError(t, err)

	other, _, err := NewMapper(Options{}).Assemble(decode(t, examplePayload))
	require.NoError(t, err)
	assert.Equal(t, row.Key(), other.Key())
}
