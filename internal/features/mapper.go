package features

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/TimurManjosov/erpredict/internal/validation"
)

// Row is a single-row feature table in Schema order.
type Row struct {
	Columns []string
	Values  []float64
}

// Key returns the row values as a comparable array.
func (r Row) Key() [Width]float64 {
	var k [Width]float64
	copy(k[:], r.Values)
	return k
}

// Warning reports a categorical value that was encoded as 0 without being
// recognized.
type Warning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries per-field messages for a payload that could not be
// mapped.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// Options configures a Mapper.
type Options struct {
	// StrictCategoricals rejects categorical values that are absent or not in
	// Column.Known instead of encoding them as 0.
	StrictCategoricals bool
}

// Mapper turns payloads into feature rows.
type Mapper struct {
	opts Options
}

// NewMapper creates a Mapper.
func NewMapper(opts Options) *Mapper {
	return &Mapper{opts: opts}
}

// Assemble validates p and maps it onto Schema. All field problems are
// reported together in a *ValidationError.
func (m *Mapper) Assemble(p *Payload) (Row, []Warning, error) {
	result := validation.NewValidationResult()
	values := make([]float64, Width)
	var warnings []Warning

	for i, col := range Schema {
		f := p.Get(col.Key)

		switch col.Kind {
		case Categorical:
			v, reason := encodeCategorical(col, f)
			if reason != "" {
				if m.opts.StrictCategoricals {
					result.AddError(col.Key, fmt.Sprintf("%s must be one of %s", col.Key, strings.Join(col.Known, ", ")))
					continue
				}
				warnings = append(warnings, Warning{Field: col.Key, Reason: reason})
			}
			values[i] = v

		case Continuous, Count:
			if !f.Present {
				if col.Required() {
					result.AddError(col.Key, col.Key+" is required")
					continue
				}
				values[i] = *col.Default
				continue
			}
			v, err := coerce(col.Kind, f)
			if err != nil {
				result.AddError(col.Key, col.Key+" "+err.Error())
				continue
			}
			values[i] = v
		}
	}

	if !result.Valid {
		return Row{}, nil, &ValidationError{Fields: result.Errors}
	}
	return Row{Columns: ColumnNames(), Values: values}, warnings, nil
}

func coerce(kind Kind, f Field) (float64, error) {
	if kind == Count {
		n, err := validation.Integer(f.Raw)
		return float64(n), err
	}
	return validation.Number(f.Raw)
}

// encodeCategorical returns the encoded value and, when the value was not
// recognized, why it defaulted to 0.
func encodeCategorical(col Column, f Field) (float64, string) {
	if !f.Present {
		return 0, "missing, encoded as 0"
	}
	s, ok := validation.String(f.Raw)
	if !ok {
		return 0, "not a string, encoded as 0"
	}
	if s == col.Positive {
		return 1, ""
	}
	if !slices.Contains(col.Known, s) {
		return 0, fmt.Sprintf("unrecognized value %q, encoded as 0", s)
	}
	return 0, ""
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
