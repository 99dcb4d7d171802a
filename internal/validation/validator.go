// Package validation provides the result type and value coercions used to
// validate prediction request payloads.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNull is returned when a value is JSON null.
	ErrNull = errors.New("must not be null")
	// ErrNotNumeric is returned when a value is neither a number nor a numeric string.
	ErrNotNumeric = errors.New("must be a number or a numeric string")
	// ErrNotFinite is returned for NaN and infinities.
	ErrNotFinite = errors.New("must be a finite number")
	// ErrNotInteger is returned when a string value is not an integer literal.
	ErrNotInteger = errors.New("must be an integer or an integer string")
)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Number coerces a JSON number or a numeric string (surrounding whitespace
// allowed) to a finite float64.
func Number(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ErrNull
	}

	var f float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrNotNumeric
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, ErrNotNumeric
		}
		f = parsed
	default:
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, ErrNotNumeric
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrNotFinite
	}
	return f, nil
}

// Integer coerces a JSON number or an integer string to an int64. JSON
// numbers with a fractional part are truncated toward zero; strings must be
// integer literals.
func Integer(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ErrNull
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrNotInteger
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		return n, nil
	}

	f, err := Number(raw)
	if err != nil {
		return 0, err
	}
	t := math.Trunc(f)
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return 0, ErrNotInteger
	}
	return int64(t), nil
}

// String returns the value of a JSON string. ok is false for any other JSON
// type, including null.
func String(raw json.RawMessage) (s string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
