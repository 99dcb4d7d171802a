package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrInvalidJSON is returned when a request body is not a single JSON object.
var ErrInvalidJSON = errors.New("request body must be a JSON object")

// Field is one request value. Present is false when the key was absent.
type Field struct {
	Present bool
	Raw     json.RawMessage
}

// Payload is a decoded prediction request. Keys are matched exactly
// (case-sensitive); keys outside Schema are kept only for reporting.
type Payload struct {
	fields  map[string]json.RawMessage
	unknown []string
}

// DecodePayload reads a single JSON object from r.
func DecodePayload(r io.Reader) (*Payload, error) {
	dec := json.NewDecoder(r)

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: got null", ErrInvalidJSON)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after object", ErrInvalidJSON)
	}
	return newPayload(fields), nil
}

func newPayload(fields map[string]json.RawMessage) *Payload {
	known := make(map[string]bool, Width)
	for _, c := range Schema {
		known[c.Key] = true
	}
	p := &Payload{fields: fields}
	for k := range fields {
		if !known[k] {
			p.unknown = append(p.unknown, k)
		}
	}
	sort.Strings(p.unknown)
	return p
}

// Get returns the field for a request key.
func (p *Payload) Get(key string) Field {
	raw, ok := p.fields[key]
	return Field{Present: ok, Raw: raw}
}

// UnknownKeys lists keys that do not belong to the schema.
func (p *Payload) UnknownKeys() []string {
	return p.unknown
}
