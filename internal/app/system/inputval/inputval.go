// Package inputval validates decoded request payloads against
// declarative schemas.
//
// Rules:
//   - fail fast: the first violated constraint produces the error and
//     validation stops;
//   - trim-then-validate: string values are trimmed before any length
//     or format check, and the trimmed value is what Validate returns;
//   - no implicit conversion: a numeric-looking string never satisfies
//     an integer field and vice versa. DecodeBody keeps JSON numbers
//     as json.Number so nothing is silently widened to float64.
package inputval

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Type enumerates the value types a field may declare.
type Type int

const (
	String Type = iota
	Int
	Bool
	Array
)

// Field declares the constraints for one payload key. Zero values mean
// "no constraint" (MinLen/MaxLen/Len of 0 are ignored).
type Field struct {
	Name     string
	Type     Type
	Required bool

	// String constraints, applied after trimming.
	MinLen   int
	MaxLen   int
	Len      int
	Email    bool
	URI      bool
	Alphanum bool

	// Int constraints.
	Min *int64
	Max *int64

	// Array constraints: each element must be an object matching Items.
	// UniqueBy names an item field whose value must be unique across
	// the array.
	Items    *Schema
	UniqueBy string
}

// Schema is an ordered field list; order determines which violation is
// reported when several fields are invalid.
type Schema struct {
	Fields []Field
}

// DecodeBody decodes a JSON request body into a generic map without
// coercing numbers.
func DecodeBody(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	payload := map[string]any{}
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return payload, nil
		}
		return nil, errors.New("request body must be a JSON object")
	}
	return payload, nil
}

// Validate checks payload against the schema and returns a copy with
// strings trimmed and integers as int64. Unknown keys are rejected.
func (s Schema) Validate(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	declared := make(map[string]bool, len(s.Fields))

	for _, f := range s.Fields {
		declared[f.Name] = true
		raw, present := payload[f.Name]
		if !present {
			if f.Required {
				return nil, fmt.Errorf("%q is required", f.Name)
			}
			continue
		}
		val, err := f.check(raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = val
	}

	// Reject unknown keys deterministically (lowest name first).
	var unknown []string
	for k := range payload {
		if !declared[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%q is not allowed", unknown[0])
	}

	return out, nil
}

func (f Field) check(raw any) (any, error) {
	switch f.Type {
	case String:
		str, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%q must be a string", f.Name)
		}
		return f.checkString(strings.TrimSpace(str))
	case Int:
		num, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%q must be an integer", f.Name)
		}
		n, err := num.Int64()
		if err != nil {
			return nil, fmt.Errorf("%q must be an integer", f.Name)
		}
		if f.Min != nil && n < *f.Min {
			return nil, fmt.Errorf("%q must be larger than or equal to %d", f.Name, *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return nil, fmt.Errorf("%q must be less than or equal to %d", f.Name, *f.Max)
		}
		return n, nil
	case Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%q must be a boolean", f.Name)
		}
		return b, nil
	case Array:
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%q must be an array", f.Name)
		}
		return f.checkArray(items)
	default:
		return nil, fmt.Errorf("%q has an unsupported type", f.Name)
	}
}

func (f Field) checkString(str string) (any, error) {
	if str == "" {
		if f.Required {
			return nil, fmt.Errorf("%q is not allowed to be empty", f.Name)
		}
		return str, nil
	}
	if f.Len > 0 && len(str) != f.Len {
		return nil, fmt.Errorf("%q length must be %d characters long", f.Name, f.Len)
	}
	if f.MinLen > 0 && len(str) < f.MinLen {
		return nil, fmt.Errorf("%q length must be at least %d characters long", f.Name, f.MinLen)
	}
	if f.MaxLen > 0 && len(str) > f.MaxLen {
		return nil, fmt.Errorf("%q length must be at most %d characters long", f.Name, f.MaxLen)
	}
	if f.Email && !validate.SimpleEmailValid(str) {
		return nil, fmt.Errorf("%q must be a valid email", f.Name)
	}
	if f.URI {
		u, err := url.Parse(str)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%q must be a valid uri", f.Name)
		}
	}
	if f.Alphanum {
		for _, r := range str {
			if !isAlphanum(r) {
				return nil, fmt.Errorf("%q must only contain alpha-numeric characters", f.Name)
			}
		}
	}
	return str, nil
}

func (f Field) checkArray(items []any) (any, error) {
	out := make([]any, 0, len(items))
	seen := map[string]bool{}

	for i, raw := range items {
		if f.Items == nil {
			out = append(out, raw)
			continue
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q[%d] must be an object", f.Name, i)
		}
		val, err := f.Items.Validate(obj)
		if err != nil {
			return nil, fmt.Errorf("%q[%d]: %v", f.Name, i, err)
		}
		if f.UniqueBy != "" {
			key := fmt.Sprintf("%v", val[f.UniqueBy])
			if seen[key] {
				return nil, fmt.Errorf("%q contains a duplicate %q", f.Name, f.UniqueBy)
			}
			seen[key] = true
		}
		out = append(out, val)
	}
	return out, nil
}

func isAlphanum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ValidateIDs checks that each named field is present, a string, and a
// syntactically valid document id. Invalid format is a validation
// failure, never a not-found.
func ValidateIDs(input map[string]any, names ...string) error {
	for _, name := range names {
		raw, ok := input[name]
		if !ok || raw == nil {
			return fmt.Errorf("Field %q is required", name)
		}
		str, ok := raw.(string)
		if !ok {
			return fmt.Errorf("Field %q is invalid", name)
		}
		if _, err := primitive.ObjectIDFromHex(str); err != nil {
			return fmt.Errorf("Field %q is invalid", name)
		}
	}
	return nil
}
