package extract

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	schemagen "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema validates model output against the JSON Schema reflected from T.
type Schema[T any] struct {
	name     string
	raw      []byte
	compiled *jsonschema.Schema
}

// SchemaFor reflects a JSON Schema from T and compiles it for validation.
// Additional properties are tolerated; missing required fields, wrong types
// and out-of-range values are not.
func SchemaFor[T any]() (*Schema[T], error) {
	var zero T
	name := reflect.TypeOf(zero).Name()

	r := &schemagen.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&zero)
	s.ID = ""

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal %s schema: %w", name, err)
	}

	url := "mem://schemas/" + name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add %s schema: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}

	return &Schema[T]{name: name, raw: raw, compiled: compiled}, nil
}

// MustSchema is like SchemaFor but panics on error. It is meant for
// package-level schema variables built from static types.
func MustSchema[T any]() *Schema[T] {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// JSON returns the schema document, suitable for embedding in a prompt.
func (s *Schema[T]) JSON() string {
	return string(s.raw)
}

// Validate reports whether candidate is a JSON document satisfying the schema.
func (s *Schema[T]) Validate(candidate string) error {
	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return s.compiled.Validate(doc)
}

// Parse returns the first candidate in text that satisfies the schema.
// It fails closed: when no candidate validates, the zero T is returned with
// ErrNoJSON or ErrNoValidJSON.
func (s *Schema[T]) Parse(text string) (T, error) {
	var result T

	candidates := Candidates(text)
	if len(candidates) == 0 {
		return result, ErrNoJSON
	}

	var lastErr error
	for _, c := range candidates {
		if err := s.Validate(c); err != nil {
			lastErr = err
			continue
		}
		var parsed T
		if err := json.Unmarshal([]byte(c), &parsed); err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}

	return result, fmt.Errorf("%w: %s: %v", ErrNoValidJSON, s.name, lastErr)
}
