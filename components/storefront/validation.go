package storefront

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PayloadValidator validates create/update payloads against the resource schema.
type PayloadValidator interface {
	Validate(def ResourceDefinition, payload map[string]any) error
}

// JSONSchemaValidator compiles resource schemas and validates payload maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures payload satisfies the resource schema. Failures are
// reported as *ValidationError pointing at the first offending field.
func (v *JSONSchemaValidator) Validate(def ResourceDefinition, payload map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	normalized := map[string]any{}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("storefront: marshal payload for %s: %w", def.Key(), err)
		}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&normalized); err != nil {
			return fmt.Errorf("storefront: normalize payload for %s: %w", def.Key(), err)
		}
	}
	if err := schema.Validate(normalized); err != nil {
		return schemaValidationError(err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def ResourceDefinition) (*jsonschema.Schema, error) {
	key := def.Key()
	v.mu.RLock()
	schema, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("storefront: marshal schema %s: %w", key, err)
	}
	compiler := jsonschema.NewCompiler()
	name := strings.ReplaceAll(key, "/", ".") + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("storefront: load schema %s: %w", key, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("storefront: compile schema %s: %w", key, err)
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

func schemaValidationError(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{Message: err.Error(), Err: err}
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	return &ValidationError{Field: field, Message: leaf.Message, Err: err}
}

type noopPayloadValidator struct{}

func (noopPayloadValidator) Validate(ResourceDefinition, map[string]any) error { return nil }

// ParseJSONField parses JSON typed into a free-form config field. Blank
// input is an empty object.
func ParseJSONField(field, text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &ValidationError{Field: field, Message: "must be valid JSON", Err: err}
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
