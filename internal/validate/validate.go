// Package validate checks per-document schema output against an embedded
// JSON Schema before it is written.
package validate

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed document.schema.json
var documentSchema []byte

const schemaURL = "https://clausegest.dev/schema/document.json"

// Issue is one schema violation.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Validator holds the compiled document schema.
type Validator struct {
	schema *jsonschema.Schema
}

func New() (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(documentSchema)))
	if err != nil {
		return nil, fmt.Errorf("parse document schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add document schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Validate checks serialized document JSON. The returned error wraps a
// *jsonschema.ValidationError when the document is well-formed JSON but
// violates the schema.
func (v *Validator) Validate(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("document schema: %w", err)
	}
	return nil
}

// ValidateValue marshals v and validates the result.
func (v *Validator) ValidateValue(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return v.Validate(data)
}

// Issues flattens a validation error into leaf violations.
func Issues(err error) []Issue {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		if err == nil {
			return nil
		}
		return []Issue{{Path: "$", Message: err.Error()}}
	}
	return collect(ve)
}

func collect(ve *jsonschema.ValidationError) []Issue {
	if len(ve.Causes) == 0 {
		path := "$"
		if len(ve.InstanceLocation) > 0 {
			path = "$." + strings.Join(ve.InstanceLocation, ".")
		}
		return []Issue{{Path: path, Message: ve.Error()}}
	}
	var out []Issue
	for _, c := range ve.Causes {
		out = append(out, collect(c)...)
	}
	return out
}
