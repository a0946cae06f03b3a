// Package schema validates knowledge base seed records against their
// canonical JSON Schemas before they reach the database.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed files/*.jsonschema
var schemaFiles embed.FS

// schemaPaths maps a model type to its embedded schema file.
var schemaPaths = map[string]string{
	"Requirement":  "files/requirement.jsonschema",
	"EvidenceItem": "files/evidence_item.jsonschema",
	"FlagTemplate": "files/flag_template.jsonschema",
}

// Validator holds the compiled schemas for all known model types.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema. Compilation failures are
// programming errors (the schemas ship with the binary), so they are
// returned rather than panicking to keep callers testable.
func NewValidator() (*Validator, error) {
	v := &Validator{compiled: make(map[string]*jsonschema.Schema)}
	for modelType, path := range schemaPaths {
		raw, err := schemaFiles.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading embedded schema %s: %w", path, err)
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		url := fmt.Sprintf("kbwatch/%s", path)
		if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("loading schema for %s: %w", modelType, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", modelType, err)
		}
		v.compiled[modelType] = compiled
	}
	return v, nil
}

// ModelTypes returns the known model types in sorted order.
func (v *Validator) ModelTypes() []string {
	types := make([]string, 0, len(v.compiled))
	for t := range v.compiled {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Validate checks a decoded JSON value against the schema for modelType.
func (v *Validator) Validate(modelType string, obj any) error {
	compiled, ok := v.compiled[modelType]
	if !ok {
		return fmt.Errorf("unknown model type: %s (valid: %v)", modelType, v.ModelTypes())
	}
	if err := compiled.Validate(obj); err != nil {
		return fmt.Errorf("validating %s: %w", modelType, err)
	}
	return nil
}

// ValidateRaw decodes raw JSON and validates it against modelType.
func (v *Validator) ValidateRaw(modelType string, raw []byte) error {
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("decoding %s record: %w", modelType, err)
	}
	return v.Validate(modelType, obj)
}
