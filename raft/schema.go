// Type checking for named consensus variables is grounded on bundoc's use
// of JSON-Schema document validation (bundoc/database.go), repurposed here
// to validate a single proposed value against its declared
// ConsensusVarSpec.Type instead of a whole document against a collection
// schema.
package raft

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// TypeChecker validates proposed consensus-variable values against their
// declared JSON-Schema type.
type TypeChecker struct {
	schemas map[string]*gojsonschema.Schema
	known   map[string]bool
}

// newTypeChecker compiles one schema per declared variable.
func newTypeChecker(vars []ConsensusVarSpec) (*TypeChecker, error) {
	tc := &TypeChecker{
		schemas: make(map[string]*gojsonschema.Schema, len(vars)),
		known:   make(map[string]bool, len(vars)),
	}
	for _, v := range vars {
		raw := fmt.Sprintf(`{"type": %q}`, string(v.Type))
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("raft: compiling schema for %q: %w", v.Name, err)
		}
		tc.schemas[v.Name] = schema
		tc.known[v.Name] = true
	}
	return tc, nil
}

// Check reports ErrUnknownConsensusVariable for an undeclared name, or
// ErrConsensusTypeMismatch when value doesn't satisfy the declared type.
func (tc *TypeChecker) Check(name string, value any) error {
	schema, ok := tc.schemas[name]
	if !ok {
		return ErrUnknownConsensusVariable
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConsensusTypeMismatch, err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(string(encoded)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConsensusTypeMismatch, err)
	}
	if !result.Valid() {
		return ErrConsensusTypeMismatch
	}
	return nil
}

// Known reports whether name was declared in Config.ConsensusVars.
func (tc *TypeChecker) Known(name string) bool { return tc.known[name] }
