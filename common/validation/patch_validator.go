package validation

import (
	"encoding/json"
	"fmt"
)

// DefaultMaxOperations bounds the size of a single patch document
const DefaultMaxOperations = 16

// PatchValidator validates JSON Patch (RFC 6902) documents before they are applied.
// Only the configured paths may be touched, and move/copy are rejected because
// they would read from paths outside that set.
type PatchValidator struct {
	paths  map[string]bool
	maxOps int
}

// NewPatchValidator creates a validator that accepts operations on paths only
func NewPatchValidator(paths ...string) *PatchValidator {
	allowed := make(map[string]bool, len(paths))
	for _, p := range paths {
		allowed[p] = true
	}
	return &PatchValidator{paths: allowed, maxOps: DefaultMaxOperations}
}

// Validate decodes a raw patch document and validates its operations
func (v *PatchValidator) Validate(patch []byte) error {
	var operations []map[string]interface{}
	if err := json.Unmarshal(patch, &operations); err != nil {
		return fmt.Errorf("patch must be a JSON array of operations: %w", err)
	}
	return v.ValidateOperations(operations)
}

// ValidateOperations validates all patch operations
func (v *PatchValidator) ValidateOperations(operations []map[string]interface{}) error {
	if len(operations) == 0 {
		return fmt.Errorf("patch validation failed: no operations")
	}
	if len(operations) > v.maxOps {
		return fmt.Errorf("patch validation failed: at most %d operations per patch (attempted: %d)", v.maxOps, len(operations))
	}

	for i, op := range operations {
		if err := v.validateOperation(op, i); err != nil {
			return err
		}
	}

	return nil
}

// validateOperation validates a single operation
func (v *PatchValidator) validateOperation(op map[string]interface{}, index int) error {
	opType, ok := op["op"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'op' field", index)
	}

	path, ok := op["path"].(string)
	if !ok {
		return fmt.Errorf("operation %d: missing or invalid 'path' field", index)
	}

	if !v.paths[path] {
		return fmt.Errorf("operation %d: path %q is not writable", index, path)
	}

	switch opType {
	case "add", "replace", "test":
		if _, ok := op["value"]; !ok {
			return fmt.Errorf("operation %d: 'value' required for %s operation", index, opType)
		}

	case "remove":
		return nil

	default:
		return fmt.Errorf("operation %d: unsupported operation type: %s", index, opType)
	}

	return nil
}
