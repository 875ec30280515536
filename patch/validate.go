package patch

import (
	"fmt"
)

// ValidatePatchOperations rejects operations whose path is not a declared
// field. An empty allow-list permits every top-level field.
func ValidatePatchOperations(ops []Operation, allowed map[string]bool) error {
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationRemove, OperationReplace:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if err := validatePathAllowed(op.Path, allowed); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func validatePathAllowed(path string, allowed map[string]bool) error {
	name, ok := FieldName(path)
	if !ok {
		return fmt.Errorf("path %q does not address a field", path)
	}
	if len(allowed) == 0 || allowed[name] {
		return nil
	}
	return fmt.Errorf("path %q is not in the allowed paths set", path)
}
