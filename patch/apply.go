package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/formwizard/types"
)

// Apply applies ops to a copy of current. On any failure the returned error is
// non-nil and current is left untouched, so a batch lands whole or not at all.
func Apply(current types.Fields, ops []Operation) (types.Fields, error) {
	if len(ops) == 0 {
		return current.Clone(), nil
	}
	if current == nil {
		current = types.Fields{}
	}

	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal current fields: %w", err)
	}

	ops = FixOperation(current, ops)

	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch operations: %w", err)
	}

	p, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	modifiedJSON, err := p.Apply(currentJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result types.Fields
	if err := sonic.Unmarshal(modifiedJSON, &result); err != nil {
		return nil, fmt.Errorf("patched document is not a field map: %w", err)
	}
	if result == nil {
		result = types.Fields{}
	}
	return result, nil
}

// FixOperation turns a replace of a missing field into an add and drops
// removals of fields that are not present.
func FixOperation(current types.Fields, ops []Operation) []Operation {
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		name, ok := FieldName(op.Path)
		if !ok {
			fixed = append(fixed, op)
			continue
		}
		_, exists := current[name]
		switch op.Op {
		case OperationReplace:
			if !exists {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if exists {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
