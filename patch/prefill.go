package patch

import (
	"reflect"
	"sort"

	"github.com/tbxark/formwizard/types"
)

// GeneratePatchesFromInitial returns the operations that seed current with
// the non-zero values of initial. Zero initial values never overwrite what
// the user already typed.
func GeneratePatchesFromInitial(current, initial types.Fields) []Operation {
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)

	patches := make([]Operation, 0, len(names))
	for _, name := range names {
		initialValue := initial[name]
		if isZeroValue(initialValue) {
			continue
		}
		currentValue, exists := current[name]
		path := Pointer(name)
		if !exists {
			patches = append(patches, Operation{Op: OperationAdd, Path: path, Value: initialValue})
		} else if !reflect.DeepEqual(currentValue, initialValue) {
			patches = append(patches, Operation{Op: OperationReplace, Path: path, Value: initialValue})
		}
	}
	return patches
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case float64:
		return val == 0
	case int:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
