package patch

import (
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/formwizard/types"
)

// MergeDefaults overlays persisted values on the declared defaults (RFC7386)
// and keeps only declared names. Fields missing from persisted fall back to
// their default; unknown persisted fields are dropped. A persisted null resets
// the field to its default.
func MergeDefaults(defaults types.Fields, persisted []byte) (types.Fields, error) {
	defaultsJSON, err := sonic.Marshal(defaults)
	if err != nil {
		return defaults.Clone(), fmt.Errorf("failed to marshal defaults: %w", err)
	}
	if len(persisted) == 0 {
		return defaults.Clone(), nil
	}

	merged, err := jsonpatch.MergePatch(defaultsJSON, persisted)
	if err != nil {
		return defaults.Clone(), fmt.Errorf("failed to merge persisted fields: %w", err)
	}

	var all types.Fields
	if err := sonic.Unmarshal(merged, &all); err != nil {
		return defaults.Clone(), fmt.Errorf("merged fields are not an object: %w", err)
	}

	out := make(types.Fields, len(defaults))
	for name, def := range defaults {
		v, ok := all[name]
		if !ok || !sameKind(def, v) {
			out[name] = def
			continue
		}
		out[name] = v
	}
	return out, nil
}

// sameKind guards against a renamed field coming back with a different type,
// e.g. a checkbox that used to be a text input.
func sameKind(def, v any) bool {
	switch def.(type) {
	case bool:
		_, ok := v.(bool)
		return ok
	case string:
		_, ok := v.(string)
		return ok
	default:
		return true
	}
}
