package patch

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

// Operation is a single RFC6902 operation against a flat field map. Paths
// address fields directly: "/email", "/accept_terms".
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Pointer returns the JSON pointer for a field name.
func Pointer(name string) string {
	return "/" + escapeJSONPointer(name)
}

// FieldName returns the field addressed by a top-level pointer.
func FieldName(pointer string) (string, bool) {
	if len(pointer) < 2 || pointer[0] != '/' {
		return "", false
	}
	token := pointer[1:]
	for i := 0; i < len(token); i++ {
		if token[i] == '/' {
			return "", false
		}
	}
	return unescapeJSONPointer(token), true
}
