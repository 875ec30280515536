package types

import (
	"fmt"
	"strings"
	"time"
)

// Fields maps a field name to its current value. Values are strings for text
// inputs and bools for checkboxes.
type Fields map[string]any

func (f Fields) String(name string) string {
	if f == nil {
		return ""
	}
	switch v := f[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (f Fields) Bool(name string) bool {
	if f == nil {
		return false
	}
	switch v := f[name].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "yes" || s == "1" || s == "on"
	default:
		return false
	}
}

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FormSession is the persisted progress of one in-progress form.
type FormSession struct {
	ID          string    `json:"id"`
	Fields      Fields    `json:"fields"`
	CurrentStep int       `json:"current_step"`
	LastUpdated time.Time `json:"last_updated"`
}

func (s FormSession) Clone() FormSession {
	out := s
	out.Fields = s.Fields.Clone()
	return out
}

// State is the wizard position: a 1-indexed step or the terminal Submitted.
type State int

const Submitted State = -1

func (s State) IsStep() bool { return s >= 1 }

func (s State) String() string {
	if s == Submitted {
		return "submitted"
	}
	return fmt.Sprintf("step %d", int(s))
}

// ListStatus tags the shape of a dependent option list.
type ListStatus string

const (
	ListIdle    ListStatus = "idle"
	ListLoading ListStatus = "loading"
	ListReady   ListStatus = "ready"
	ListError   ListStatus = "error"
	ListEmpty   ListStatus = "empty"
)

// Option is one entry of a select list.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

type FieldInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Sensitive   bool   `json:"sensitive,omitempty"`
}
