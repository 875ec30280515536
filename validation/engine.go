package validation

import (
	"fmt"

	"github.com/tbxark/formwizard/types"
)

// FieldDefinition declares one input of a step.
type FieldDefinition struct {
	Name        string
	Label       string
	Description string
	Default     any
	Required    bool
	Rules       []Rule
	// VisibleWhen is an expression over fields and list statuses; empty means
	// always visible. Hidden fields are neither validated nor gated.
	VisibleWhen string
	// Options are the fixed choices of a select. Selects fed by a dependent
	// list leave this empty.
	Options   []types.Option
	Sensitive bool
	Sanitize  bool
}

func (f FieldDefinition) Info() types.FieldInfo {
	return types.FieldInfo{
		Name:        f.Name,
		DisplayName: f.Label,
		Description: f.Description,
		Required:    f.Required,
		Sensitive:   f.Sensitive,
	}
}

// rules returns the effective rule chain, with the implicit required check
// first so an empty value never reports a format error.
func (f FieldDefinition) rules() []Rule {
	if !f.Required {
		return f.Rules
	}
	out := make([]Rule, 0, len(f.Rules)+1)
	out = append(out, Required(f.Label))
	return append(out, f.Rules...)
}

// StepDefinition is one page of the wizard. Steps are 1-indexed in order.
type StepDefinition struct {
	Title  string
	Fields []FieldDefinition
}

// Visibility decides whether a field with a visible_when rule is shown.
type Visibility interface {
	Visible(field, rule string, fields types.Fields, lists map[string]types.ListStatus) bool
}

// Snapshot is what validation reads: the session fields plus the status of
// every dependent list, which drives conditional fields.
type Snapshot struct {
	Fields types.Fields
	Lists  map[string]types.ListStatus
}

type Engine struct {
	steps      []StepDefinition
	index      map[string]fieldRef
	visibility Visibility
}

type fieldRef struct {
	step int
	pos  int
}

type EngineOption func(*Engine)

func WithVisibility(v Visibility) EngineOption {
	return func(e *Engine) {
		e.visibility = v
	}
}

func NewEngine(steps []StepDefinition, opts ...EngineOption) (*Engine, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("at least one step is required")
	}
	e := &Engine{
		steps: steps,
		index: make(map[string]fieldRef),
	}
	for i, step := range steps {
		for j, field := range step.Fields {
			if field.Name == "" {
				return nil, fmt.Errorf("step %d field %d: name is required", i+1, j)
			}
			if prev, dup := e.index[field.Name]; dup {
				return nil, fmt.Errorf("field %q declared in step %d and step %d", field.Name, prev.step, i+1)
			}
			e.index[field.Name] = fieldRef{step: i + 1, pos: j}
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

func (e *Engine) TotalSteps() int { return len(e.steps) }

func (e *Engine) Step(id int) (StepDefinition, bool) {
	if id < 1 || id > len(e.steps) {
		return StepDefinition{}, false
	}
	return e.steps[id-1], true
}

// Field returns the definition of name and the step that owns it.
func (e *Engine) Field(name string) (FieldDefinition, int, bool) {
	ref, ok := e.index[name]
	if !ok {
		return FieldDefinition{}, 0, false
	}
	return e.steps[ref.step-1].Fields[ref.pos], ref.step, true
}

// Defaults returns the type-appropriate starting value of every field.
func (e *Engine) Defaults() types.Fields {
	out := make(types.Fields, len(e.index))
	for _, step := range e.steps {
		for _, field := range step.Fields {
			switch {
			case field.Default != nil:
				out[field.Name] = field.Default
			default:
				out[field.Name] = ""
			}
		}
	}
	return out
}

// FieldInfos lists every field in declaration order.
func (e *Engine) FieldInfos() []types.FieldInfo {
	out := make([]types.FieldInfo, 0, len(e.index))
	for _, step := range e.steps {
		for _, field := range step.Fields {
			out = append(out, field.Info())
		}
	}
	return out
}

func (e *Engine) IsVisible(field FieldDefinition, snap Snapshot) bool {
	if field.VisibleWhen == "" || e.visibility == nil {
		return true
	}
	return e.visibility.Visible(field.Name, field.VisibleWhen, snap.Fields, snap.Lists)
}

// VisibleFields returns the fields of step that are currently shown.
func (e *Engine) VisibleFields(stepID int, snap Snapshot) []FieldDefinition {
	step, ok := e.Step(stepID)
	if !ok {
		return nil
	}
	out := make([]FieldDefinition, 0, len(step.Fields))
	for _, field := range step.Fields {
		if e.IsVisible(field, snap) {
			out = append(out, field)
		}
	}
	return out
}

// ValidateField runs every rule of name in order and returns the first
// failure, or "" when the value satisfies them all. Fields outside stepID or
// currently hidden always pass.
func (e *Engine) ValidateField(stepID int, name string, snap Snapshot) string {
	return e.validate(stepID, name, snap, true)
}

// LiveValidateField is the per-keystroke variant: advance-only rules such as
// the age gate are skipped.
func (e *Engine) LiveValidateField(stepID int, name string, snap Snapshot) string {
	return e.validate(stepID, name, snap, false)
}

func (e *Engine) validate(stepID int, name string, snap Snapshot, advancing bool) string {
	field, owner, ok := e.Field(name)
	if !ok || owner != stepID {
		return ""
	}
	if !e.IsVisible(field, snap) {
		return ""
	}
	value := snap.Fields[name]
	if !field.Required && isEmpty(value) {
		return ""
	}
	for _, rule := range field.rules() {
		if rule.OnAdvance && !advancing {
			continue
		}
		if msg := rule.Check(value, snap.Fields); msg != "" {
			return msg
		}
	}
	return ""
}

// ValidateStep returns the first failure of every visible field in stepID.
func (e *Engine) ValidateStep(stepID int, snap Snapshot) map[string]string {
	errs := map[string]string{}
	for _, field := range e.VisibleFields(stepID, snap) {
		if msg := e.ValidateField(stepID, field.Name, snap); msg != "" {
			errs[field.Name] = msg
		}
	}
	return errs
}

// CanAdvance reports whether every visible field of stepID validates.
func (e *Engine) CanAdvance(stepID int, snap Snapshot) bool {
	if _, ok := e.Step(stepID); !ok {
		return false
	}
	return len(e.ValidateStep(stepID, snap)) == 0
}
