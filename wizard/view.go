package wizard

import (
	"maps"

	"github.com/tbxark/formwizard/resolver"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validation"
)

func (w *Wizard) State() types.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) TotalSteps() int { return w.engine.TotalSteps() }

// Step returns the definition of the step on screen; after submission it
// reports false.
func (w *Wizard) Step() (validation.StepDefinition, bool) {
	state := w.State()
	if !state.IsStep() {
		return validation.StepDefinition{}, false
	}
	return w.engine.Step(int(state))
}

func (w *Wizard) Session() types.FormSession {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Clone()
}

func (w *Wizard) Value(name string) any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.Fields[name]
}

func (w *Wizard) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.errors)
}

func (w *Wizard) FieldError(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errors[name]
}

// FormError is the submission failure shown above the final step.
func (w *Wizard) FormError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.formError
}

func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// CanAdvance reports whether Next (or Submit on the final step) would pass
// the gate right now, without recording errors.
func (w *Wizard) CanAdvance() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.IsStep() {
		return false
	}
	return w.engine.CanAdvance(int(w.state), w.snapshotLocked())
}

// Check is the live, per-keystroke verdict for name. Advance-only rules are
// skipped and nothing is recorded.
func (w *Wizard) Check(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, step, ok := w.engine.Field(name)
	if !ok {
		return ""
	}
	return w.engine.LiveValidateField(step, name, w.snapshotLocked())
}

// VisibleFields lists the fields of the current step that are shown, which
// depends on the values entered and the state of dependent lists.
func (w *Wizard) VisibleFields() []validation.FieldDefinition {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.IsStep() {
		return nil
	}
	return w.engine.VisibleFields(int(w.state), w.snapshotLocked())
}

// List returns the dependent list feeding field.
func (w *Wizard) List(field string) (resolver.DependentList, bool) {
	for _, dep := range w.def.Dependencies {
		if dep.Field == field {
			return dep.Resolver.List(), true
		}
	}
	return resolver.DependentList{}, false
}

// Suggest maps free text onto the closest option of field's list, for hosts
// that let the user type into a select.
func (w *Wizard) Suggest(field, text string) (types.Option, bool) {
	list, ok := w.List(field)
	if !ok || list.Status != types.ListReady {
		return types.Option{}, false
	}
	return resolver.Suggest(list.Options, text, 2)
}

// PasswordChecklist reports every strength requirement for the value of name.
func (w *Wizard) PasswordChecklist(name string) []validation.Requirement {
	w.mu.Lock()
	defer w.mu.Unlock()
	return validation.PasswordChecklist(w.session.Fields.String(name))
}

// Summary renders every field visible under the current values as a review
// table, masking sensitive ones.
func (w *Wizard) Summary() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.snapshotLocked()
	infos := make([]types.FieldInfo, 0)
	for id := 1; id <= w.engine.TotalSteps(); id++ {
		for _, field := range w.engine.VisibleFields(id, snap) {
			infos = append(infos, field.Info())
		}
	}
	return types.FormatReview(infos, w.session.Fields)
}
