package wizard

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/store"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validation"
)

// ErrSubmitted marks an event that arrived after the form was submitted. Such
// events are ignored and only logged.
var ErrSubmitted = errors.New("form already submitted")

const maxSanitizePasses = 4

// Wizard sequences one multi-step form. Every public method is safe to call
// from the host's event loop while dependent lists resolve in the background.
type Wizard struct {
	def       Definition
	engine    *validation.Engine
	store     store.SessionStore
	submitter Submitter
	logger    *slog.Logger
	now       func() time.Time
	schedule  Scheduler
	onChange  func()
	sanitizer *bluemonday.Policy

	mu         sync.Mutex
	state      types.State
	session    types.FormSession
	errors     map[string]string
	formError  string
	submitting bool
}

// New builds a wizard for def. Until Mount is called it sits on step 1 with a
// default session and has touched neither the store nor the network.
func New(def Definition, opts ...Option) (*Wizard, error) {
	if err := def.validate(); err != nil {
		return nil, fmt.Errorf("invalid wizard definition: %w", err)
	}
	w := &Wizard{
		def:       def,
		engine:    def.Engine,
		store:     store.NewFormStore(store.NewMemoryCache[[]byte](), "form", store.FormSchema{Defaults: def.Engine.Defaults(), TotalSteps: def.Engine.TotalSteps()}),
		logger:    slog.Default(),
		now:       time.Now,
		schedule:  goScheduler,
		sanitizer: bluemonday.StrictPolicy(),
		state:     1,
		errors:    map[string]string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.submitter == nil {
		return nil, fmt.Errorf("invalid wizard definition: submitter is required")
	}
	w.session = w.defaultSession()
	return w, nil
}

func (w *Wizard) defaultSession() types.FormSession {
	return types.FormSession{Fields: w.engine.Defaults(), CurrentStep: 1}
}

// Mount restores the persisted session, jumping straight to its step, and
// starts resolving every dependent list for the restored values.
func (w *Wizard) Mount(ctx context.Context) {
	w.mu.Lock()
	w.session = w.store.Load(ctx, w.def.FormKey)
	w.state = types.State(w.session.CurrentStep)
	w.errors = map[string]string{}
	w.formError = ""
	tasks := make([]func(), 0, len(w.def.Dependencies))
	for _, dep := range w.def.Dependencies {
		if task := w.resolveLocked(ctx, dep); task != nil {
			tasks = append(tasks, task)
		}
	}
	step := w.state
	w.mu.Unlock()

	w.logger.Debug("Mounted wizard", "form_key", w.def.FormKey, "state", step.String())
	w.dispatch(tasks)
}

// SetField records one edit. Unknown fields and edits after submission are
// ignored. Changing a parent field clears its dependents and re-resolves
// their lists.
func (w *Wizard) SetField(ctx context.Context, name string, value any) {
	w.mu.Lock()
	if !w.editableLocked("SetField") {
		w.mu.Unlock()
		return
	}
	field, _, ok := w.engine.Field(name)
	if !ok {
		w.mu.Unlock()
		w.logger.Debug("Ignoring edit of unknown field", "field", name)
		return
	}
	if s, isString := value.(string); isString && field.Sanitize {
		value = w.sanitize(s)
	}

	previous := w.session.Fields[name]
	w.session.Fields[name] = value
	var tasks []func()
	if fmt.Sprint(previous) != fmt.Sprint(value) {
		tasks = w.parentChangedLocked(ctx, name, nil)
	}
	w.revalidateLocked(name)
	w.saveLocked(ctx)
	w.mu.Unlock()

	w.dispatch(tasks)
}

// ApplyPatch applies an RFC 6902 batch of field edits atomically.
func (w *Wizard) ApplyPatch(ctx context.Context, ops []patch.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	if err := patch.ValidatePatchOperations(ops, w.allowedFields()); err != nil {
		return fmt.Errorf("invalid patch: %w", err)
	}

	ops = append([]patch.Operation(nil), ops...)
	w.mu.Lock()
	if !w.editableLocked("ApplyPatch") {
		w.mu.Unlock()
		return nil
	}
	for i, op := range ops {
		name, _ := patch.FieldName(op.Path)
		if field, _, _ := w.engine.Field(name); field.Sanitize {
			if s, isString := op.Value.(string); isString {
				ops[i].Value = w.sanitize(s)
			}
		}
	}
	next, err := patch.Apply(w.session.Fields, ops)
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	defaults := w.engine.Defaults()
	for name, value := range defaults {
		if _, ok := next[name]; !ok {
			next[name] = value
		}
	}

	previous := w.session.Fields
	w.session.Fields = next
	touched := map[string]bool{}
	for _, op := range ops {
		name, _ := patch.FieldName(op.Path)
		touched[name] = true
	}
	var tasks []func()
	for _, op := range ops {
		name, _ := patch.FieldName(op.Path)
		if fmt.Sprint(previous[name]) != fmt.Sprint(next[name]) {
			tasks = append(tasks, w.parentChangedLocked(ctx, name, touched)...)
		}
		w.revalidateLocked(name)
	}
	w.saveLocked(ctx)
	w.mu.Unlock()

	w.logger.Debug("Applied field patch", "form_key", w.def.FormKey, "ops", len(ops))
	w.dispatch(tasks)
	return nil
}

// Prefill copies non-empty values from initial into fields that are still
// empty, e.g. data the host already knows about the user.
func (w *Wizard) Prefill(ctx context.Context, initial types.Fields) error {
	allowed := w.allowedFields()
	filtered := types.Fields{}
	for name, value := range initial {
		if allowed[name] {
			filtered[name] = value
		}
	}
	w.mu.Lock()
	current := w.session.Fields.Clone()
	w.mu.Unlock()

	ops := make([]patch.Operation, 0, len(filtered))
	for _, op := range patch.GeneratePatchesFromInitial(current, filtered) {
		name, _ := patch.FieldName(op.Path)
		if blank(current[name]) {
			ops = append(ops, op)
		}
	}
	return w.ApplyPatch(ctx, ops)
}

// Next advances one step when the current step validates. A refused attempt
// records the field errors and reports false.
func (w *Wizard) Next(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.editableLocked("Next") {
		return false
	}
	step := int(w.state)
	if step >= w.engine.TotalSteps() {
		return false
	}
	if errs := w.engine.ValidateStep(step, w.snapshotLocked()); len(errs) > 0 {
		w.errors = errs
		w.logger.Debug("Step gate refused", "form_key", w.def.FormKey, "step", step, "errors", len(errs))
		return false
	}
	w.moveLocked(ctx, types.State(step+1))
	return true
}

// Back returns to the previous step without validating.
func (w *Wizard) Back(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.editableLocked("Back") || w.state <= 1 {
		return false
	}
	w.moveLocked(ctx, w.state-1)
	return true
}

// Submit hands the collected fields to the submitter. It is only legal from
// the final step once that step validates. On failure the wizard stays on the
// final step with a form-level error and the session is kept.
func (w *Wizard) Submit(ctx context.Context) bool {
	w.mu.Lock()
	if !w.editableLocked("Submit") || int(w.state) != w.engine.TotalSteps() {
		w.mu.Unlock()
		return false
	}
	if errs := w.engine.ValidateStep(int(w.state), w.snapshotLocked()); len(errs) > 0 {
		w.errors = errs
		w.mu.Unlock()
		return false
	}
	w.submitting = true
	w.formError = ""
	fields := w.session.Fields.Clone()
	w.mu.Unlock()

	err := w.submitter.Submit(ctx, fields)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if err != nil {
		w.formError = fmt.Sprintf("We couldn't create your account: %v", err)
		w.logger.Warn("Form submission failed", "form_key", w.def.FormKey, "error", err)
		return false
	}
	from := w.state
	w.state = types.Submitted
	w.errors = map[string]string{}
	w.store.Clear(ctx, w.def.FormKey)
	w.logger.Info("Form submitted", "form_key", w.def.FormKey, "session_id", w.session.ID, "from", from.String())
	return true
}

// Reset discards everything and starts over on step 1, from any state.
func (w *Wizard) Reset(ctx context.Context) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return
	}
	from := w.state
	w.state = 1
	w.session = w.defaultSession()
	w.errors = map[string]string{}
	w.formError = ""
	w.store.Clear(ctx, w.def.FormKey)
	tasks := make([]func(), 0, len(w.def.Dependencies))
	for _, dep := range w.def.Dependencies {
		if dep.Parent == "" && dep.Resolver.List().Status == types.ListReady {
			continue
		}
		if task := w.resolveLocked(ctx, dep); task != nil {
			tasks = append(tasks, task)
		}
	}
	w.mu.Unlock()

	w.logger.Info("Form reset", "form_key", w.def.FormKey, "from", from.String())
	w.dispatch(tasks)
}

func (w *Wizard) editableLocked(op string) bool {
	if w.state == types.Submitted {
		w.logger.Debug("Ignoring wizard event", "op", op, "form_key", w.def.FormKey, "error", ErrSubmitted)
		return false
	}
	return !w.submitting
}

func (w *Wizard) moveLocked(ctx context.Context, to types.State) {
	from := w.state
	w.state = to
	w.session.CurrentStep = int(to)
	w.errors = map[string]string{}
	w.saveLocked(ctx)
	w.logger.Debug("Wizard transition", "form_key", w.def.FormKey, "from", from.String(), "to", to.String())
}

func (w *Wizard) saveLocked(ctx context.Context) {
	if w.session.ID == "" {
		w.session.ID = uuid.NewString()
	}
	w.session.LastUpdated = w.now()
	w.store.Save(ctx, w.def.FormKey, w.session.Clone())
}

// revalidateLocked refreshes an error that is already on screen so it clears
// as soon as the value is fixed. Fields without an error stay quiet until the
// next gate check.
func (w *Wizard) revalidateLocked(name string) {
	if _, shown := w.errors[name]; !shown {
		return
	}
	_, step, _ := w.engine.Field(name)
	if msg := w.engine.LiveValidateField(step, name, w.snapshotLocked()); msg != "" {
		w.errors[name] = msg
		return
	}
	delete(w.errors, name)
}

func (w *Wizard) snapshotLocked() validation.Snapshot {
	lists := make(map[string]types.ListStatus, len(w.def.Dependencies))
	for _, dep := range w.def.Dependencies {
		lists[dep.Field] = dep.Resolver.List().Status
	}
	return validation.Snapshot{Fields: w.session.Fields, Lists: lists}
}

// parentChangedLocked clears everything downstream of name, except fields in
// keep, and returns the fetches to run once the lock is released.
func (w *Wizard) parentChangedLocked(ctx context.Context, name string, keep map[string]bool) []func() {
	var tasks []func()
	for _, dep := range w.def.Dependencies {
		if dep.Parent == "" || dep.Parent != name {
			continue
		}
		for _, child := range []string{dep.Field, dep.Fallback} {
			if child != "" && !keep[child] {
				w.clearFieldLocked(child)
			}
		}
		if task := w.resolveLocked(ctx, dep); task != nil {
			tasks = append(tasks, task)
		}
		tasks = append(tasks, w.parentChangedLocked(ctx, dep.Field, keep)...)
	}
	return tasks
}

func (w *Wizard) clearFieldLocked(name string) {
	w.session.Fields[name] = w.engine.Defaults()[name]
	delete(w.errors, name)
}

// resolveLocked points dep's resolver at the current parent value. The list
// leaves its old state immediately; the returned task, if any, performs the
// fetch and must run outside the lock.
func (w *Wizard) resolveLocked(ctx context.Context, dep Dependency) func() {
	parent := ""
	if dep.Parent != "" {
		parent = w.session.Fields.String(dep.Parent)
	}
	req, needsFetch := dep.Resolver.Resolve(ctx, parent)
	if !needsFetch {
		return nil
	}
	bg := context.WithoutCancel(ctx)
	return func() {
		res := dep.Resolver.Fetch(bg, req)
		if dep.Resolver.Apply(bg, res) {
			w.listApplied(bg, dep)
		}
	}
}

// listApplied drops a selection the freshly loaded list no longer offers and
// invalidates everything downstream of it. Root lists never clear a value:
// the user may have typed one before the list arrived.
func (w *Wizard) listApplied(ctx context.Context, dep Dependency) {
	w.mu.Lock()
	var tasks []func()
	list := dep.Resolver.List()
	if dep.Parent != "" && w.state != types.Submitted && list.Status == types.ListReady &&
		list.Parent == strings.TrimSpace(w.session.Fields.String(dep.Parent)) {
		if current := w.session.Fields.String(dep.Field); current != "" && !list.Has(current) {
			w.logger.Debug("Dropping selection missing from list", "field", dep.Field, "value", current)
			w.clearFieldLocked(dep.Field)
			tasks = w.parentChangedLocked(ctx, dep.Field, nil)
			w.saveLocked(ctx)
		}
	}
	w.mu.Unlock()
	w.dispatch(tasks)
	if w.onChange != nil {
		w.onChange()
	}
}

func (w *Wizard) dispatch(tasks []func()) {
	for _, task := range tasks {
		w.schedule(task)
	}
}

// sanitize strips markup and returns plain text. Entities are decoded and the
// result sanitized again until it is stable, so encoded tags cannot come back
// as markup once decoded.
func (w *Wizard) sanitize(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		out := html.UnescapeString(w.sanitizer.Sanitize(s))
		if out == s {
			return out
		}
		s = out
	}
	return w.sanitizer.Sanitize(s)
}

func blank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	default:
		return false
	}
}

func (w *Wizard) allowedFields() map[string]bool {
	allowed := map[string]bool{}
	for _, info := range w.engine.FieldInfos() {
		allowed[info.Name] = true
	}
	return allowed
}
