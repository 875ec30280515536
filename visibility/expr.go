// Package visibility decides which conditional fields a step shows. Rules are
// expr-lang expressions evaluated against
//
//	fields: the session field values
//	lists:  the status of each dependent list, keyed by its field name
//
// e.g. `lists.region in ["error", "empty"]` or `fields.employment == "other"`.
package visibility

import (
	"fmt"
	"log/slog"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	"github.com/tbxark/formwizard/types"
)

// Evaluator compiles each distinct rule once and caches the program.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*exprvm.Program
	logger   *slog.Logger
}

type Option func(*Evaluator)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		programs: map[string]*exprvm.Program{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Compile checks rule without evaluating it, so definitions can be validated
// up front.
func (e *Evaluator) Compile(rule string) error {
	_, err := e.loadOrCompile(rule)
	return err
}

// Visible evaluates rule. Broken rules fail open: the field stays visible so a
// bad expression can never hide a required input.
func (e *Evaluator) Visible(field, rule string, fields types.Fields, lists map[string]types.ListStatus) bool {
	if rule == "" {
		return true
	}
	visible, err := e.Eval(rule, fields, lists)
	if err != nil {
		e.logger.Warn("Visibility rule failed", "field", field, "rule", rule, "error", err)
		return true
	}
	return visible
}

func (e *Evaluator) Eval(rule string, fields types.Fields, lists map[string]types.ListStatus) (bool, error) {
	program, err := e.loadOrCompile(rule)
	if err != nil {
		return false, err
	}
	result, err := exprlang.Run(program, environment(fields, lists))
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", rule, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q returned %T, want bool", rule, result)
	}
	return b, nil
}

func (e *Evaluator) loadOrCompile(rule string) (*exprvm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[rule]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}
	program, err := exprlang.Compile(rule,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", rule, err)
	}
	e.mu.Lock()
	e.programs[rule] = program
	e.mu.Unlock()
	return program, nil
}

func environment(fields types.Fields, lists map[string]types.ListStatus) map[string]any {
	f := make(map[string]any, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	l := make(map[string]any, len(lists))
	for k, v := range lists {
		l[k] = string(v)
	}
	return map[string]any{
		"fields": f,
		"lists":  l,
	}
}
