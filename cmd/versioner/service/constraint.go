package service

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/pluginforge/pluginvcs/vcs/state"
)

// ConstraintEvaluator evaluates manifest-declared CEL constraints
// against a desired state before it is committed. Compiled programs
// are cached by expression.
type ConstraintEvaluator struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewConstraintEvaluator creates a constraint evaluator with caching
func NewConstraintEvaluator() *ConstraintEvaluator {
	return &ConstraintEvaluator{
		cache: make(map[string]cel.Program),
	}
}

// Check evaluates every constraint the state's manifest declares.
// The expression sees the canonical document as `state`, e.g.
// `size(state.hooks) <= 50`. A non-true result or evaluation error is
// a constraint violation.
func (e *ConstraintEvaluator) Check(st *state.PluginState) error {
	if len(st.Manifest.Constraints) == 0 {
		return nil
	}

	doc, err := st.CanonicalJSON()
	if err != nil {
		return fmt.Errorf("%w: encode state: %v", ErrDiffComputation, err)
	}
	var stateVar map[string]interface{}
	if err := json.Unmarshal(doc, &stateVar); err != nil {
		return fmt.Errorf("%w: decode state: %v", ErrDiffComputation, err)
	}

	for _, c := range st.Manifest.Constraints {
		ok, err := e.evaluate(c.Expression, stateVar)
		if err != nil {
			return fmt.Errorf("%w: constraint %q: %v", ErrConstraintViolation, c.Name, err)
		}
		if !ok {
			return fmt.Errorf("%w: constraint %q not satisfied", ErrConstraintViolation, c.Name)
		}
	}

	return nil
}

func (e *ConstraintEvaluator) evaluate(expr string, stateVar map[string]interface{}) (bool, error) {
	e.mu.RLock()
	prg, exists := e.cache[expr]
	e.mu.RUnlock()

	if !exists {
		var err error
		prg, err = e.compile(expr)
		if err != nil {
			return false, err
		}

		e.mu.Lock()
		e.cache[expr] = prg
		e.mu.Unlock()
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"state": stateVar,
	})
	if err != nil {
		return false, fmt.Errorf("evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return boolean, got %T", out.Value())
	}

	return result, nil
}

func (e *ConstraintEvaluator) compile(expr string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("state", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program construction error: %w", err)
	}

	return prg, nil
}
