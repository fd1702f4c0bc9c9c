package cel

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// Language is the name the CEL engine registers under
const Language = "cel"

// Evaluator evaluates CEL expressions
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new CEL evaluator
func NewEvaluator() *Evaluator {
	env, err := cel.NewEnv(
		cel.Variable("state", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL environment: %v", err))
	}

	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}
}

// Eval evaluates a CEL expression. Every binding is declared as a dynamic
// variable of the same name.
func (e *Evaluator) Eval(ctx context.Context, expression string, vars map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression, varNames(vars))
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	out, _, err := program.ContextEval(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	result, err := toNative(out)
	if err != nil {
		return nil, fmt.Errorf("failed to convert result: %w", err)
	}

	return result, nil
}

var (
	nativeMapType  = reflect.TypeOf(map[string]interface{}{})
	nativeListType = reflect.TypeOf([]interface{}{})
)

// toNative converts CEL maps and lists to plain Go collections
func toNative(out ref.Val) (interface{}, error) {
	switch out.(type) {
	case traits.Mapper:
		return out.ConvertToNative(nativeMapType)
	case traits.Lister:
		return out.ConvertToNative(nativeListType)
	default:
		return out.Value(), nil
	}
}

// getProgram returns the program compiled for expression over the given
// variable names, compiling it on first use
func (e *Evaluator) getProgram(expression string, names []string) (cel.Program, error) {
	key := strings.Join(names, ",") + "\x00" + expression

	e.mu.RLock()
	if program, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if program, ok := e.cache[key]; ok {
		return program, nil
	}

	env, err := e.envFor(names)
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	program, err := env.Program(ast, cel.InterruptCheckFrequency(100))
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	e.cache[key] = program

	return program, nil
}

// envFor extends the base environment with one dynamic variable per binding
func (e *Evaluator) envFor(names []string) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(names))
	for _, name := range names {
		if name == "state" {
			continue
		}
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	if len(opts) == 0 {
		return e.env, nil
	}

	env, err := e.env.Extend(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to declare variables: %w", err)
	}
	return env, nil
}

// ValidateExpression validates a CEL expression without evaluating it
func (e *Evaluator) ValidateExpression(expression string, names ...string) error {
	env, err := e.envFor(names)
	if err != nil {
		return err
	}

	_, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}

	return nil
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}

func varNames(vars map[string]interface{}) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
