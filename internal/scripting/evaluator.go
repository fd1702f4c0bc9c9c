package scripting

import (
	"context"
	"fmt"
	"reflect"
)

// Engine executes script text. Concrete engines live outside this package.
type Engine interface {
	Eval(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error)
}

// isNilEngine reports whether engine is nil, including a typed nil pointer
// held in the interface
func isNilEngine(engine Engine) bool {
	if engine == nil {
		return true
	}
	v := reflect.ValueOf(engine)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Evaluator runs scripts for one language
type Evaluator interface {
	// Language returns the provider name the evaluator was resolved for.
	Language() string

	// Evaluate runs the script against the bindings.
	Evaluate(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error)
}

// engineEvaluator is the Evaluator backed by a single resolved Engine
type engineEvaluator struct {
	language string
	engine   Engine
}

// NewEvaluator wraps an engine in an Evaluator
func NewEvaluator(language string, engine Engine) Evaluator {
	return &engineEvaluator{
		language: language,
		engine:   engine,
	}
}

// Language returns the language name
func (e *engineEvaluator) Language() string {
	return e.language
}

// Evaluate runs the script on the wrapped engine
func (e *engineEvaluator) Evaluate(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error) {
	if bindings == nil {
		bindings = map[string]interface{}{}
	}

	result, err := e.engine.Eval(ctx, script, bindings)
	if err != nil {
		return nil, fmt.Errorf("%s evaluation failed: %w", e.language, err)
	}

	return result, nil
}
