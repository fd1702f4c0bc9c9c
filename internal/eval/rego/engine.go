package rego

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

// Language is the name the rego engine registers under
const Language = "rego"

// Engine evaluates Rego queries and modules
type Engine struct {
	mu      sync.RWMutex
	queries map[string]rego.PreparedEvalQuery
}

// NewEngine creates a new rego engine
func NewEngine() *Engine {
	return &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
	}
}

// Eval evaluates the script with bindings as input
func (e *Engine) Eval(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error) {
	query, err := e.prepare(ctx, script)
	if err != nil {
		return nil, err
	}

	rs, err := query.Eval(ctx, rego.EvalInput(bindings))
	if err != nil {
		return nil, fmt.Errorf("rego evaluation failed: %w", err)
	}

	// Undefined
	if len(rs) == 0 {
		return nil, nil
	}

	result := rs[0]
	if len(result.Bindings) > 0 {
		out := make(map[string]interface{}, len(result.Bindings))
		for name, value := range result.Bindings {
			out[name] = value
		}
		return out, nil
	}

	if len(result.Expressions) == 1 {
		return result.Expressions[0].Value, nil
	}

	values := make([]interface{}, len(result.Expressions))
	for i, expr := range result.Expressions {
		values[i] = expr.Value
	}
	return values, nil
}

// prepare returns a cached prepared query or compiles one
func (e *Engine) prepare(ctx context.Context, script string) (rego.PreparedEvalQuery, error) {
	e.mu.RLock()
	if query, ok := e.queries[script]; ok {
		e.mu.RUnlock()
		return query, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if query, ok := e.queries[script]; ok {
		return query, nil
	}

	var options []func(*rego.Rego)
	if isModule(script) {
		module, err := ast.ParseModule("script.rego", script)
		if err != nil {
			return rego.PreparedEvalQuery{}, fmt.Errorf("failed to parse module: %w", err)
		}
		options = append(options,
			rego.Module("script.rego", script),
			rego.Query(module.Package.Path.String()),
		)
	} else {
		options = append(options, rego.Query(script))
	}

	query, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("failed to prepare query: %w", err)
	}

	e.queries[script] = query
	return query, nil
}

func isModule(script string) bool {
	return strings.HasPrefix(strings.TrimSpace(script), "package ")
}
