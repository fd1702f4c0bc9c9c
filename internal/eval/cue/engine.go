package cue

import (
	"context"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Language is the name the cue engine registers under
const Language = "cue"

var resultPath = cue.ParsePath("result")

// Engine evaluates CUE scripts. A cue.Context is not safe for concurrent
// use, so evaluations are serialized.
type Engine struct {
	mu  sync.Mutex
	ctx *cue.Context
}

// NewEngine creates a new CUE engine
func NewEngine() *Engine {
	return &Engine{
		ctx: cuecontext.New(),
	}
}

// Eval compiles the script with the bindings in scope and decodes the result
func (e *Engine) Eval(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if bindings == nil {
		bindings = map[string]interface{}{}
	}

	scope := e.ctx.Encode(bindings)
	if err := scope.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode bindings: %w", err)
	}

	value := e.ctx.CompileString(script, cue.Filename("script.cue"), cue.Scope(scope))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}

	if result := value.LookupPath(resultPath); result.Exists() {
		value = result
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("script is not concrete: %w", err)
	}

	var out interface{}
	if err := value.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	return out, nil
}
