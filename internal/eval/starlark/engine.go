package starlark

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Language is the name the starlark engine registers under
const Language = "starlark"

// ResultGlobal is the global read back as the script result
const ResultGlobal = "result"

// Engine executes Starlark scripts
type Engine struct {
	timeout time.Duration
}

// NewEngine creates a new Starlark engine
func NewEngine(timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second // Default timeout
	}
	return &Engine{
		timeout: timeout,
	}
}

// Eval executes a script with the bindings predeclared
func (e *Engine) Eval(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error) {
	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	thread := &starlark.Thread{
		Name: "eval",
		Print: func(_ *starlark.Thread, msg string) {
			// Suppress print
		},
	}

	// Interrupt the interpreter when the context ends
	stop := context.AfterFunc(evalCtx, func() {
		thread.Cancel(evalCtx.Err().Error())
	})
	defer stop()

	predeclared := starlark.StringDict{
		"struct": starlarkstruct.Default,
	}
	for key, val := range bindings {
		starlarkVal, err := toStarlarkValue(val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert binding %s: %w", key, err)
		}
		predeclared[key] = starlarkVal
	}

	globals, err := starlark.ExecFile(thread, "script.star", script, predeclared)
	if err != nil {
		if ctxErr := evalCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("starlark execution interrupted after %v: %w", e.timeout, ctxErr)
		}
		return nil, fmt.Errorf("starlark execution failed: %w", err)
	}

	if val, ok := globals[ResultGlobal]; ok {
		return fromStarlarkValue(val)
	}

	output := make(map[string]interface{})
	for _, name := range sortedNames(globals) {
		// Skip internal variables (starting with _)
		if name[0] == '_' {
			continue
		}
		if _, isFunc := globals[name].(*starlark.Function); isFunc {
			continue
		}
		goVal, err := fromStarlarkValue(globals[name])
		if err != nil {
			return nil, fmt.Errorf("failed to convert output %s: %w", name, err)
		}
		output[name] = goVal
	}

	return output, nil
}

func sortedNames(globals starlark.StringDict) []string {
	names := make([]string, 0, len(globals))
	for name := range globals {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// toStarlarkValue converts a Go value to a Starlark value.
func toStarlarkValue(v interface{}) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int32:
		return starlark.MakeInt64(int64(val)), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case uint64:
		return starlark.MakeUint64(val), nil
	case *big.Int:
		return starlark.MakeBigInt(val), nil
	case float32:
		return starlark.Float(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []string:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			list[i] = starlark.String(item)
		}
		return starlark.NewList(list), nil
	case []interface{}:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			starlarkItem, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = starlarkItem
		}
		return starlark.NewList(list), nil
	case map[string]interface{}:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			starlarkVal, err := toStarlarkValue(v)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), starlarkVal); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// fromStarlarkValue converts a Starlark value to a Go value.
// Integers outside the int64 range come back as *big.Int.
func fromStarlarkValue(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i, nil
		}
		return val.BigInt(), nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case starlark.Tuple:
		return fromSequence(val)
	case *starlark.List:
		return fromSequence(val)
	case *starlark.Dict:
		dict := make(map[string]interface{})
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string")
			}
			value, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			dict[string(key)] = value
		}
		return dict, nil
	case *starlarkstruct.Struct:
		dict := make(map[string]interface{})
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				continue
			}
			value, err := fromStarlarkValue(attr)
			if err != nil {
				return nil, err
			}
			dict[name] = value
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}

func fromSequence(seq starlark.Indexable) ([]interface{}, error) {
	list := make([]interface{}, seq.Len())
	for i := 0; i < seq.Len(); i++ {
		item, err := fromStarlarkValue(seq.Index(i))
		if err != nil {
			return nil, err
		}
		list[i] = item
	}
	return list, nil
}
