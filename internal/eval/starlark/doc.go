// Package starlark provides the Starlark script engine.
//
// Bindings are predeclared as globals. The value of the global named "result"
// is returned when the script defines it; otherwise all exported globals are
// returned as a map.
//
//	engine := starlark.NewEngine(5 * time.Second)
//	out, err := engine.Eval(ctx, "result = count * 2", map[string]interface{}{"count": 21})
//	// out == int64(42)
package starlark
