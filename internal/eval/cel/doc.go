// Package cel is the CEL script engine.
//
// Each binding becomes a dynamic variable of the same name; "state" is
// always declared as a map so conditions over graph state type-check even
// when no state was loaded. Programs are compiled once per expression and
// variable set.
//
//	e := cel.NewEvaluator()
//	out, err := e.Eval(ctx, "state.score > threshold", map[string]interface{}{
//	    "state":     map[string]interface{}{"score": 0.95},
//	    "threshold": 0.8,
//	})
//	// out == true
//
// Maps and lists come back as map[string]interface{} and []interface{}.
package cel
