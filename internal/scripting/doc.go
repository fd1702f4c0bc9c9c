// Package scripting resolves script evaluators by language name.
//
// An Evaluator wraps one Engine found in an ordered list of lookup sources
// (engine registries). Factories memoize evaluators per language so discovery
// runs once per name for the life of the factory.
//
// Example usage:
//
//	builtin := scripting.NewRegistry("builtin", logger)
//	builtin.Register("cel", func() (scripting.Engine, error) {
//	    return cel.NewEngine(), nil
//	})
//
//	factory, err := scripting.NewMultiSourceFactory([]scripting.LookupSource{builtin, plugins})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	evaluator, err := factory.GetEvaluator("cel")
//	if err != nil {
//	    log.Fatal(err) // *SetupError
//	}
//	result, err := evaluator.Evaluate(ctx, "x > 5", map[string]interface{}{"x": 7})
//
// Failed resolutions are not cached: a later call for the same language runs
// discovery again. Successful evaluators are never replaced or evicted.
package scripting
