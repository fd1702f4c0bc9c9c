// Package router picks the next node of a graph from a routing node
// configuration.
//
// Every condition is a script run through a scripting.Factory, so a rule may
// be written in any language the worker can resolve. Rules without a
// language use the node's Language, then cel.
//
// Modes:
//   - deterministic: rules in order, the first one evaluating to true wins
//   - llm: the prompt is sent to the llm evaluator and its answer is matched
//     against the configured routes
//   - hybrid: fast rules first, the llm only when none of them matched
//
// A rule whose language is unknown, whose script fails, or whose value is not
// a boolean is skipped and logged. Routing then falls through to Fallback.
//
//	result, err := r.Route(ctx, bindings, &router.NodeConfig{
//	    Mode: router.ModeDeterministic,
//	    Rules: []router.Rule{
//	        {Condition: `state.priority == "high"`, Target: "urgent"},
//	        {Condition: `input.state.score > 0.8`, Target: "premium", Language: "rego"},
//	    },
//	    Fallback: "default",
//	})
//
// The mode is inferred when omitted: FastRules plus LLMFallback means hybrid,
// an LLMConfig alone means llm, anything else deterministic.
package router
