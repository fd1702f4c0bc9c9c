package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// routeHybrid tries the fast rules and asks the llm only when none matched
func (r *Router) routeHybrid(ctx context.Context, bindings map[string]interface{}, config *NodeConfig) *RoutingResult {
	if i, rule, ok := r.firstMatch(ctx, bindings, config, config.FastRules); ok {
		return &RoutingResult{
			TargetNode: rule.Target,
			Reasoning:  fmt.Sprintf("matched fast rule %d: %s", i, rule.Condition),
			Mode:       string(ModeHybrid),
			PathTaken:  PathFast,
		}
	}

	evaluator, err := r.evaluators.GetEvaluator(LLMLanguage)
	if err != nil {
		r.logger.Warn("llm evaluator unavailable, using fallback route", zap.Error(err))
		return &RoutingResult{
			TargetNode: config.Fallback,
			Reasoning:  "fast rules did not match and llm engine not available",
			Mode:       string(ModeHybrid),
			PathTaken:  PathFallback,
		}
	}

	return r.classify(ctx, evaluator, bindings, config.LLMFallback, config.Fallback, ModeHybrid, " (after fast rules failed)")
}
