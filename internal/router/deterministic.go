package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

func (r *Router) routeDeterministic(ctx context.Context, bindings map[string]interface{}, config *NodeConfig) *RoutingResult {
	if i, rule, ok := r.firstMatch(ctx, bindings, config, config.Rules); ok {
		return &RoutingResult{
			TargetNode: rule.Target,
			Reasoning:  fmt.Sprintf("matched rule %d: %s", i, rule.Condition),
			Mode:       string(ModeDeterministic),
			PathTaken:  PathFast,
		}
	}

	r.logger.Info("no rules matched, using fallback", zap.String("fallback", config.Fallback))

	return &RoutingResult{
		TargetNode: config.Fallback,
		Reasoning:  "no rules matched",
		Mode:       string(ModeDeterministic),
		PathTaken:  PathFallback,
	}
}

// firstMatch returns the first rule whose condition is true
func (r *Router) firstMatch(ctx context.Context, bindings map[string]interface{}, config *NodeConfig, rules []Rule) (int, Rule, bool) {
	for i, rule := range rules {
		language := languageFor(rule, config)
		fields := []zap.Field{
			zap.Int("rule_index", i),
			zap.String("language", language),
			zap.String("condition", rule.Condition),
		}

		evaluator, err := r.evaluators.GetEvaluator(language)
		if err != nil {
			r.logger.Warn("rule language unavailable", append(fields, zap.Error(err))...)
			continue
		}

		out, err := evaluator.Evaluate(ctx, rule.Condition, bindings)
		if err != nil {
			r.logger.Warn("rule evaluation error", append(fields, zap.Error(err))...)
			continue
		}

		matched, ok := out.(bool)
		if !ok {
			r.logger.Warn("rule condition did not return boolean", append(fields, zap.Any("result", out))...)
			continue
		}

		if matched {
			r.logger.Debug("rule matched", append(fields, zap.String("target", rule.Target))...)
			return i, rule, true
		}
	}

	return -1, Rule{}, false
}
