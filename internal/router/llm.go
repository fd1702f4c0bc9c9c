package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aescanero/dago-node-eval/internal/scripting"
	"go.uber.org/zap"
)

// routeLLM needs the llm evaluator; without it routing fails instead of
// falling back
func (r *Router) routeLLM(ctx context.Context, bindings map[string]interface{}, config *NodeConfig) (*RoutingResult, error) {
	evaluator, err := r.evaluators.GetEvaluator(LLMLanguage)
	if err != nil {
		return nil, fmt.Errorf("llm routing unavailable: %w", err)
	}

	return r.classify(ctx, evaluator, bindings, config.LLMConfig, config.Fallback, ModeLLM, ""), nil
}

// classify asks the llm evaluator for a label and maps it to a route.
// LLM failures fall back to the default route.
func (r *Router) classify(
	ctx context.Context,
	evaluator scripting.Evaluator,
	bindings map[string]interface{},
	llmConfig *LLMConfig,
	fallback string,
	mode RoutingMode,
	suffix string,
) *RoutingResult {
	out, err := evaluator.Evaluate(ctx, llmConfig.PromptTemplate, bindings)
	if err != nil {
		r.logger.Error("llm call failed", zap.Error(err))
		return &RoutingResult{
			TargetNode: fallback,
			Reasoning:  fmt.Sprintf("llm call failed: %v", err),
			Mode:       string(mode),
			PathTaken:  PathFallback,
		}
	}

	response := fmt.Sprint(out)
	r.logger.Debug("llm response received", zap.String("response", response))

	target, matched := r.matchLLMResponse(response, llmConfig.Routes)
	if !matched {
		r.logger.Warn("llm response did not match any route",
			zap.String("response", response),
		)
		return &RoutingResult{
			TargetNode: fallback,
			Reasoning:  fmt.Sprintf("llm response %q did not match any route", response),
			Mode:       string(mode),
			PathTaken:  PathFallback,
		}
	}

	return &RoutingResult{
		TargetNode: target,
		Reasoning:  fmt.Sprintf("llm classified as: %s%s", response, suffix),
		Mode:       string(mode),
		PathTaken:  PathSlow,
	}
}

// matchLLMResponse maps a response to a route: exact key, then
// case-insensitive key, then a key contained in the response. Keys are tried
// longest first, ties in lexical order.
func (r *Router) matchLLMResponse(response string, routes map[string]string) (string, bool) {
	normalized := strings.TrimSpace(strings.ToLower(response))

	if target, ok := routes[normalized]; ok {
		return target, true
	}

	keys := make([]string, 0, len(routes))
	for key := range routes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		if strings.EqualFold(key, normalized) {
			return routes[key], true
		}
	}

	for _, key := range keys {
		target := routes[key]
		if strings.Contains(normalized, strings.ToLower(key)) {
			r.logger.Debug("matched route by partial match",
				zap.String("response", response),
				zap.String("matched_key", key),
			)
			return target, true
		}
	}

	return "", false
}
