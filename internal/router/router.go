package router

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-node-eval/internal/scripting"
	"go.uber.org/zap"
)

// RoutingMode represents the routing strategy
type RoutingMode string

const (
	// ModeDeterministic evaluates rule conditions in order
	ModeDeterministic RoutingMode = "deterministic"

	// ModeLLM uses LLM for semantic routing
	ModeLLM RoutingMode = "llm"

	// ModeHybrid uses rule conditions with LLM fallback
	ModeHybrid RoutingMode = "hybrid"
)

// DefaultLanguage is used for rule conditions that name no language
const DefaultLanguage = "cel"

// LLMLanguage is the evaluator used for semantic routing
const LLMLanguage = "llm"

// NodeConfig represents the routing configuration for a node
type NodeConfig struct {
	Mode        RoutingMode            `json:"mode"`
	Language    string                 `json:"language,omitempty"`
	Rules       []Rule                 `json:"rules,omitempty"`
	FastRules   []Rule                 `json:"fast_rules,omitempty"`
	LLMConfig   *LLMConfig             `json:"llm_config,omitempty"`
	LLMFallback *LLMConfig             `json:"llm_fallback,omitempty"`
	Fallback    string                 `json:"fallback"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

// Rule is a routing condition written in any registered script language
type Rule struct {
	Condition string `json:"condition"`
	Target    string `json:"target"`
	Language  string `json:"language,omitempty"`
}

// LLMConfig represents LLM routing configuration
type LLMConfig struct {
	PromptTemplate string            `json:"prompt_template"`
	Routes         map[string]string `json:"routes"`
}

// Paths a routing decision can take
const (
	PathFast     = "fast"
	PathSlow     = "slow"
	PathFallback = "fallback"
)

// RoutingResult represents the result of a routing decision
type RoutingResult struct {
	TargetNode string `json:"target_node"`
	Reasoning  string `json:"reasoning"`
	Mode       string `json:"mode"`
	PathTaken  string `json:"path_taken"`
}

// Router evaluates routing node configurations
type Router struct {
	evaluators scripting.Factory
	logger     *zap.Logger
}

// NewRouter creates a router resolving condition languages through evaluators
func NewRouter(evaluators scripting.Factory, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		evaluators: evaluators,
		logger:     logger,
	}
}

// Route picks a target node. The config is not modified.
func (r *Router) Route(ctx context.Context, bindings map[string]interface{}, config *NodeConfig) (*RoutingResult, error) {
	if config == nil {
		return nil, fmt.Errorf("invalid config: config is nil")
	}

	mode := config.Mode
	if mode == "" {
		mode = config.inferMode()
	}

	if err := config.validate(mode); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var (
		result *RoutingResult
		err    error
	)
	switch mode {
	case ModeDeterministic:
		result = r.routeDeterministic(ctx, bindings, config)
	case ModeLLM:
		result, err = r.routeLLM(ctx, bindings, config)
	case ModeHybrid:
		result = r.routeHybrid(ctx, bindings, config)
	}
	if err != nil {
		r.logger.Error("routing failed", zap.String("mode", string(mode)), zap.Error(err))
		return nil, err
	}

	r.logger.Info("routing decision",
		zap.String("mode", string(mode)),
		zap.String("target", result.TargetNode),
		zap.String("path", result.PathTaken),
		zap.String("reasoning", result.Reasoning),
	)

	return result, nil
}

// inferMode picks hybrid for fast rules plus an llm fallback, llm for an llm
// config alone, and deterministic otherwise
func (c *NodeConfig) inferMode() RoutingMode {
	switch {
	case len(c.FastRules) > 0 && c.LLMFallback != nil:
		return ModeHybrid
	case c.LLMConfig != nil:
		return ModeLLM
	default:
		return ModeDeterministic
	}
}

// languageFor picks the rule language, then the node language, then the default
func languageFor(rule Rule, config *NodeConfig) string {
	if rule.Language != "" {
		return rule.Language
	}
	if config.Language != "" {
		return config.Language
	}
	return DefaultLanguage
}

func (c *NodeConfig) validate(mode RoutingMode) error {
	if c.Fallback == "" {
		return fmt.Errorf("fallback route is required")
	}

	switch mode {
	case ModeDeterministic:
		return validateRules("rules", c.Rules)
	case ModeLLM:
		return validateLLMConfig("llm_config", c.LLMConfig)
	case ModeHybrid:
		if err := validateRules("fast_rules", c.FastRules); err != nil {
			return err
		}
		return validateLLMConfig("llm_fallback", c.LLMFallback)
	default:
		return fmt.Errorf("unknown routing mode: %s", mode)
	}
}

func validateRules(field string, rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	for i, rule := range rules {
		if rule.Condition == "" {
			return fmt.Errorf("%s[%d]: condition is required", field, i)
		}
		if rule.Target == "" {
			return fmt.Errorf("%s[%d]: target is required", field, i)
		}
	}
	return nil
}

func validateLLMConfig(field string, llmConfig *LLMConfig) error {
	switch {
	case llmConfig == nil:
		return fmt.Errorf("%s is required", field)
	case llmConfig.PromptTemplate == "":
		return fmt.Errorf("%s.prompt_template is required", field)
	case len(llmConfig.Routes) == 0:
		return fmt.Errorf("%s.routes is required", field)
	}
	return nil
}
