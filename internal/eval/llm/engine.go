package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-eval/internal/eval/template"
	"go.uber.org/zap"
)

// Language is the name the llm engine registers under
const Language = "llm"

// DefaultMaxTokens bounds the completion length
const DefaultMaxTokens = 1024

// Engine sends rendered prompts to an LLM
type Engine struct {
	client    ports.LLMClient
	prompts   *template.Engine
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewEngine creates a new LLM engine
func NewEngine(client ports.LLMClient, model string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:    client,
		prompts:   template.NewEngine(),
		model:     model,
		maxTokens: DefaultMaxTokens,
		logger:    logger,
	}
}

// WithTimeout bounds each completion call. Zero means no bound beyond the
// caller's context.
func (e *Engine) WithTimeout(timeout time.Duration) *Engine {
	e.timeout = timeout
	return e
}

// Eval renders the prompt and returns the model response
func (e *Engine) Eval(ctx context.Context, script string, bindings map[string]interface{}) (interface{}, error) {
	if e.client == nil {
		return nil, fmt.Errorf("llm client not configured")
	}

	prompt, err := e.RenderPrompt(script, bindings)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("calling llm", zap.String("model", e.model), zap.String("prompt", prompt))

	req := &domain.LLMRequest{
		Model: e.model,
		Messages: []domain.Message{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		MaxTokens: e.maxTokens,
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	respInterface, err := e.client.GenerateCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm completion failed: %w", err)
	}

	// Type assert response
	resp, ok := respInterface.(*domain.LLMResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type from LLM: %T", respInterface)
	}

	return strings.TrimSpace(resp.Content), nil
}

// RenderPrompt renders the prompt template with the bindings
func (e *Engine) RenderPrompt(script string, bindings map[string]interface{}) (string, error) {
	prompt, err := e.prompts.Render(script, bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return prompt, nil
}
