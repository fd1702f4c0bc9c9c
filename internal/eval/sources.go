package eval

import (
	"fmt"

	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-eval/internal/config"
	"github.com/aescanero/dago-node-eval/internal/eval/cel"
	"github.com/aescanero/dago-node-eval/internal/eval/cue"
	"github.com/aescanero/dago-node-eval/internal/eval/llm"
	"github.com/aescanero/dago-node-eval/internal/eval/rego"
	"github.com/aescanero/dago-node-eval/internal/eval/starlark"
	"github.com/aescanero/dago-node-eval/internal/eval/template"
	"github.com/aescanero/dago-node-eval/internal/scripting"
	"go.uber.org/zap"
)

// NewBuiltinRegistry registers the in-process engines and aliases
func NewBuiltinRegistry(cfg *config.Config, logger *zap.Logger) (*scripting.Registry, error) {
	r := scripting.NewRegistry(config.SourceBuiltin, logger)

	r.Register(cel.Language, func() (scripting.Engine, error) {
		return cel.NewEvaluator(), nil
	})
	r.Register(template.Language, func() (scripting.Engine, error) {
		return template.NewEngine(), nil
	})
	r.Register(starlark.Language, func() (scripting.Engine, error) {
		return starlark.NewEngine(cfg.StarlarkTimeout), nil
	})
	r.Register(rego.Language, func() (scripting.Engine, error) {
		return rego.NewEngine(), nil
	})
	r.Register(cue.Language, func() (scripting.Engine, error) {
		return cue.NewEngine(), nil
	})

	if err := applyAliases(r, cfg.EngineAliases); err != nil {
		return nil, err
	}

	return r, nil
}

// NewPluginRegistry registers engines backed by external services and the
// configured aliases. The llm engine is only available when a client is given.
func NewPluginRegistry(cfg *config.Config, llmClient ports.LLMClient, logger *zap.Logger) (*scripting.Registry, error) {
	r := scripting.NewRegistry(config.SourcePlugins, logger)

	if llmClient != nil {
		r.Register(llm.Language, func() (scripting.Engine, error) {
			return llm.NewEngine(llmClient, cfg.LLMModel, logger).WithTimeout(cfg.LLMTimeout), nil
		})
	}

	if err := applyAliases(r, cfg.EngineAliases); err != nil {
		return nil, err
	}

	return r, nil
}

// applyAliases adds every alias to r. A registry without the target engine
// reports the alias as absent, so the alias resolves in whichever source
// holds its target.
func applyAliases(r *scripting.Registry, aliases map[string]string) error {
	for alias, target := range aliases {
		if err := r.Alias(alias, target); err != nil {
			return fmt.Errorf("invalid engine alias %q: %w", alias, err)
		}
	}
	return nil
}

// NewSources returns the lookup sources in configured order
func NewSources(cfg *config.Config, llmClient ports.LLMClient, logger *zap.Logger) ([]scripting.LookupSource, error) {
	sources := make([]scripting.LookupSource, 0, len(cfg.EngineSources))

	for _, name := range cfg.EngineSources {
		switch name {
		case config.SourceBuiltin:
			builtin, err := NewBuiltinRegistry(cfg, logger)
			if err != nil {
				return nil, err
			}
			sources = append(sources, builtin)
		case config.SourceGlobal:
			sources = append(sources, scripting.Default())
		case config.SourcePlugins:
			plugins, err := NewPluginRegistry(cfg, llmClient, logger)
			if err != nil {
				return nil, err
			}
			sources = append(sources, plugins)
		default:
			return nil, fmt.Errorf("unknown lookup source %q", name)
		}
	}

	return sources, nil
}

// NewFactory builds the caching evaluator factory over the configured sources
func NewFactory(cfg *config.Config, llmClient ports.LLMClient, logger *zap.Logger) (*scripting.MultiSourceFactory, error) {
	sources, err := NewSources(cfg, llmClient, logger)
	if err != nil {
		return nil, err
	}

	factory, err := scripting.NewMultiSourceFactory(sources, scripting.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluator factory: %w", err)
	}

	return factory, nil
}
