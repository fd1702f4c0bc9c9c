package scripting

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// EngineFactory builds an engine on first lookup
type EngineFactory func() (Engine, error)

// Registry is a named, scoped set of engine factories. It implements
// LookupSource; engines are built lazily and reused by the registry.
type Registry struct {
	name      string
	factories map[string]EngineFactory
	aliases   map[string]string
	engines   map[string]Engine
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(name string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		name:      name,
		factories: make(map[string]EngineFactory),
		aliases:   make(map[string]string),
		engines:   make(map[string]Engine),
		logger:    logger.With(zap.String("registry", name)),
	}
}

// Name returns the registry name
func (r *Registry) Name() string {
	return r.name
}

// Register adds a factory for an engine name, replacing any previous one.
func (r *Registry) Register(name string, factory EngineFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
	delete(r.engines, name)
}

// RegisterEngine registers an already built engine
func (r *Registry) RegisterEngine(name string, engine Engine) {
	r.Register(name, func() (Engine, error) {
		return engine, nil
	})
}

// Alias makes alias resolve to the engine registered as target
func (r *Registry) Alias(alias, target string) error {
	if alias == "" || target == "" {
		return fmt.Errorf("alias and target are required")
	}
	if alias == target {
		return fmt.Errorf("alias %q points to itself", alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = target
	return nil
}

// Has reports whether name (or an alias of it) is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[r.canonical(name)]
	return ok
}

// Names returns the registered engine names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// FindEngine returns the engine for name, building it on first use.
// A factory error or nil engine is logged and reported as absent.
func (r *Registry) FindEngine(name string) (Engine, bool) {
	// Check built engines first (read lock)
	r.mu.RLock()
	key := r.canonical(name)
	if engine, ok := r.engines[key]; ok {
		r.mu.RUnlock()
		return engine, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	key = r.canonical(name)
	if engine, ok := r.engines[key]; ok {
		return engine, true
	}

	factory, ok := r.factories[key]
	if !ok {
		return nil, false
	}

	engine, err := factory()
	if err != nil || isNilEngine(engine) {
		r.logger.Warn("failed to build script engine",
			zap.String("engine", key),
			zap.Error(err),
		)
		return nil, false
	}

	r.engines[key] = engine
	r.logger.Debug("script engine built", zap.String("engine", key))
	return engine, true
}

// canonical resolves one level of aliasing. Callers hold r.mu.
func (r *Registry) canonical(name string) string {
	if target, ok := r.aliases[name]; ok {
		return target
	}
	return name
}

var (
	registryMu     sync.RWMutex
	globalRegistry = NewRegistry("global", nil)
)

// Register adds an engine factory to the process-wide registry
func Register(name string, factory EngineFactory) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	globalRegistry.Register(name, factory)
}

// Default returns the process-wide registry
func Default() *Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return globalRegistry
}

// ResetDefault replaces the process-wide registry with an empty one
func ResetDefault() {
	registryMu.Lock()
	defer registryMu.Unlock()
	globalRegistry = NewRegistry("global", nil)
}
