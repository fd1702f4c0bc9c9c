package scripting

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Factory returns an evaluator for a language. Failures are always *SetupError.
type Factory interface {
	GetEvaluator(name string) (Evaluator, error)
}

// Creator builds a new evaluator for a language. It is the hook factories
// call for names they cannot serve yet.
type Creator interface {
	CreateEvaluator(name string) (Evaluator, error)
}

// CreatorFunc adapts a function to Creator
type CreatorFunc func(name string) (Evaluator, error)

// CreateEvaluator calls f
func (f CreatorFunc) CreateEvaluator(name string) (Evaluator, error) {
	return f(name)
}

// Option configures a factory
type Option func(*CacheableFactory)

// WithLogger sets the factory logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *CacheableFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// CacheableFactory memoizes evaluators built by a Creator.
//
// At most one creation runs per name at a time; concurrent callers wait for
// it and share its outcome. Successful evaluators are stored once and never
// replaced. Failures are returned but not stored.
type CacheableFactory struct {
	creator  Creator
	cache    map[string]Evaluator
	mu       sync.RWMutex
	inflight singleflight.Group
	logger   *zap.Logger
}

// NewCacheableFactory creates a caching factory around creator
func NewCacheableFactory(creator Creator, opts ...Option) *CacheableFactory {
	f := &CacheableFactory{
		creator: creator,
		cache:   make(map[string]Evaluator),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// GetEvaluator returns the cached evaluator for name or creates one
func (f *CacheableFactory) GetEvaluator(name string) (Evaluator, error) {
	// Check cache first (read lock)
	if evaluator, ok := f.lookup(name); ok {
		return evaluator, nil
	}

	v, err, shared := f.inflight.Do(name, func() (interface{}, error) {
		// Check again in case a previous flight stored it
		if evaluator, ok := f.lookup(name); ok {
			return evaluator, nil
		}

		evaluator, err := f.creator.CreateEvaluator(name)
		if err != nil {
			return nil, err
		}
		if evaluator == nil {
			return nil, &NotFoundError{Name: name}
		}

		f.mu.Lock()
		f.cache[name] = evaluator
		f.mu.Unlock()

		f.logger.Debug("evaluator cached", zap.String("language", name))
		return evaluator, nil
	})
	if err != nil {
		f.logger.Warn("failed to create evaluator",
			zap.String("language", name),
			zap.Bool("shared", shared),
			zap.Error(err),
		)
		return nil, asSetupError(name, err)
	}

	return v.(Evaluator), nil
}

// Cached reports whether an evaluator for name is cached
func (f *CacheableFactory) Cached(name string) bool {
	_, ok := f.lookup(name)
	return ok
}

// Len returns the number of cached evaluators
func (f *CacheableFactory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

// Languages returns the cached language names, sorted
func (f *CacheableFactory) Languages() []string {
	f.mu.RLock()
	names := make([]string, 0, len(f.cache))
	for name := range f.cache {
		names = append(names, name)
	}
	f.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (f *CacheableFactory) lookup(name string) (Evaluator, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	evaluator, ok := f.cache[name]
	return evaluator, ok
}

func asSetupError(name string, err error) error {
	var setupErr *SetupError
	if errors.As(err, &setupErr) {
		return setupErr
	}
	return &SetupError{Name: name, Err: err}
}

// MultiSourceFactory resolves engines over a fixed, ordered list of lookup
// sources and caches the resulting evaluators.
type MultiSourceFactory struct {
	*CacheableFactory
	sources []LookupSource
}

// NewMultiSourceFactory creates a factory searching sources in order.
// It fails with ErrNoSources when sources is empty.
func NewMultiSourceFactory(sources []LookupSource, opts ...Option) (*MultiSourceFactory, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	for i, source := range sources {
		if source == nil {
			return nil, &nilSourceError{index: i}
		}
	}

	f := &MultiSourceFactory{
		sources: append([]LookupSource(nil), sources...),
	}
	f.CacheableFactory = NewCacheableFactory(f, opts...)

	return f, nil
}

// CreateEvaluator resolves name over the configured sources
func (f *MultiSourceFactory) CreateEvaluator(name string) (Evaluator, error) {
	evaluator, err := Resolve(name, f.sources)
	if err != nil {
		return nil, &SetupError{Name: name, Err: err}
	}
	return evaluator, nil
}

// Sources returns the number of configured lookup sources
func (f *MultiSourceFactory) Sources() int {
	return len(f.sources)
}
