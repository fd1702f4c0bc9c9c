package scripting

// LookupSource answers whether it has an engine for a provider name.
type LookupSource interface {
	FindEngine(name string) (Engine, bool)
}

// LookupFunc adapts a function to LookupSource
type LookupFunc func(name string) (Engine, bool)

// FindEngine calls f
func (f LookupFunc) FindEngine(name string) (Engine, bool) {
	return f(name)
}

// Resolve asks each source in order for an engine named name and wraps the
// first one found. Sources after the match are not queried. A source that
// answers with a nil engine, typed or not, counts as not having it.
func Resolve(name string, sources []LookupSource) (Evaluator, error) {
	for _, source := range sources {
		engine, ok := source.FindEngine(name)
		if ok && !isNilEngine(engine) {
			return NewEvaluator(name, engine), nil
		}
	}

	return nil, &NotFoundError{Name: name}
}
