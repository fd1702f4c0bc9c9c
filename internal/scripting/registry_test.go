package scripting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuildsEngineOnce(t *testing.T) {
	r := NewRegistry("builtin", nil)
	builds := 0
	r.Register("cel", func() (Engine, error) {
		builds++
		return &echoEngine{tag: "cel"}, nil
	})

	first, ok := r.FindEngine("cel")
	require.True(t, ok)
	second, ok := r.FindEngine("cel")
	require.True(t, ok)

	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)
}

func TestRegistry_Missing(t *testing.T) {
	r := NewRegistry("builtin", nil)

	engine, ok := r.FindEngine("lua")
	assert.False(t, ok)
	assert.Nil(t, engine)
	assert.False(t, r.Has("lua"))
}

func TestRegistry_FactoryErrorIsAbsent(t *testing.T) {
	r := NewRegistry("plugins", nil)
	r.Register("llm", func() (Engine, error) {
		return nil, errors.New("no api key")
	})

	_, ok := r.FindEngine("llm")
	assert.False(t, ok)
	assert.True(t, r.Has("llm"))
}

func TestRegistry_TypedNilEngineIsAbsent(t *testing.T) {
	r := NewRegistry("plugins", nil)
	r.Register("llm", func() (Engine, error) {
		var engine *echoEngine
		return engine, nil
	})

	engine, ok := r.FindEngine("llm")
	assert.False(t, ok)
	assert.Nil(t, engine)
}

func TestRegistry_Alias(t *testing.T) {
	r := NewRegistry("builtin", nil)
	r.RegisterEngine("handlebars", &echoEngine{tag: "hbs"})
	require.NoError(t, r.Alias("hbs", "handlebars"))

	viaAlias, ok := r.FindEngine("hbs")
	require.True(t, ok)
	direct, ok := r.FindEngine("handlebars")
	require.True(t, ok)

	assert.Same(t, direct, viaAlias)
	assert.True(t, r.Has("hbs"))
	assert.Equal(t, []string{"handlebars"}, r.Names())

	assert.Error(t, r.Alias("", "handlebars"))
	assert.Error(t, r.Alias("x", "x"))
}

func TestRegistry_ReRegisterReplacesEngine(t *testing.T) {
	r := NewRegistry("builtin", nil)
	r.RegisterEngine("cel", &echoEngine{tag: "old"})
	old, _ := r.FindEngine("cel")

	r.RegisterEngine("cel", &echoEngine{tag: "new"})
	current, _ := r.FindEngine("cel")

	assert.NotSame(t, old, current)
	assert.Equal(t, "new", current.(*echoEngine).tag)
}

func TestDefaultRegistry(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	Register("cel", func() (Engine, error) {
		return &echoEngine{tag: "global"}, nil
	})

	assert.Equal(t, "global", Default().Name())
	assert.True(t, Default().Has("cel"))

	f, err := NewMultiSourceFactory([]LookupSource{Default()})
	require.NoError(t, err)
	evaluator, err := f.GetEvaluator("cel")
	require.NoError(t, err)
	assert.Equal(t, "cel", evaluator.Language())
}
