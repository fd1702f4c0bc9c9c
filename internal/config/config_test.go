package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "eval-1", cfg.WorkerID)
	assert.Equal(t, "eval.work", cfg.StreamKey)
	assert.Equal(t, []string{SourceBuiltin, SourceGlobal, SourcePlugins}, cfg.EngineSources)
	assert.Equal(t, "cel", cfg.EngineAliases["expr"])
	assert.Equal(t, "rego", cfg.EngineAliases["opa"])
	assert.NotContains(t, cfg.String(), "LLMAPIKey")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("WORKER_ID", "eval-7")
	t.Setenv("ENGINE_SOURCES", "plugins, builtin")
	t.Setenv("ENGINE_ALIASES", "js:cel, tpl:handlebars")
	t.Setenv("EVAL_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "eval-7", cfg.WorkerID)
	assert.Equal(t, []string{SourcePlugins, SourceBuiltin}, cfg.EngineSources)
	assert.Equal(t, map[string]string{"js": "cel", "tpl": "handlebars"}, cfg.EngineAliases)
	assert.Equal(t, "250ms", cfg.EvalTimeout.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown source",
			env:  map[string]string{"ENGINE_SOURCES": "builtin,classpath"},
			want: `unknown source "classpath"`,
		},
		{
			name: "duplicate source",
			env:  map[string]string{"ENGINE_SOURCES": "builtin,builtin"},
			want: "listed twice",
		},
		{
			name: "empty sources",
			env:  map[string]string{"ENGINE_SOURCES": " , "},
			want: "ENGINE_SOURCES must name at least one source",
		},
		{
			name: "bad log level",
			env:  map[string]string{"LOG_LEVEL": "trace"},
			want: "LOG_LEVEL",
		},
		{
			name: "zero timeout",
			env:  map[string]string{"EVAL_TIMEOUT": "0s"},
			want: "EVAL_TIMEOUT must be positive",
		},
		{
			name: "bad port",
			env:  map[string]string{"HEALTH_PORT": "70000"},
			want: "HEALTH_PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
