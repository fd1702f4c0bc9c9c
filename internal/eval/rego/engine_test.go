package rego

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Eval(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	tests := []struct {
		name     string
		script   string
		bindings map[string]interface{}
		want     interface{}
		wantErr  bool
	}{
		{
			name:     "boolean query",
			script:   `input.role == "admin"`,
			bindings: map[string]interface{}{"role": "admin"},
			want:     true,
		},
		{
			name:     "arithmetic returns json number",
			script:   "input.x + 1",
			bindings: map[string]interface{}{"x": 41},
			want:     json.Number("42"),
		},
		{
			name:     "false comparison",
			script:   `input.role == "admin"`,
			bindings: map[string]interface{}{"role": "guest"},
			want:     false,
		},
		{
			name:     "undefined reference",
			script:   "input.missing",
			bindings: map[string]interface{}{"role": "guest"},
			want:     nil,
		},
		{
			name:     "variable assignment",
			script:   "y := input.x * 2",
			bindings: map[string]interface{}{"x": 3},
			want:     map[string]interface{}{"y": json.Number("6")},
		},
		{
			name:    "parse error",
			script:  "input.x ==",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Eval(ctx, tt.script, tt.bindings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_Module(t *testing.T) {
	engine := NewEngine()

	module := `package routing

default allow = false

allow {
	input.role == "admin"
}
`
	got, err := engine.Eval(context.Background(), module, map[string]interface{}{"role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"allow": true}, got)
}

func TestEngine_CachesPreparedQueries(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := engine.Eval(ctx, "input.x > 1", map[string]interface{}{"x": i})
		require.NoError(t, err)
	}

	engine.mu.RLock()
	defer engine.mu.RUnlock()
	assert.Len(t, engine.queries, 1)
}
