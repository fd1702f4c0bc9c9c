package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Eval(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	tests := []struct {
		name     string
		template string
		data     map[string]interface{}
		want     string
		wantErr  bool
	}{
		{
			name:     "plain field",
			template: "Hello {{name}}",
			data:     map[string]interface{}{"name": "World"},
			want:     "Hello World",
		},
		{
			name:     "nested field with helper",
			template: "Priority: {{uppercase state.priority}}",
			data: map[string]interface{}{
				"state": map[string]interface{}{"priority": "high"},
			},
			want: "Priority: HIGH",
		},
		{
			name:     "default helper",
			template: `{{default value "N/A"}}`,
			data:     map[string]interface{}{"value": ""},
			want:     "N/A",
		},
		{
			name:     "conditional with eq",
			template: `{{#if (eq status "active")}}on{{else}}off{{/if}}`,
			data:     map[string]interface{}{"status": "active"},
			want:     "on",
		},
		{
			name:     "join helper",
			template: `{{join items ", "}}`,
			data:     map[string]interface{}{"items": []interface{}{"a", "b", "c"}},
			want:     "a, b, c",
		},
		{
			name:     "gt with integer binding",
			template: `{{#if (gt score 3)}}high{{else}}low{{/if}}`,
			data:     map[string]interface{}{"score": 5},
			want:     "high",
		},
		{
			name:     "lt with float binding",
			template: `{{#if (lt score 0.5)}}low{{else}}high{{/if}}`,
			data:     map[string]interface{}{"score": 0.9},
			want:     "high",
		},
		{
			name:     "len of typed slice",
			template: `{{len tags}}`,
			data:     map[string]interface{}{"tags": []string{"a", "b"}},
			want:     "2",
		},
		{
			name:     "unclosed block",
			template: "{{#if x}}",
			data:     map[string]interface{}{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Eval(ctx, tt.template, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEngine_Twice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewEngine()
		NewEngine()
	})
}

func TestEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine().Eval(ctx, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ValidateTemplate(t *testing.T) {
	engine := NewEngine()
	assert.NoError(t, engine.ValidateTemplate("{{a}}"))
	assert.Error(t, engine.ValidateTemplate("{{#if a}}"))
}
