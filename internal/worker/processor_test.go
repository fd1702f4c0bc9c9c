package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/aescanero/dago-node-eval/internal/config"
	"github.com/aescanero/dago-node-eval/internal/eval"
	"github.com/aescanero/dago-node-eval/internal/router"
	"github.com/aescanero/dago-node-eval/internal/scripting"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStates struct {
	states map[string]state.State
	err    error
}

func (f *fakeStates) Load(ctx context.Context, executionID string) (state.State, error) {
	if f.err != nil {
		return nil, f.err
	}
	st, ok := f.states[executionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st, nil
}

func newTestProcessor(t *testing.T, states StateLoader) (*Processor, *Metrics) {
	t.Helper()

	cfg := &config.Config{
		EngineSources:   []string{config.SourceBuiltin},
		EngineAliases:   map[string]string{"expr": "cel"},
		StarlarkTimeout: time.Second,
		LLMModel:        "test-model",
	}
	factory, err := eval.NewFactory(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	metrics := NewMetrics(prometheus.NewRegistry())
	return NewProcessor(factory, states, time.Second, metrics, zap.NewNop()), metrics
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestProcessor_Evaluate(t *testing.T) {
	states := &fakeStates{states: map[string]state.State{
		"exec-1": {"score": 7},
	}}
	processor, _ := newTestProcessor(t, states)

	tests := []struct {
		name         string
		request      *WorkRequest
		wantOutput   interface{}
		wantAccepted bool
		wantError    string
	}{
		{
			name: "cel with bindings",
			request: &WorkRequest{
				Kind: KindEvaluate, ExecutionID: "exec-2", Language: "cel",
				Script: "x * 2", Bindings: map[string]interface{}{"x": 21},
			},
			wantOutput:   int64(42),
			wantAccepted: true,
		},
		{
			name: "cel reads stored state",
			request: &WorkRequest{
				Kind: KindEvaluate, ExecutionID: "exec-1", Language: "cel",
				Script: "state.score > 5",
			},
			wantOutput:   true,
			wantAccepted: true,
		},
		{
			name: "min result satisfied",
			request: &WorkRequest{
				Kind: KindEvaluate, ExecutionID: "exec-2", Language: "starlark",
				Script: "result = 10", MinResult: int64Ptr(10),
			},
			wantOutput:   int64(10),
			wantAccepted: true,
		},
		{
			name: "min result not satisfied",
			request: &WorkRequest{
				Kind: KindEvaluate, ExecutionID: "exec-2", Language: "expr",
				Script: "2.9", MinResult: int64Ptr(3),
			},
			wantOutput:   2.9,
			wantAccepted: false,
		},
		{
			name: "unknown language",
			request: &WorkRequest{
				Kind: KindEvaluate, ExecutionID: "exec-2", Language: "cobol",
				Script: "DISPLAY 1",
			},
			wantError: `unable to find script engine for language "cobol"`,
		},
		{
			name: "script error",
			request: &WorkRequest{
				Kind: KindEvaluate, ExecutionID: "exec-2", Language: "cel",
				Script: "x +",
			},
			wantError: "cel evaluation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := processor.Process(context.Background(), tt.request)

			_, err := uuid.Parse(result.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.request.ExecutionID, result.ExecutionID)
			assert.False(t, result.Timestamp.IsZero())

			if tt.wantError != "" {
				assert.True(t, result.Failed())
				assert.Contains(t, result.Error, tt.wantError)
				assert.False(t, result.Accepted)
				return
			}

			assert.False(t, result.Failed(), result.Error)
			assert.Equal(t, tt.wantOutput, result.Output)
			assert.Equal(t, tt.wantAccepted, result.Accepted)
		})
	}
}

func TestProcessor_RequestBindingsOverrideState(t *testing.T) {
	states := &fakeStates{states: map[string]state.State{
		"exec-1": {"score": 1},
	}}
	processor, _ := newTestProcessor(t, states)

	result := processor.Process(context.Background(), &WorkRequest{
		Kind:        KindEvaluate,
		ExecutionID: "exec-1",
		Language:    "cel",
		Script:      "state.score",
		Bindings: map[string]interface{}{
			"state": map[string]interface{}{"score": 9},
		},
	})

	require.False(t, result.Failed(), result.Error)
	assert.EqualValues(t, 9, result.Output)
}

func TestProcessor_IntegerArithmeticOnParsedBindings(t *testing.T) {
	processor, _ := newTestProcessor(t, nil)

	request, err := parseWorkRequest(map[string]interface{}{
		"data": `{"execution_id":"exec-1","language":"cel","script":"x + 1","bindings":{"x":7}}`,
	})
	require.NoError(t, err)

	result := processor.Process(context.Background(), request)

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, int64(8), result.Output)
}

func TestProcessor_StateLoadError(t *testing.T) {
	processor, _ := newTestProcessor(t, &fakeStates{err: errors.New("connection refused")})

	result := processor.Process(context.Background(), &WorkRequest{
		Kind:        KindEvaluate,
		ExecutionID: "exec-1",
		Language:    "cel",
		Script:      "true",
	})

	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "failed to load state")
}

func TestProcessor_NilStateLoader(t *testing.T) {
	processor, _ := newTestProcessor(t, nil)

	result := processor.Process(context.Background(), &WorkRequest{
		Kind:        KindEvaluate,
		ExecutionID: "exec-1",
		Language:    "handlebars",
		Script:      "hello {{name}}",
		Bindings:    map[string]interface{}{"name": "dago"},
	})

	require.False(t, result.Failed(), result.Error)
	assert.Equal(t, "hello dago", result.Output)
	assert.True(t, result.Accepted)
}

func TestProcessor_Route(t *testing.T) {
	processor, _ := newTestProcessor(t, nil)

	result := processor.Process(context.Background(), &WorkRequest{
		Kind:        KindRoute,
		ExecutionID: "exec-1",
		NodeID:      "router-1",
		Bindings:    map[string]interface{}{"priority": "high"},
		Route: &router.NodeConfig{
			Mode: router.ModeDeterministic,
			Rules: []router.Rule{
				{Condition: `priority == "high"`, Target: "urgent"},
			},
			Fallback: "normal",
		},
	})

	require.False(t, result.Failed(), result.Error)
	decision, ok := result.Output.(*router.RoutingResult)
	require.True(t, ok)
	assert.Equal(t, "urgent", decision.TargetNode)
	assert.True(t, result.Accepted)
}

func TestProcessor_Metrics(t *testing.T) {
	processor, metrics := newTestProcessor(t, nil)
	ctx := context.Background()

	processor.Process(ctx, &WorkRequest{Kind: KindEvaluate, ExecutionID: "e", Language: "cel", Script: "1", MinResult: int64Ptr(1)})
	processor.Process(ctx, &WorkRequest{Kind: KindEvaluate, ExecutionID: "e", Language: "cel", Script: "0", MinResult: int64Ptr(1)})
	processor.Process(ctx, &WorkRequest{Kind: KindEvaluate, ExecutionID: "e", Language: "nope", Script: "1"})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluationsTotal.WithLabelValues("cel", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluationsTotal.WithLabelValues("cel", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.evaluationsTotal.WithLabelValues("nope", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.setupFailuresTotal.WithLabelValues("nope")))
}

func TestProcessor_CachesEvaluators(t *testing.T) {
	cfg := &config.Config{
		EngineSources:   []string{config.SourceBuiltin},
		StarlarkTimeout: time.Second,
		LLMModel:        "test-model",
	}
	factory, err := eval.NewFactory(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	processor := NewProcessor(factory, nil, time.Second, nil, zap.NewNop())

	for i := 0; i < 3; i++ {
		result := processor.Process(context.Background(), &WorkRequest{
			Kind: KindEvaluate, ExecutionID: "e", Language: "cel", Script: "true",
		})
		require.False(t, result.Failed(), result.Error)
	}

	assert.True(t, factory.Cached("cel"))
	assert.Equal(t, 1, factory.Len())

	var _ scripting.Factory = factory
}
