package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/aescanero/dago-node-eval/internal/numeric"
	"github.com/aescanero/dago-node-eval/internal/router"
	"github.com/aescanero/dago-node-eval/internal/scripting"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StateLoader loads graph state for an execution
type StateLoader interface {
	Load(ctx context.Context, executionID string) (state.State, error)
}

// Processor turns work requests into results. It does no I/O besides the
// state lookup and the evaluators themselves.
type Processor struct {
	evaluators scripting.Factory
	router     *router.Router
	states     StateLoader
	timeout    time.Duration
	metrics    *Metrics
	logger     *zap.Logger
}

// NewProcessor creates a new processor. states and metrics may be nil.
func NewProcessor(
	evaluators scripting.Factory,
	states StateLoader,
	timeout time.Duration,
	metrics *Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		evaluators: evaluators,
		router:     router.NewRouter(evaluators, logger),
		states:     states,
		timeout:    timeout,
		metrics:    metrics,
		logger:     logger,
	}
}

// Process handles one request. Failures are reported in the result.
func (p *Processor) Process(ctx context.Context, request *WorkRequest) *Result {
	start := time.Now()
	result := &Result{
		ID:          uuid.NewString(),
		Kind:        request.Kind,
		ExecutionID: request.ExecutionID,
		NodeID:      request.NodeID,
		Language:    request.Language,
	}

	evalCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var err error
	switch request.Kind {
	case KindRoute:
		err = p.route(evalCtx, request, result)
	default:
		err = p.evaluate(evalCtx, request, result)
	}

	if err != nil {
		result.Error = err.Error()
		result.Accepted = false
	}

	elapsed := time.Since(start)
	result.DurationMS = elapsed.Milliseconds()
	result.Timestamp = time.Now().UTC()

	p.metrics.observe(metricLanguage(request), outcomeOf(result), elapsed.Seconds())

	return result
}

// evaluate runs a script request
func (p *Processor) evaluate(ctx context.Context, request *WorkRequest, result *Result) error {
	evaluator, err := p.evaluators.GetEvaluator(request.Language)
	if err != nil {
		p.metrics.setupFailed(request.Language)
		return err
	}

	bindings, err := p.bindings(ctx, request)
	if err != nil {
		return err
	}

	output, err := evaluator.Evaluate(ctx, request.Script, bindings)
	if err != nil {
		return err
	}
	result.Output = output

	if request.MinResult != nil {
		result.Accepted = numeric.IsAtLeast(output, *request.MinResult)
		if !result.Accepted {
			p.logger.Debug("result below minimum",
				zap.String("execution_id", request.ExecutionID),
				zap.Int64("min_result", *request.MinResult),
				zap.Any("output", output),
			)
		}
		return nil
	}

	result.Accepted = true
	return nil
}

// route runs a routing request
func (p *Processor) route(ctx context.Context, request *WorkRequest, result *Result) error {
	bindings, err := p.bindings(ctx, request)
	if err != nil {
		return err
	}

	decision, err := p.router.Route(ctx, bindings, request.Route)
	if err != nil {
		return fmt.Errorf("routing failed: %w", err)
	}

	result.Output = decision
	result.Accepted = true
	return nil
}

// bindings merges request bindings with the stored graph state, exposed as
// "state". Request bindings win.
func (p *Processor) bindings(ctx context.Context, request *WorkRequest) (map[string]interface{}, error) {
	bindings := make(map[string]interface{}, len(request.Bindings)+1)

	if p.states != nil {
		st, err := p.states.Load(ctx, request.ExecutionID)
		switch {
		case err == nil:
			bindings["state"] = map[string]interface{}(st)
		case errors.Is(err, ErrStateNotFound):
			// No stored state for this execution
		default:
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
	}

	for key, value := range request.Bindings {
		bindings[key] = value
	}

	return bindings, nil
}

func metricLanguage(request *WorkRequest) string {
	if request.Kind == KindRoute {
		return string(KindRoute)
	}
	return request.Language
}

func outcomeOf(result *Result) string {
	switch {
	case result.Failed():
		return OutcomeError
	case result.Accepted:
		return OutcomeAccepted
	default:
		return OutcomeRejected
	}
}
