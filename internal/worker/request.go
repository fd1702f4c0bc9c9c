package worker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-node-eval/internal/router"
)

// RequestKind selects what the worker does with a request
type RequestKind string

const (
	// KindEvaluate runs a script and returns its value
	KindEvaluate RequestKind = "evaluate"

	// KindRoute runs a routing node configuration
	KindRoute RequestKind = "route"
)

// WorkRequest represents an evaluation work request
type WorkRequest struct {
	Kind        RequestKind            `json:"kind,omitempty"`
	ExecutionID string                 `json:"execution_id"`
	NodeID      string                 `json:"node_id"`
	Language    string                 `json:"language,omitempty"`
	Script      string                 `json:"script,omitempty"`
	Bindings    map[string]interface{} `json:"bindings,omitempty"`
	MinResult   *int64                 `json:"min_result,omitempty"`
	Route       *router.NodeConfig     `json:"route,omitempty"`
}

// Result is published for every processed request
type Result struct {
	ID          string      `json:"id"`
	Kind        RequestKind `json:"kind"`
	ExecutionID string      `json:"execution_id"`
	NodeID      string      `json:"node_id"`
	Language    string      `json:"language,omitempty"`
	Output      interface{} `json:"output,omitempty"`
	Accepted    bool        `json:"accepted"`
	Error       string      `json:"error,omitempty"`
	DurationMS  int64       `json:"duration_ms"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Failed reports whether processing produced an error
func (r *Result) Failed() bool {
	return r.Error != ""
}

// parseWorkRequest parses a work request from Redis message values
func parseWorkRequest(values map[string]interface{}) (*WorkRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request WorkRequest
	if err := decodeJSON(dataStr, &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work request: %w", err)
	}
	request.Bindings = normalizeMap(request.Bindings)
	if request.Route != nil {
		request.Route.Config = normalizeMap(request.Route.Config)
	}

	if request.Kind == "" {
		request.Kind = KindEvaluate
	}

	if err := request.Validate(); err != nil {
		return nil, err
	}

	return &request, nil
}

// Validate checks the request has what its kind needs
func (r *WorkRequest) Validate() error {
	if r.ExecutionID == "" {
		return fmt.Errorf("execution_id is required")
	}

	switch r.Kind {
	case KindEvaluate:
		if r.Language == "" {
			return fmt.Errorf("language is required")
		}
		if r.Script == "" {
			return fmt.Errorf("script is required")
		}
	case KindRoute:
		if r.Route == nil {
			return fmt.Errorf("route is required for route requests")
		}
	default:
		return fmt.Errorf("unknown request kind: %s", r.Kind)
	}

	return nil
}

// decodeJSON decodes keeping numbers as json.Number
func decodeJSON(data string, v interface{}) error {
	decoder := json.NewDecoder(strings.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(v)
}

// normalizeMap turns decoded json.Number values into int64 when they are
// whole numbers in range and float64 otherwise, at any depth. Integer
// arithmetic in the script engines then behaves as the JSON reads.
func normalizeMap(m map[string]interface{}) map[string]interface{} {
	for key, value := range m {
		m[key] = normalizeValue(value)
	}
	return m
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		return normalizeMap(v)
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	default:
		return value
	}
}
