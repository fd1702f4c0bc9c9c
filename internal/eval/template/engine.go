package template

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
)

// Language is the name the handlebars engine registers under
const Language = "handlebars"

var helpersOnce sync.Once

// Engine renders Handlebars templates
type Engine struct {
	cache map[string]*raymond.Template
	mu    sync.RWMutex
}

// NewEngine creates a new template engine
func NewEngine() *Engine {
	engine := &Engine{
		cache: make(map[string]*raymond.Template),
	}

	// Helpers are global in raymond and panic on re-registration
	helpersOnce.Do(registerHelpers)

	return engine
}

// Eval renders the template with the bindings as context
func (e *Engine) Eval(ctx context.Context, templateStr string, bindings map[string]interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := e.Render(templateStr, bindings)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Render renders a template with the given data
func (e *Engine) Render(templateStr string, data interface{}) (string, error) {
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// getTemplate gets a compiled template from cache or compiles it
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.cache[templateStr]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[templateStr]; ok {
		return tmpl, nil
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	e.cache[templateStr] = tmpl

	return tmpl, nil
}

// ValidateTemplate validates a template without rendering it
func (e *Engine) ValidateTemplate(templateStr string) error {
	_, err := raymond.Parse(templateStr)
	return err
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*raymond.Template)
}

// helpers are the custom Handlebars helpers available to every template
var helpers = map[string]interface{}{
	"uppercase": strings.ToUpper,
	"lowercase": strings.ToLower,
	"trim":      strings.TrimSpace,
	"contains":  strings.Contains,
	"default": func(value, fallback interface{}) interface{} {
		if value == nil || value == "" {
			return fallback
		}
		return value
	},
	"eq": func(a, b interface{}) bool {
		return a == b
	},
	"ne": func(a, b interface{}) bool {
		return a != b
	},
	"gt": func(a, b interface{}) bool {
		x, okX := toFloat(a)
		y, okY := toFloat(b)
		return okX && okY && x > y
	},
	"lt": func(a, b interface{}) bool {
		x, okX := toFloat(a)
		y, okY := toFloat(b)
		return okX && okY && x < y
	},
	"join": func(items interface{}, sep string) string {
		v := reflect.ValueOf(items)
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return fmt.Sprint(items)
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(v.Index(i).Interface())
		}
		return strings.Join(parts, sep)
	},
	"len": func(value interface{}) int {
		v := reflect.ValueOf(value)
		switch v.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			return v.Len()
		}
		return 0
	},
}

func registerHelpers() {
	for name, helper := range helpers {
		raymond.RegisterHelper(name, helper)
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
