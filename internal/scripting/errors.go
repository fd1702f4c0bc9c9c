package scripting

import (
	"errors"
	"fmt"
)

// ErrNoSources is returned when a factory is built without lookup sources
var ErrNoSources = errors.New("no lookup sources were passed")

// NotFoundError reports that no lookup source provides an engine for Name
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no script engine named %q", e.Name)
}

// SetupError is the only error a Factory returns. It carries the language
// that could not be turned into an evaluator.
type SetupError struct {
	Name string
	Err  error
}

func (e *SetupError) Error() string {
	var notFound *NotFoundError
	if e.Err == nil || errors.As(e.Err, &notFound) {
		return fmt.Sprintf("unable to find script engine for language %q", e.Name)
	}
	return fmt.Sprintf("unable to create evaluator for language %q: %v", e.Name, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

type nilSourceError struct {
	index int
}

func (e *nilSourceError) Error() string {
	return fmt.Sprintf("lookup source %d is nil", e.index)
}
