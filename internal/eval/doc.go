// Package eval wires the concrete script engines into lookup sources.
//
// Three sources exist:
//   - builtin: cel, handlebars, starlark, rego and cue, plus configured aliases
//   - global: the process-wide scripting registry, for engines registered by
//     embedding programs
//   - plugins: engines that need external services (the llm engine)
//
// NewFactory searches them in the order given by ENGINE_SOURCES.
package eval
