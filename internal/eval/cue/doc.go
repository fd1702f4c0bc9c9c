// Package cue provides the CUE script engine.
//
// Bindings are encoded into a CUE scope so the script can reference them by
// name. The script must evaluate to a concrete value; when it defines a
// "result" field only that field is returned.
package cue
