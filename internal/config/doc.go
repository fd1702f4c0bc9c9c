// Package config loads the eval worker settings from the environment.
//
// Load parses the variables, trims the ENGINE_SOURCES and ENGINE_ALIASES
// lists and validates the result, so a worker never starts with an unknown
// lookup source or a non-positive timeout.
package config
