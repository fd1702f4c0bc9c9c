// Package rego provides the Open Policy Agent script engine.
//
// A script is either a Rego query evaluated with the bindings as input:
//
//	input.score >= 0.8
//
// or a full module starting with a package clause, in which case the whole
// package document is returned:
//
//	package routing
//
//	default allow := false
//	allow if input.role == "admin"
//
// Numbers come back as json.Number. An undefined query returns nil.
package rego
