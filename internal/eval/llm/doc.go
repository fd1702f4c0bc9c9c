// Package llm provides a script engine backed by a Large Language Model.
//
// The script is a Handlebars prompt template. It is rendered with the
// bindings, sent to the configured model and the trimmed response text is
// the result.
//
//	engine := llm.NewEngine(client, "claude-sonnet-4-20250514", logger)
//	out, err := engine.Eval(ctx, "Classify: {{message}}", map[string]interface{}{"message": "refund"})
package llm
