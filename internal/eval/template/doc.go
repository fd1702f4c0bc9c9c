// Package template is the Handlebars script engine, backed by raymond.
// The llm engine uses it to render prompts.
//
//	e := template.NewEngine()
//	out, _ := e.Eval(ctx, "Priority: {{uppercase state.priority}}", bindings)
//
// Helpers are registered process-wide on first use: uppercase, lowercase,
// trim, default, eq, ne, gt, lt, contains, join and len.
//
//	{{default value "N/A"}}
//	{{#if (gt score 0.8)}}premium{{/if}}
//	{{join items ", "}}
//
// Parsed templates are cached by source text.
package template
