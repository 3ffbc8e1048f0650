// Package schemas contains the tool declarations the assistant exposes to
// models. Each declaration carries the name, description and input schema;
// callers bind an implementation with Bind before registering.
package schemas

import "github.com/tomatyss/mailos/llm"

// All returns every tool declaration from all categories, keyed by name.
func All() map[string]llm.Tool {
	out := make(map[string]llm.Tool)
	for _, group := range [][]llm.Tool{
		WebTools(),
		DocumentTools(),
		SystemTools(),
	} {
		for _, tool := range group {
			out[tool.Name] = tool
		}
	}
	return out
}

// Bind attaches an implementation to a declaration.
func Bind(tool llm.Tool, fn llm.ToolFunc) llm.Tool {
	tool.Function = fn
	return tool
}
