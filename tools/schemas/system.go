package schemas

import "github.com/tomatyss/mailos/llm"

// SystemTools returns declarations for code and shell execution tools.
func SystemTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "execute_python",
			Description: "Execute a Python snippet and return its output. Code runs in a sandboxed interpreter with no network access.",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"code": map[string]any{
						"type":        "string",
						"description": "The Python code to execute",
					},
				},
			},
			RequiredParams: []string{"code"},
		},
		{
			Name:        "execute_bash",
			Description: "Execute a shell command and return its output. Commands that delete files, format disks or pipe from remote sources are blocked.",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"command": map[string]any{
						"type":        "string",
						"description": "Command to execute (e.g., 'ls', 'grep', 'git')",
					},
					"working_dir": map[string]any{
						"type":        "string",
						"description": "Working directory for the command (default: current directory)",
					},
					"timeout": map[string]any{
						"type":        "number",
						"description": "Timeout in seconds (default: 30, max: 300)",
					},
				},
			},
			RequiredParams: []string{"command"},
		},
	}
}
