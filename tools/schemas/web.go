package schemas

import "github.com/tomatyss/mailos/llm"

// WebTools returns declarations for web-facing tools.
func WebTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "get_weather",
			Description: "Get the current weather for a city",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"city": map[string]any{
						"type":        "string",
						"description": "The city name to get weather for",
					},
				},
			},
			RequiredParams: []string{"city"},
		},
		{
			Name:        "web_search",
			Description: "Search the web for current information on a topic. Returns titles, URLs and snippets for the top results.",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query",
					},
					"max_results": map[string]any{
						"type":        "integer",
						"description": "Maximum number of results to return (1-10, default 5)",
						"minimum":     1,
						"maximum":     10,
					},
					"extract_content": map[string]any{
						"type":        "boolean",
						"description": "Whether to fetch and extract the text content of each result page",
					},
				},
			},
			RequiredParams: []string{"query"},
		},
	}
}
