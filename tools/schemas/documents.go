package schemas

import "github.com/tomatyss/mailos/llm"

// DocumentTools returns declarations for document and spreadsheet tools.
func DocumentTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "create_pdf",
			Description: "Create a PDF document from text content and attach it to the reply",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"content": map[string]any{
						"type":        "string",
						"description": "The text content to render into the PDF",
					},
					"output_path": map[string]any{
						"type":        "string",
						"description": "Path to write the PDF to",
					},
				},
			},
			RequiredParams: []string{"content", "output_path"},
		},
		{
			Name:        "extract_text",
			Description: "Extract plain text from a PDF file",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"input_path": map[string]any{
						"type":        "string",
						"description": "Path of the PDF to read",
					},
				},
			},
			RequiredParams: []string{"input_path"},
		},
		{
			Name:        "read_csv",
			Description: "Read a CSV file and return its rows",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"input_path": map[string]any{
						"type":        "string",
						"description": "Path of the CSV file to read",
					},
				},
			},
			RequiredParams: []string{"input_path"},
		},
		{
			Name:        "update_csv",
			Description: "Overwrite a CSV file with new rows",
			Parameters: llm.ToolSchema{
				Type: "object",
				Properties: map[string]any{
					"input_path": map[string]any{
						"type":        "string",
						"description": "Path of the CSV file to update",
					},
					"rows": map[string]any{
						"type":        "array",
						"description": "Rows to write, each an array of cell values",
						"items": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
				},
			},
			RequiredParams: []string{"input_path", "rows"},
		},
	}
}
