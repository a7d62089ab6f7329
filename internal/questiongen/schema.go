package questiongen

import "github.com/abhisek/repaso/internal/llm"

// QuestionsSchema defines the JSON contract of a generation response.
var QuestionsSchema = &llm.Schema{
	Name:        "recall-questions",
	Description: "Active recall questions about one passage of a study text",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Questions in Spanish that require explaining, analyzing, comparing or relating concepts",
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
