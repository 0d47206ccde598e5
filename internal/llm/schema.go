package llm

import (
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jmribera/textaudit/internal/model"
)

// BuildResponseSchema returns the structured-output constraint sent to the
// generation service, in the uppercase type notation its API expects.
func BuildResponseSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"detected_language": map[string]any{
				"type": "STRING",
				"enum": []string{model.LanguageSpanish, model.LanguageEnglish},
			},
			"printed_page": map[string]any{
				"type": "STRING",
			},
			"findings": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"category": map[string]any{
							"type": "STRING",
							"enum": categoryStrings(),
						},
						"priority": map[string]any{
							"type": "STRING",
							"enum": []string{
								string(model.PriorityHigh),
								string(model.PriorityMedium),
								string(model.PriorityLow),
							},
						},
						"original_fragment": map[string]any{"type": "STRING"},
						"recommendation":    map[string]any{"type": "STRING"},
					},
					"required": []string{"category", "priority", "original_fragment", "recommendation"},
				},
			},
		},
		"required": []string{"detected_language", "printed_page", "findings"},
	}
}

// envelopeSchema is the local JSON-Schema used to verify the reply shape
// before deserialization. Deliberately looser than the remote constraint:
// category and priority are plain strings here so that out-of-taxonomy
// values reach the cleaner's drop-or-coerce policy instead of voiding the
// whole page.
const envelopeSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"detected_language": {"type": "string"},
		"printed_page": {"type": "string"},
		"findings": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"category": {"type": "string"},
					"priority": {"type": "string"},
					"original_fragment": {"type": "string"},
					"recommendation": {"type": "string"}
				},
				"required": ["category", "priority", "original_fragment", "recommendation"]
			}
		}
	},
	"required": ["findings"]
}`

// compileEnvelopeSchema compiles the local reply-shape schema once per
// backend instance.
func compileEnvelopeSchema() *jsonschema.Schema {
	return jsonschema.MustCompileString("textaudit://llm/envelope.json", envelopeSchema)
}

func categoryStrings() []string {
	categories := model.Categories()
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
