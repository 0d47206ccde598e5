package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jmribera/textaudit/internal/model"
)

// pageEnvelope is the wire shape of one page's structured reply.
type pageEnvelope struct {
	DetectedLanguage string       `json:"detected_language"`
	PrintedPage      string       `json:"printed_page"`
	Findings         []rawFinding `json:"findings"`
}

type rawFinding struct {
	Category         string `json:"category"`
	Priority         string `json:"priority"`
	OriginalFragment string `json:"original_fragment"`
	Recommendation   string `json:"recommendation"`
}

// decodeEnvelope checks the payload against the reply-shape schema and
// converts it into a PageResult. Category and priority are carried through
// as-is; the cleaner applies the taxonomy policy downstream.
func decodeEnvelope(schema *jsonschema.Schema, payload []byte) (*PageResult, error) {
	var generic any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("payload does not match reply schema: %w", err)
	}

	var envelope pageEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("deserialize reply: %w", err)
	}

	result := &PageResult{
		DetectedLanguage: envelope.DetectedLanguage,
		PrintedPageLabel: envelope.PrintedPage,
		Findings:         make([]model.Finding, 0, len(envelope.Findings)),
	}

	for _, f := range envelope.Findings {
		result.Findings = append(result.Findings, model.Finding{
			Category:         model.Category(f.Category),
			Priority:         model.Priority(f.Priority),
			OriginalFragment: f.OriginalFragment,
			Recommendation:   f.Recommendation,
		})
	}

	return result, nil
}
