package parse

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docparse-backend/internal/llm"
)

type llmOutput struct {
	DocumentType string         `json:"document_type"`
	Confidence   float64        `json:"confidence"`
	Fields       map[string]any `json:"fields"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func outputSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := json.Marshal(llm.BuildDocumentJSONSchema())
		if err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = jsonschema.CompileString("document_extraction.json", string(raw))
	})
	return schema, schemaErr
}

// validateOutput checks raw LLM output against the extraction schema and
// decodes it. Any mismatch is reported as invalid output.
func validateOutput(raw json.RawMessage) (llmOutput, error) {
	s, err := outputSchema()
	if err != nil {
		return llmOutput{}, fmt.Errorf("compile output schema: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return llmOutput{}, fmt.Errorf("llm output invalid: %w", err)
	}
	if err := s.Validate(generic); err != nil {
		return llmOutput{}, fmt.Errorf("llm output invalid: %w", err)
	}

	var out llmOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return llmOutput{}, fmt.Errorf("llm output invalid: %w", err)
	}
	if out.Fields == nil {
		out.Fields = map[string]any{}
	}
	return out, nil
}
