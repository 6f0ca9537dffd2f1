package llm

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// 'document_type' is restricted to the known labels and 'fields' to the union of
// per-type keys; providers and the validator share this single definition.
func BuildDocumentJSONSchema() map[string]any {
	fieldProps := map[string]any{}
	for _, keys := range TypeFields {
		for _, key := range keys {
			fieldProps[key] = map[string]any{"type": "string"}
		}
	}

	props := map[string]any{
		"document_type": map[string]any{
			"type": "string",
			"enum": append([]string(nil), DocumentTypes...),
		},
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"fields": map[string]any{
			"type":                 "object",
			"properties":           fieldProps,
			"additionalProperties": false,
		},
	}

	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             []string{"document_type", "confidence", "fields"},
		"additionalProperties": false,
	}
}
