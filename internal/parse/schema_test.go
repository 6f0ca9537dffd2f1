package parse

import (
	"encoding/json"
	"testing"
)

func TestValidateOutputAccepts(t *testing.T) {
	raw := json.RawMessage(`{"document_type":"receipt","confidence":0.75,"fields":{"merchant_name":"Corner Cafe","total_amount":"$12.50"}}`)
	out, err := validateOutput(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.DocumentType != "receipt" || out.Confidence != 0.75 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Fields["merchant_name"] != "Corner Cafe" {
		t.Fatalf("unexpected fields: %v", out.Fields)
	}
}

func TestValidateOutputRejectsUnknownType(t *testing.T) {
	raw := json.RawMessage(`{"document_type":"memo","confidence":0.5,"fields":{}}`)
	if _, err := validateOutput(raw); err == nil {
		t.Fatalf("expected rejection of unknown document type")
	}
}

func TestValidateOutputRejectsConfidenceOutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"document_type":"invoice","confidence":1.5,"fields":{}}`)
	if _, err := validateOutput(raw); err == nil {
		t.Fatalf("expected rejection of out-of-range confidence")
	}
}

func TestValidateOutputRejectsMissingFields(t *testing.T) {
	raw := json.RawMessage(`{"document_type":"invoice","confidence":0.5}`)
	if _, err := validateOutput(raw); err == nil {
		t.Fatalf("expected rejection when fields object is missing")
	}
}

func TestValidateOutputRejectsMalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{"document_type":`)
	if _, err := validateOutput(raw); err == nil {
		t.Fatalf("expected rejection of malformed JSON")
	}
}
