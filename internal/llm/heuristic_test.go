package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const invoiceText = `INVOICE
Invoice Number: INV-2041
Date: 2026-03-01
Due Date: 2026-03-31
Bill To: Acme Corp
Total: $1,250.00
Tax: $100.00
Payment Terms: Net 30`

const receiptText = `RECEIPT
Thank you for your purchase
Date: 2026-02-14
Subtotal: $40.00
Tax: $3.20
Total: $43.20
Paid by VISA
Change Due: $0.00`

func TestHeuristicClassifiesInvoice(t *testing.T) {
	raw, err := HeuristicClient{}.Extract(context.Background(), ExtractInput{Text: invoiceText, FileName: "inv.pdf"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	var out struct {
		DocumentType string            `json:"document_type"`
		Confidence   float64           `json:"confidence"`
		Fields       map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DocumentType != "invoice" {
		t.Fatalf("expected invoice, got %s", out.DocumentType)
	}
	if out.Confidence <= 0 || out.Confidence > 1 {
		t.Fatalf("confidence out of range: %f", out.Confidence)
	}
	if out.Fields["invoice_number"] != "INV-2041" {
		t.Fatalf("unexpected invoice_number: %q", out.Fields["invoice_number"])
	}
	if out.Fields["due_date"] != "2026-03-31" {
		t.Fatalf("unexpected due_date: %q", out.Fields["due_date"])
	}
}

func TestHeuristicClassifiesReceipt(t *testing.T) {
	raw, err := HeuristicClient{}.Extract(context.Background(), ExtractInput{Text: receiptText, FileName: "r.txt"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	var out struct {
		DocumentType string            `json:"document_type"`
		Fields       map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DocumentType != "receipt" {
		t.Fatalf("expected receipt, got %s", out.DocumentType)
	}
	if !strings.Contains(strings.ToUpper(out.Fields["payment_method"]), "VISA") {
		t.Fatalf("unexpected payment_method: %q", out.Fields["payment_method"])
	}
}

func TestHeuristicFallsBackToGeneral(t *testing.T) {
	raw, err := HeuristicClient{}.Extract(context.Background(), ExtractInput{Text: "meeting notes from tuesday"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var out struct {
		DocumentType string `json:"document_type"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DocumentType != "general" {
		t.Fatalf("expected general, got %s", out.DocumentType)
	}
}

func TestHeuristicOutputMatchesSchema(t *testing.T) {
	schemaBytes, err := json.Marshal(BuildDocumentJSONSchema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	schema, err := jsonschema.CompileString("document.json", string(schemaBytes))
	if err != nil {
		t.Fatalf("compile schema: %v", err)
	}

	for name, text := range map[string]string{"invoice": invoiceText, "receipt": receiptText, "general": "plain text"} {
		raw, err := HeuristicClient{}.Extract(context.Background(), ExtractInput{Text: text})
		if err != nil {
			t.Fatalf("%s extract: %v", name, err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if err := schema.Validate(doc); err != nil {
			t.Fatalf("%s output failed schema validation: %v", name, err)
		}
	}
}
