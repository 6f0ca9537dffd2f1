package llm

import (
	"strings"
)

// Message is a single chat message sent to a provider.
type Message struct {
	Role    string
	Content string
}

// DocumentTypes lists the classification labels a document can receive.
var DocumentTypes = []string{"invoice", "contract", "receipt", "general"}

// TypeFields maps each document type to the field keys the extractor should return.
var TypeFields = map[string][]string{
	"invoice":  {"invoice_number", "date", "due_date", "vendor_name", "customer_name", "total_amount", "tax_amount", "payment_terms"},
	"contract": {"party_1", "party_2", "effective_date", "expiration_date", "contract_value", "governing_law"},
	"receipt":  {"merchant_name", "date", "total_amount", "tax_amount", "payment_method"},
	"general":  {"title", "date", "summary"},
}

const maxPromptTextChars = 6000

// BuildSystemPrompt composes the system message with the classification rubric
// and strict formatting rules.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a document parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Classify the document as exactly one of: " + strings.Join(DocumentTypes, ", ") + ".",
		"Classification rubric: " + buildTypeRubric(),
		"Report 'confidence' between 0 and 1 for the chosen type.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Monetary amounts must be plain decimal strings without currency symbols.",
		"Fill 'fields' only with the keys defined for the chosen type:",
		buildFieldGuide(),
		"Never output null. If a field is not present in the document, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the filename hint and the (truncated) document text.
func BuildUserPrompt(fileName, text string) string {
	var b strings.Builder
	if name := strings.TrimSpace(fileName); name != "" {
		b.WriteString("Filename: ")
		b.WriteString(name)
		b.WriteString("\n")
	}

	trimmed := strings.TrimSpace(text)
	b.WriteString("\nDocument text (first ~6k chars):\n")
	if len(trimmed) > maxPromptTextChars {
		b.WriteString(trimmed[:maxPromptTextChars])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(trimmed)
	}
	return b.String()
}

// BuildPrompt returns the full message list for an extraction call.
func BuildPrompt(input ExtractInput) []Message {
	return []Message{
		{Role: "system", Content: BuildSystemPrompt()},
		{Role: "user", Content: BuildUserPrompt(input.FileName, input.Text)},
	}
}

// BuildFixPrompt asks the provider to repair malformed JSON from a prior call.
func BuildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: "You repair malformed JSON. Return ONLY the corrected JSON object, nothing else."},
		{Role: "user", Content: "Fix this JSON so it parses and matches the document extraction schema:\n" + string(raw)},
	}
}

func buildTypeRubric() string {
	rules := []string{
		"'invoice' — a request for payment: invoice number, bill-to party, line amounts, due date, payment terms.",
		"'contract' — an agreement between parties: party names, effective/expiration dates, governing law, signatures.",
		"'receipt' — proof of a completed purchase: merchant, transaction date, amount paid, payment method.",
		"'general' — anything that fits none of the above.",
	}
	return strings.Join(rules, " ")
}

func buildFieldGuide() string {
	var b strings.Builder
	for _, docType := range DocumentTypes {
		b.WriteString(docType)
		b.WriteString(": ")
		b.WriteString(strings.Join(TypeFields[docType], ", "))
		b.WriteString(". ")
	}
	return strings.TrimSpace(b.String())
}
