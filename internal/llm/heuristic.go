package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// HeuristicClient classifies documents with keyword scoring and extracts fields
// with regular expressions. It needs no credentials and is used in dev-like
// environments when no provider is configured.
type HeuristicClient struct{}

var typeKeywords = map[string][]string{
	"invoice":  {"invoice", "bill to", "due date", "payment terms", "invoice number", "amount due"},
	"contract": {"agreement", "party", "parties", "hereby", "whereas", "governing law", "term of this"},
	"receipt":  {"receipt", "thank you for your purchase", "change due", "cashier", "subtotal", "paid"},
}

var (
	reInvoiceNumber = regexp.MustCompile(`(?i)invoice\s*(?:#|no\.?|number)?[:\s]*([A-Z0-9][A-Z0-9-]{2,})`)
	reDate          = regexp.MustCompile(`(?i)(?:date[d]?[:\s]*)(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`)
	reDueDate       = regexp.MustCompile(`(?i)due\s*date[:\s]*(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})`)
	reTotal         = regexp.MustCompile(`(?i)(?:total|amount\s+due|grand\s+total)[:\s]*\$?\s*([\d,]+\.?\d{0,2})`)
	reTax           = regexp.MustCompile(`(?i)(?:tax|vat|gst)[:\s]*\$?\s*([\d,]+\.?\d{0,2})`)
	rePayment       = regexp.MustCompile(`(?i)(?:paid\s+(?:by|with)|payment\s+method)[:\s]*([A-Za-z ]{3,20})`)
	reParties       = regexp.MustCompile(`(?i)between\s+(.{3,60}?)\s+and\s+(.{3,60}?)[\.,\n]`)
)

// Extract produces a schema-valid extraction without calling a provider.
func (HeuristicClient) Extract(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docType, confidence := classify(input.Text)
	fields := extractFields(docType, input.Text)

	out := map[string]any{
		"document_type": docType,
		"confidence":    confidence,
		"fields":        fields,
	}
	return json.Marshal(out)
}

func classify(text string) (string, float64) {
	lower := strings.ToLower(text)
	best, bestScore := "general", 0
	for docType, keywords := range typeKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = docType, score
		}
	}
	if bestScore == 0 {
		return "general", 0.3
	}
	confidence := 0.5 + 0.1*float64(bestScore)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return best, confidence
}

func extractFields(docType, text string) map[string]string {
	fields := map[string]string{}
	set := func(key string, re *regexp.Regexp, group int) {
		if m := re.FindStringSubmatch(text); len(m) > group {
			if v := strings.TrimSpace(m[group]); v != "" {
				fields[key] = v
			}
		}
	}

	switch docType {
	case "invoice":
		set("invoice_number", reInvoiceNumber, 1)
		set("date", reDate, 1)
		set("due_date", reDueDate, 1)
		set("total_amount", reTotal, 1)
		set("tax_amount", reTax, 1)
	case "receipt":
		set("date", reDate, 1)
		set("total_amount", reTotal, 1)
		set("tax_amount", reTax, 1)
		set("payment_method", rePayment, 1)
	case "contract":
		if m := reParties.FindStringSubmatch(text); len(m) > 2 {
			fields["party_1"] = strings.TrimSpace(m[1])
			fields["party_2"] = strings.TrimSpace(m[2])
		}
		set("effective_date", reDate, 1)
	default:
		set("date", reDate, 1)
	}
	return fields
}

var _ Client = HeuristicClient{}
