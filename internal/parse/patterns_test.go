package parse

import "testing"

func TestExtractSignalsFindsContactsAndEntities(t *testing.T) {
	text := `Invoice INV-2024-001
Questions? Email billing@acme.com or accounts@acme.com, or call +1 (555) 123-4567.
Issued 2024-03-15, due April 14, 2024. Total $1,250.00 plus €40 handling.`

	contacts, entities, features := ExtractSignals(text)

	emails := contacts["emails"].([]string)
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %v", emails)
	}
	phones := contacts["phones"].([]string)
	if len(phones) != 1 {
		t.Fatalf("expected 1 phone, got %v", phones)
	}
	amounts := entities["amounts"].([]string)
	if len(amounts) != 2 {
		t.Fatalf("expected 2 amounts, got %v", amounts)
	}
	dates := entities["dates"].([]string)
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %v", dates)
	}
	if features["email_count"] != 2 || features["date_count"] != 2 {
		t.Fatalf("unexpected features: %v", features)
	}
	if features["text_length"] != len(text) {
		t.Fatalf("expected text_length %d, got %v", len(text), features["text_length"])
	}
}

func TestExtractSignalsDeduplicates(t *testing.T) {
	text := "ping ops@example.com and ops@example.com again"
	contacts, _, features := ExtractSignals(text)
	emails := contacts["emails"].([]string)
	if len(emails) != 1 {
		t.Fatalf("expected deduplicated emails, got %v", emails)
	}
	if features["email_count"] != 1 {
		t.Fatalf("expected email_count 1, got %v", features["email_count"])
	}
}

func TestExtractSignalsEmptyText(t *testing.T) {
	contacts, entities, features := ExtractSignals("")
	if len(contacts["emails"].([]string)) != 0 || len(entities["dates"].([]string)) != 0 {
		t.Fatalf("expected empty signals")
	}
	if features["text_length"] != 0 {
		t.Fatalf("expected zero text_length")
	}
}
