package parse

import "regexp"

// Regex supplements run on every parse regardless of the LLM output, so
// contact and entity signals survive a weak classification.
var (
	reEmail    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone    = regexp.MustCompile(`(?:\+?\d{1,3}[ .\-]?)?(?:\(\d{3}\)|\d{3})[ .\-]?\d{3}[ .\-]?\d{4}`)
	reCurrency = regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d{1,2})?`)
	reDateSig  = regexp.MustCompile(`\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.? \d{1,2},? \d{4})\b`)
)

const maxSignalMatches = 50

// ExtractSignals scans cleaned text for contact and entity patterns and
// returns the contacts, entities, and feature counts for a parse result.
func ExtractSignals(text string) (contacts, entities, features map[string]any) {
	emails := dedupe(reEmail.FindAllString(text, maxSignalMatches))
	phones := dedupe(rePhone.FindAllString(text, maxSignalMatches))
	amounts := dedupe(reCurrency.FindAllString(text, maxSignalMatches))
	dates := dedupe(reDateSig.FindAllString(text, maxSignalMatches))

	contacts = map[string]any{
		"emails": emails,
		"phones": phones,
	}
	entities = map[string]any{
		"amounts": amounts,
		"dates":   dates,
	}
	features = map[string]any{
		"email_count":    len(emails),
		"phone_count":    len(phones),
		"currency_count": len(amounts),
		"date_count":     len(dates),
		"text_length":    len(text),
	}
	return contacts, entities, features
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
