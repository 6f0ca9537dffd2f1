package extract

import (
	"strings"
	"testing"
)

func TestCleanStripsPageMarkersAndBoilerplate(t *testing.T) {
	in := "Invoice Total: $10.00\nPage 1 of 3\nCONFIDENTIAL\nDue:   2026-03-01"
	out := Clean(in)

	if strings.Contains(strings.ToLower(out), "page 1 of 3") {
		t.Fatalf("page marker not removed: %q", out)
	}
	if strings.Contains(strings.ToLower(out), "confidential") {
		t.Fatalf("boilerplate not removed: %q", out)
	}
	if !strings.Contains(out, "Due: 2026-03-01") {
		t.Fatalf("whitespace not collapsed: %q", out)
	}
}

func TestCleanNormalizesQuotes(t *testing.T) {
	out := Clean("“Acme” – it’s here")
	if out != `"Acme" - it's here` {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", PreviewLength+10)
	got := Preview(long)
	if len([]rune(got)) != PreviewLength {
		t.Fatalf("expected %d runes, got %d", PreviewLength, len([]rune(got)))
	}

	short := "short text"
	if Preview(short) != short {
		t.Fatalf("short text should be unchanged")
	}
}
