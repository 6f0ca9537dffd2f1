package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/parse"
)

func fixtureRows() []Row {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	invoice := documents.Document{
		ID:           "doc-1",
		UserID:       "u1",
		FileName:     "invoice.pdf",
		FileType:     "pdf",
		Status:       documents.StatusCompleted,
		DocumentType: "invoice",
		ProcessingMs: 420,
		TextPreview:  "Invoice INV-42",
		CreatedAt:    now,
	}
	receipt := documents.Document{
		ID:           "doc-2",
		UserID:       "u1",
		FileName:     "receipt.txt",
		FileType:     "txt",
		Status:       documents.StatusCompleted,
		DocumentType: "receipt",
		ProcessingMs: 180,
		TextPreview:  "Corner Cafe",
		CreatedAt:    now.Add(time.Hour),
	}
	return []Row{
		{
			Document: invoice,
			Result: &parse.Result{
				ID:           "res-1",
				DocumentID:   "doc-1",
				UserID:       "u1",
				DocumentType: "invoice",
				Confidence:   0.9,
				Fields:       map[string]any{"invoice_number": "INV-42", "total_amount": "$99.00"},
				Contacts:     map[string]any{"emails": []string{"billing@acme.com"}},
			},
		},
		{
			Document: receipt,
			Result: &parse.Result{
				ID:           "res-2",
				DocumentID:   "doc-2",
				UserID:       "u1",
				DocumentType: "receipt",
				Confidence:   0.8,
				Fields:       map[string]any{"merchant_name": "Corner Cafe", "total_amount": "$12.50"},
				Contacts:     map[string]any{"phones": []string{"555-123-4567"}},
			},
		},
	}
}

func TestBuildCSVUnionsColumns(t *testing.T) {
	data, err := BuildCSV(fixtureRows())
	if err != nil {
		t.Fatalf("build csv: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}

	header := records[0]
	want := []string{"field_invoice_number", "field_merchant_name", "field_total_amount", "contact_emails", "contact_phones"}
	for _, col := range want {
		if !contains(header, col) {
			t.Fatalf("missing column %s in header %v", col, header)
		}
	}

	// Every row matches the header width; absent fields are empty cells.
	col := indexOf(header, "field_merchant_name")
	if records[1][col] != "" {
		t.Fatalf("expected empty merchant for invoice row, got %q", records[1][col])
	}
	if records[2][col] != "Corner Cafe" {
		t.Fatalf("expected merchant on receipt row, got %q", records[2][col])
	}
}

func TestBuildJSONEnvelope(t *testing.T) {
	data, err := BuildJSON(fixtureRows())
	if err != nil {
		t.Fatalf("build json: %v", err)
	}

	var envelope struct {
		ExportInfo struct {
			TotalDocuments int    `json:"total_documents"`
			Format         string `json:"format"`
			Version        string `json:"version"`
		} `json:"export_info"`
		Documents []struct {
			DocumentID string          `json:"document_id"`
			Result     json.RawMessage `json:"result"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope.ExportInfo.TotalDocuments != 2 || envelope.ExportInfo.Version != "1.0" {
		t.Fatalf("unexpected export_info: %+v", envelope.ExportInfo)
	}
	if envelope.ExportInfo.Format != FormatJSON {
		t.Fatalf("expected json format, got %s", envelope.ExportInfo.Format)
	}
	if len(envelope.Documents) != 2 || string(envelope.Documents[0].Result) == "null" {
		t.Fatalf("expected documents with results")
	}
}

func TestBuildXLSXSheets(t *testing.T) {
	data, err := BuildXLSX(fixtureRows())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{SheetDocumentInfo, SheetFields, SheetContacts, SheetPreview} {
		if !contains(sheets, want) {
			t.Fatalf("missing sheet %s in %v", want, sheets)
		}
	}

	rows, err := f.GetRows(SheetDocumentInfo)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
}

func TestXLSXCapsLongCells(t *testing.T) {
	long := strings.Repeat("x", maxCellChars+100)
	rows := fixtureRows()[:1]
	rows[0].Document.TextPreview = long

	data, err := BuildXLSX(rows)
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	value, err := f.GetCellValue(SheetPreview, "C2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if len(value) != maxCellChars {
		t.Fatalf("expected capped cell of %d chars, got %d", maxCellChars, len(value))
	}
}

func TestCapCellKeepsRuneBoundary(t *testing.T) {
	// A multi-byte rune straddling the byte limit must be dropped whole.
	long := strings.Repeat("x", maxCellChars-1) + "日本語"

	got := capCell(long)
	if len(got) > maxCellChars {
		t.Fatalf("cap exceeded: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("cap split a rune")
	}
	if got != strings.Repeat("x", maxCellChars-1) {
		t.Fatalf("expected the straddling rune dropped, got %d bytes", len(got))
	}
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

func indexOf(list []string, want string) int {
	for i, item := range list {
		if item == want {
			return i
		}
	}
	return -1
}
