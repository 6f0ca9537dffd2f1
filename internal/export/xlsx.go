package export

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Sheet names in the XLSX export.
const (
	SheetDocumentInfo = "Document Info"
	SheetFields       = "Extraction Fields"
	SheetContacts     = "Contact Info"
	SheetPreview      = "Text Preview"
)

// maxCellChars is the spreadsheet cell limit; longer values are truncated.
const maxCellChars = 32767

// BuildXLSX renders a four-sheet workbook: document metadata, extraction
// fields (long format), contact signals, and text previews.
func BuildXLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDocumentInfo); err != nil {
		return nil, err
	}
	for _, sheet := range []string{SheetFields, SheetContacts, SheetPreview} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}

	if err := writeSheet(f, SheetDocumentInfo,
		[]string{"Document ID", "File Name", "File Type", "Status", "Document Type", "Confidence", "Processing Ms", "Created At"},
		documentInfoRows(rows)); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetFields,
		[]string{"Document ID", "File Name", "Field", "Value"},
		resultMapRows(rows, func(r *Row) map[string]any { return r.Result.Fields })); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetContacts,
		[]string{"Document ID", "File Name", "Contact Type", "Value"},
		resultMapRows(rows, func(r *Row) map[string]any { return r.Result.Contacts })); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetPreview,
		[]string{"Document ID", "File Name", "Preview"},
		previewRows(rows)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, records [][]any) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for rowIdx, record := range records {
		for colIdx, value := range record {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if s, ok := value.(string); ok {
				value = capCell(s)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func documentInfoRows(rows []Row) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		confidence := any("")
		if row.Result != nil {
			confidence = row.Result.Confidence
		}
		out = append(out, []any{
			row.Document.ID,
			row.Document.FileName,
			row.Document.FileType,
			row.Document.Status,
			row.Document.DocumentType,
			confidence,
			row.Document.ProcessingMs,
			row.Document.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func resultMapRows(rows []Row, pick func(*Row) map[string]any) [][]any {
	var out [][]any
	for i := range rows {
		row := &rows[i]
		if row.Result == nil {
			continue
		}
		m := pick(row)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, []any{row.Document.ID, row.Document.FileName, k, stringify(m[k])})
		}
	}
	return out
}

func previewRows(rows []Row) [][]any {
	out := make([][]any, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		out = append(out, []any{row.Document.ID, row.Document.FileName, row.Document.TextPreview})
	}
	return out
}

func capCell(s string) string {
	if len(s) <= maxCellChars {
		return s
	}
	// Back up to a rune boundary so the cut never splits a character.
	cut := maxCellChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
