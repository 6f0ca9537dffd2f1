package export

import (
	"encoding/json"
	"time"
)

const exportVersion = "1.0"

type exportInfo struct {
	ExportDate     time.Time `json:"export_date"`
	TotalDocuments int       `json:"total_documents"`
	Format         string    `json:"format"`
	Version        string    `json:"version"`
}

type jsonDocument struct {
	DocumentID   string    `json:"document_id"`
	FileName     string    `json:"file_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	Status       string    `json:"status"`
	DocumentType string    `json:"document_type"`
	ProcessingMs int64     `json:"processing_ms"`
	TextPreview  string    `json:"text_preview,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Result       any       `json:"result"`
}

type jsonEnvelope struct {
	ExportInfo exportInfo     `json:"export_info"`
	Documents  []jsonDocument `json:"documents"`
}

// BuildJSON renders the export envelope with an export_info header and one
// entry per document.
func BuildJSON(rows []Row) ([]byte, error) {
	docs := make([]jsonDocument, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		entry := jsonDocument{
			DocumentID:   row.Document.ID,
			FileName:     row.Document.FileName,
			FileType:     row.Document.FileType,
			FileSize:     row.Document.FileSize,
			Status:       row.Document.Status,
			DocumentType: row.Document.DocumentType,
			ProcessingMs: row.Document.ProcessingMs,
			TextPreview:  row.Document.TextPreview,
			CreatedAt:    row.Document.CreatedAt.UTC(),
		}
		if row.Result != nil {
			entry.Result = row.Result
		}
		docs = append(docs, entry)
	}

	envelope := jsonEnvelope{
		ExportInfo: exportInfo{
			ExportDate:     time.Now().UTC(),
			TotalDocuments: len(docs),
			Format:         FormatJSON,
			Version:        exportVersion,
		},
		Documents: docs,
	}
	return json.MarshalIndent(envelope, "", "  ")
}
