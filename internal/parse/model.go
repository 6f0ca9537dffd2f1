package parse

import "time"

// Result holds the classification and extraction output for one document.
// A document has at most one completed result.
type Result struct {
	ID            string         `json:"id"`
	DocumentID    string         `json:"documentId"`
	UserID        string         `json:"userId"`
	DocumentType  string         `json:"documentType"`
	Confidence    float64        `json:"confidence"`
	Fields        map[string]any `json:"fields"`
	Contacts      map[string]any `json:"contacts"`
	Entities      map[string]any `json:"entities"`
	Features      map[string]any `json:"features"`
	Model         string         `json:"model"`
	PromptVersion string         `json:"promptVersion"`
	CreatedAt     time.Time      `json:"createdAt"`
}
