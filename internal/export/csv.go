package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var baseColumns = []string{
	"document_id",
	"file_name",
	"file_type",
	"status",
	"document_type",
	"confidence",
	"processing_ms",
	"created_at",
}

// BuildCSV renders one flat row per document. Extraction fields and contact
// signals become field_* and contact_* columns, union'd across all rows so
// every row has the same width.
func BuildCSV(rows []Row) ([]byte, error) {
	fieldCols := collectKeys(rows, func(r *Row) map[string]any {
		if r.Result == nil {
			return nil
		}
		return r.Result.Fields
	})
	contactCols := collectKeys(rows, func(r *Row) map[string]any {
		if r.Result == nil {
			return nil
		}
		return r.Result.Contacts
	})

	header := make([]string, 0, len(baseColumns)+len(fieldCols)+len(contactCols))
	header = append(header, baseColumns...)
	for _, k := range fieldCols {
		header = append(header, "field_"+k)
	}
	for _, k := range contactCols {
		header = append(header, "contact_"+k)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range rows {
		row := &rows[i]
		record := []string{
			row.Document.ID,
			row.Document.FileName,
			row.Document.FileType,
			row.Document.Status,
			row.Document.DocumentType,
			confidenceString(row),
			strconv.FormatInt(row.Document.ProcessingMs, 10),
			row.Document.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, k := range fieldCols {
			record = append(record, resultValue(row, func(r *Row) map[string]any { return r.Result.Fields }, k))
		}
		for _, k := range contactCols {
			record = append(record, resultValue(row, func(r *Row) map[string]any { return r.Result.Contacts }, k))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func collectKeys(rows []Row, pick func(*Row) map[string]any) []string {
	seen := map[string]struct{}{}
	for i := range rows {
		for k := range pick(&rows[i]) {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func resultValue(row *Row, pick func(*Row) map[string]any, key string) string {
	if row.Result == nil {
		return ""
	}
	v, ok := pick(row)[key]
	if !ok {
		return ""
	}
	return stringify(v)
}

func confidenceString(row *Row) string {
	if row.Result == nil {
		return ""
	}
	return strconv.FormatFloat(row.Result.Confidence, 'f', -1, 64)
}

// stringify flattens a value for a CSV or spreadsheet cell. Lists are joined
// with "; " so they stay one cell.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, "; ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, "; ")
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
