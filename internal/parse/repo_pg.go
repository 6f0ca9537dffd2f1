package parse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements ResultsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert stores the result, replacing any previous result for the document.
func (r *PGRepo) Upsert(ctx context.Context, result Result) error {
	const query = `
INSERT INTO parse_results (
    id,
    document_id,
    user_id,
    document_type,
    confidence,
    fields,
    contacts,
    entities,
    features,
    model,
    prompt_version,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (document_id) DO UPDATE SET
  document_type = EXCLUDED.document_type,
  confidence = EXCLUDED.confidence,
  fields = EXCLUDED.fields,
  contacts = EXCLUDED.contacts,
  entities = EXCLUDED.entities,
  features = EXCLUDED.features,
  model = EXCLUDED.model,
  prompt_version = EXCLUDED.prompt_version,
  created_at = EXCLUDED.created_at`

	fields, err := marshalJSONB(result.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	contacts, err := marshalJSONB(result.Contacts)
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}
	entities, err := marshalJSONB(result.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	features, err := marshalJSONB(result.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		result.ID,
		result.DocumentID,
		result.UserID,
		result.DocumentType,
		result.Confidence,
		fields,
		contacts,
		entities,
		features,
		result.Model,
		result.PromptVersion,
		result.CreatedAt,
	)
	return err
}

// GetByDocument fetches the result for a document.
func (r *PGRepo) GetByDocument(ctx context.Context, documentID string) (Result, error) {
	const query = `
SELECT id, document_id, user_id, document_type, confidence, fields, contacts, entities, features, model, prompt_version, created_at
FROM parse_results
WHERE document_id = $1
LIMIT 1`

	var result Result
	var fields, contacts, entities, features []byte
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&result.ID,
		&result.DocumentID,
		&result.UserID,
		&result.DocumentType,
		&result.Confidence,
		&fields,
		&contacts,
		&entities,
		&features,
		&result.Model,
		&result.PromptVersion,
		&result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}

	if result.Fields, err = unmarshalJSONB(fields); err != nil {
		return Result{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	if result.Contacts, err = unmarshalJSONB(contacts); err != nil {
		return Result{}, fmt.Errorf("unmarshal contacts: %w", err)
	}
	if result.Entities, err = unmarshalJSONB(entities); err != nil {
		return Result{}, fmt.Errorf("unmarshal entities: %w", err)
	}
	if result.Features, err = unmarshalJSONB(features); err != nil {
		return Result{}, fmt.Errorf("unmarshal features: %w", err)
	}
	return result, nil
}

// DeleteByDocument removes the result for a document. Missing rows are not an error.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM parse_results WHERE document_id = $1`, documentID)
	return err
}

func marshalJSONB(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func unmarshalJSONB(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var _ ResultsRepo = (*PGRepo)(nil)
