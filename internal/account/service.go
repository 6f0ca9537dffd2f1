package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/parse"
)

type Service struct {
	DocRepo    documents.DocumentsRepo
	ResultRepo parse.ResultsRepo
}

type ClaimResult struct {
	MigratedDocuments int `json:"migratedDocuments"`
	MigratedResults   int `json:"migratedResults"`
}

func NewService(docRepo documents.DocumentsRepo, resultRepo parse.ResultsRepo) *Service {
	return &Service{DocRepo: docRepo, ResultRepo: resultRepo}
}

// ClaimGuest reassigns a guest's documents and parse results to an
// authenticated user. With Postgres both updates run in one transaction;
// otherwise each repo migrates its own rows.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}

	if docPG, ok := s.DocRepo.(*documents.PGRepo); ok && docPG != nil && docPG.DB != nil {
		if resultPG, ok := s.ResultRepo.(*parse.PGRepo); ok && resultPG != nil && resultPG.DB != nil {
			return claimWithTx(ctx, docPG.DB, guestUserID, authedUserID)
		}
	}

	docCount, err := claimRows(ctx, s.DocRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	resultCount, err := claimRows(ctx, s.ResultRepo, guestUserID, authedUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedDocuments: docCount, MigratedResults: resultCount}, nil
}

func claimWithTx(ctx context.Context, db *sql.DB, guestUserID, authedUserID string) (ClaimResult, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ClaimResult{}, err
	}
	defer tx.Rollback()

	docRes, err := tx.ExecContext(ctx, `UPDATE documents SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	docCount, _ := docRes.RowsAffected()

	resultRes, err := tx.ExecContext(ctx, `UPDATE parse_results SET user_id = $1 WHERE user_id = $2`, authedUserID, guestUserID)
	if err != nil {
		return ClaimResult{}, err
	}
	resultCount, _ := resultRes.RowsAffected()

	if err := tx.Commit(); err != nil {
		return ClaimResult{}, err
	}
	return ClaimResult{MigratedDocuments: int(docCount), MigratedResults: int(resultCount)}, nil
}

type guestClaimer interface {
	ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error)
}

func claimRows(ctx context.Context, repo any, guestUserID, authedUserID string) (int, error) {
	if claimer, ok := repo.(guestClaimer); ok {
		return claimer.ClaimGuest(ctx, guestUserID, authedUserID)
	}
	return 0, errors.New("repository does not support claim")
}
