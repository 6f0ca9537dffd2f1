package stats

import (
	"context"
	"time"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/usage"
)

// Overview summarizes a caller's activity and remaining quota.
type Overview struct {
	TotalDocuments int            `json:"totalDocuments"`
	ByType         map[string]int `json:"byType"`
	ParsesToday    int            `json:"parsesToday"`
	QuotaLimit     int            `json:"quotaLimit"`
	QuotaRemaining int            `json:"quotaRemaining"`
	LastActivity   *time.Time     `json:"lastActivity"`
}

// Service computes per-user statistics.
type Service struct {
	Docs  documents.DocumentsRepo
	Usage *usage.Service
}

// NewService constructs a Service.
func NewService(docs documents.DocumentsRepo, usageSvc *usage.Service) *Service {
	return &Service{Docs: docs, Usage: usageSvc}
}

// Overview returns the caller's totals and quota snapshot.
func (s *Service) Overview(ctx context.Context, userID, plan string) (Overview, error) {
	total, err := s.Docs.CountByUser(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	byType, err := s.Docs.CountByType(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	last, err := s.Docs.LastActivity(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{
		TotalDocuments: total,
		ByType:         byType,
		LastActivity:   last,
	}

	if s.Usage != nil {
		u, err := s.Usage.Get(ctx, userID, plan)
		if err != nil {
			return Overview{}, err
		}
		overview.ParsesToday = u.Used
		overview.QuotaLimit = u.Limit
		overview.QuotaRemaining = u.Limit - u.Used
		if overview.QuotaRemaining < 0 {
			overview.QuotaRemaining = 0
		}
	}
	return overview, nil
}
