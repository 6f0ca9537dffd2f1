package health

import (
	"context"
	"database/sql"
	"time"

	"docparse-backend/internal/cache"
	"docparse-backend/internal/documents"
	"docparse-backend/internal/users"
)

const probeTimeout = 2 * time.Second

// Status is the readiness payload.
type Status struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	CacheConnected    bool   `json:"cache_connected"`
	LLMConfigured     bool   `json:"llm_configured"`
	TotalUsers        int64  `json:"total_users"`
	TotalDocuments    int    `json:"total_documents"`
}

// Service probes the dependencies the API needs to serve traffic.
type Service struct {
	DB            *sql.DB
	Cache         cache.Cache
	LLMConfigured bool
	Users         *users.Service
	Docs          documents.DocumentsRepo
}

// Check pings the database and cache and counts rows. Totals are
// best-effort: a failed count leaves the field at zero rather than
// failing the whole health response.
func (s *Service) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := Status{
		Status:        "ok",
		LLMConfigured: s.LLMConfigured,
	}

	if s.DB != nil {
		status.DatabaseConnected = s.DB.PingContext(ctx) == nil
	} else if s.Docs != nil {
		// In-memory repositories count as a working store.
		status.DatabaseConnected = true
	}

	if s.Cache != nil {
		status.CacheConnected = s.Cache.Ping(ctx) == nil
	}

	if s.Users != nil {
		if count, err := s.Users.Count(ctx); err == nil {
			status.TotalUsers = count
		}
	}
	if s.Docs != nil {
		if count, err := s.Docs.CountAll(ctx); err == nil {
			status.TotalDocuments = count
		}
	}

	return status
}
