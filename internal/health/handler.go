package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/shared/server/respond"
)

// Handler exposes the health endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the health route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.check)
}

func (h *Handler) check(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Check(c.Request.Context()))
}
