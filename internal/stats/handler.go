package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/shared/server/middleware"
	"docparse-backend/internal/shared/server/respond"
)

// Handler exposes the stats endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches stats routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.overview)
}

func (h *Handler) overview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	plan := middleware.UserPlanFromContext(c)

	overview, err := h.Svc.Overview(c.Request.Context(), userID, plan)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute stats", nil)
		return
	}

	respond.JSON(c, http.StatusOK, overview)
}
