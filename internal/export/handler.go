package export

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/shared/server/middleware"
	"docparse-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the export service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches export routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/exports", h.create)
	rg.GET("/exports", h.list)
	rg.GET("/exports/:id/download", h.download)
}

type createExportRequest struct {
	Format string `json:"format"`
	Type   string `json:"type"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if !ValidFormat(req.Format) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "format must be csv, json, or xlsx", nil)
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "from must be a date (YYYY-MM-DD)", nil)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "to must be a date (YYYY-MM-DD)", nil)
		return
	}

	exp, err := h.Svc.CreateExport(c.Request.Context(), userID, req.Format, strings.TrimSpace(req.Type), from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "format must be csv, json, or xlsx", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create export", nil)
		return
	}

	respond.JSON(c, http.StatusCreated, exp)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	exports, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list exports", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"exports": exports})
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	exportID := c.Param("id")

	exp, body, err := h.Svc.Download(c.Request.Context(), userID, exportID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "export not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to download export", nil)
		}
		return
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read export", nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.FileName))
	c.Data(http.StatusOK, ContentTypeFor(exp.Format), data)
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid date: %s", value)
}
