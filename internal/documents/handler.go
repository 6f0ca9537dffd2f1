package documents

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/shared/server/middleware"
	"docparse-backend/internal/shared/server/respond"
)

// ResultSource provides parse results for documents without the handler
// depending on the parse package directly.
type ResultSource interface {
	ResultForDocument(ctx context.Context, userID, documentID string) (any, error)
	DeleteResult(ctx context.Context, userID, documentID string) error
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc     *Service
	Results ResultSource
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, results ResultSource) *Handler {
	return &Handler{Svc: svc, Results: results}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.GET("/documents/search", h.search)
	rg.GET("/documents/search/facets", h.facets)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/preview", h.preview)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)

	docs, err := h.Svc.List(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"documents": toResponses(docs),
		"page":      page,
		"pageSize":  pageSize,
	})
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	query := c.Query("q")
	documentType := c.Query("type")

	docs, err := h.Svc.Search(c.Request.Context(), userID, query, documentType)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "search failed", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"documents": toResponses(docs),
		"count":     len(docs),
	})
}

func (h *Handler) facets(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	facets, err := h.Svc.Facets(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute facets", nil)
		return
	}

	respond.JSON(c, http.StatusOK, facets)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		respondGetError(c, err)
		return
	}

	var result any
	if h.Results != nil {
		result, err = h.Results.ResultForDocument(c.Request.Context(), userID, documentID)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch parse result", nil)
			return
		}
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"document": toResponse(doc),
		"result":   result,
	})
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	if _, err := h.Svc.Delete(c.Request.Context(), userID, documentID); err != nil {
		respondGetError(c, err)
		return
	}

	if h.Results != nil {
		if err := h.Results.DeleteResult(c.Request.Context(), userID, documentID); err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete parse result", nil)
			return
		}
	}

	respond.JSON(c, http.StatusOK, gin.H{"deleted": true, "documentId": documentID})
}

func (h *Handler) preview(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		respondGetError(c, err)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"documentId":  doc.ID,
		"textPreview": doc.TextPreview,
	})
}

func respondGetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
