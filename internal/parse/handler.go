package parse

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/shared/server/middleware"
	"docparse-backend/internal/shared/server/respond"
	"docparse-backend/internal/usage"
)

const maxBatchFiles = 10

// Handler wires HTTP handlers to the parse service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches parse routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/parse", h.parse)
	rg.POST("/documents/batch", h.batch)
	rg.GET("/tasks/:id", h.taskStatus)
}

func (h *Handler) parse(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	plan := middleware.UserPlanFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, documents.MaxFileSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds the 16 MiB limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	async := isAsync(c)
	ctx := withRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	doc, result, err := h.Svc.Parse(ctx, userID, plan, fileHeader.Filename, fileHeader.Size, file, async)
	if err != nil {
		respondParseError(c, err)
		return
	}

	if async {
		respond.JSON(c, http.StatusAccepted, gin.H{
			"taskId":     doc.ID,
			"documentId": doc.ID,
			"status":     doc.Status,
		})
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"document": docJSON(doc),
		"result":   result,
	})
}

func (h *Handler) batch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	plan := middleware.UserPlanFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBatchFiles*documents.MaxFileSize)

	form, err := c.MultipartForm()
	if err != nil {
		if isBodyTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "batch exceeds the upload limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}
	if len(files) > maxBatchFiles {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at most 10 files per batch", nil)
		return
	}

	ctx := withRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))

	tasks := make([]gin.H, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}

		doc, _, err := h.Svc.Parse(ctx, userID, plan, fileHeader.Filename, fileHeader.Size, file, true)
		file.Close()
		if err != nil {
			respondParseError(c, err)
			return
		}

		tasks = append(tasks, gin.H{
			"taskId":   doc.ID,
			"fileName": doc.FileName,
			"status":   doc.Status,
		})
	}

	respond.JSON(c, http.StatusAccepted, gin.H{"tasks": tasks})
}

func (h *Handler) taskStatus(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	taskID := c.Param("id")

	doc, err := h.Svc.Docs.Get(c.Request.Context(), userID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "task not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch task", nil)
		}
		return
	}

	resp := gin.H{
		"taskId":     doc.ID,
		"documentId": doc.ID,
		"status":     doc.Status,
	}
	if doc.Status == documents.StatusFailed {
		resp["error"] = "parse failed"
	}
	respond.JSON(c, http.StatusOK, resp)
}

func respondParseError(c *gin.Context, err error) {
	var quotaErr *QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "Daily parse quota exceeded. Upgrade your plan or wait for the reset.", []map[string]string{
			{"field": "resets_at", "issue": quotaErr.Usage.ResetsAt.UTC().Format("2006-01-02T15:04:05Z07:00")},
		})
	case errors.Is(err, usage.ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "Daily parse quota exceeded.", nil)
	case errors.Is(err, documents.ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "only pdf, docx, and txt files are accepted", nil)
	case errors.Is(err, documents.ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds the 16 MiB limit", nil)
	case errors.Is(err, documents.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		if code, _ := classifyFailure(err); code == ErrorCodeLLMInvalidOutput {
			respond.Error(c, http.StatusBadGateway, "llm_invalid_output", "the extraction model returned an unusable response", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to parse document", nil)
	}
}

func docJSON(doc documents.Document) gin.H {
	return gin.H{
		"documentId":   doc.ID,
		"fileName":     doc.FileName,
		"fileType":     doc.FileType,
		"fileSize":     doc.FileSize,
		"status":       doc.Status,
		"documentType": doc.DocumentType,
		"processingMs": doc.ProcessingMs,
		"createdAt":    doc.CreatedAt,
		"updatedAt":    doc.UpdatedAt,
	}
}

func isAsync(c *gin.Context) bool {
	v := strings.ToLower(c.Query("async"))
	return v == "1" || v == "true"
}

func isBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	if errors.Is(err, multipart.ErrMessageTooLarge) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
