package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docsight-backend/internal/shared/server/middleware"
	"docsight-backend/internal/shared/server/respond"
	"docsight-backend/internal/shared/util"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents/:id/download", h.download)
	rg.GET("/documents/:id/extractions", h.history)
	rg.DELETE("/documents/:id", h.remove)
}

// RegisterAnalyzeRoutes attaches the analyze route separately so the router
// can apply a stricter rate limit to it.
func (h *Handler) RegisterAnalyzeRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/analyze", h.analyze)
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1024)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the 10 MiB upload limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	doc, err := h.Svc.Upload(c.Request.Context(), ownerID, fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		h.respondError(c, err, "failed to upload document")
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	// Non-positive and unparseable limits fall back to the default page
	// size, matching the repos.
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), ownerID, limit, offset)
	if err != nil {
		h.respondError(c, err, "failed to list documents")
		return
	}
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	respond.OK(c, gin.H{"documents": out})
}

func (h *Handler) get(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	doc, err := h.Svc.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) analyze(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	doc, err := h.Svc.Analyze(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to analyze document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) download(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	dl, err := h.Svc.Download(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to download document")
		return
	}
	defer dl.Content.Close()

	c.Header("Content-Disposition", util.ContentDisposition(dl.FileName))
	c.Header("Content-Type", dl.MimeType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, dl.Content); err != nil {
		// Headers are already written; nothing to do but drop the stream.
		_ = c.Error(err)
	}
}

func (h *Handler) history(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	recs, err := h.Svc.History(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch extraction history")
		return
	}
	out := make([]ExtractionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toExtractionResponse(rec))
	}
	respond.OK(c, gin.H{"extractions": out})
}

func (h *Handler) remove(c *gin.Context) {
	ownerID := middleware.OwnerIDFromContext(c)
	if err := h.Svc.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

// respondError maps service errors onto the HTTP taxonomy. ErrForbidden
// intentionally answers with the same body as ErrNotFound so a request
// cannot learn whether a document exists under another owner.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrContentUnavailable):
		respond.Error(c, http.StatusConflict, "content_unavailable", "document content is unavailable in storage", nil)
	case errors.Is(err, ErrExtractionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "unable to extract text from the document", nil)
	case errors.Is(err, ErrAnalysisFailed):
		respond.Error(c, http.StatusBadGateway, "analysis_failed", "analysis service failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
