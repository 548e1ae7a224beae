package documents

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docmanager-backend/internal/shared/server/middleware"
	"docmanager-backend/internal/shared/server/respond"
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
	rg.PUT("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/download", h.download)
	rg.GET("/documents/:id/presign", h.presign)
}

func actorFromContext(c *gin.Context) Actor {
	return Actor{
		ID:      middleware.UserIDFromContext(c),
		IsAdmin: middleware.IsAdminFromContext(c),
	}
}

func (h *Handler) upload(c *gin.Context) {
	actor := actorFromContext(c)
	if h.Svc.MaxUploadBytes > 0 {
		// Leave room for the multipart envelope around the file part.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes+(1<<20))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), actor, UploadInput{
		FileName:       fileHeader.Filename,
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
		AllowedReaders: c.PostFormArray("allowedReaders"),
		SizeBytes:      fileHeader.Size,
		Body:           file,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", err.Error(), nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to fetch document")
		return
	}
	respond.OK(c, toResponse(doc))
}

type updateRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AllowedReaders []string `json:"allowedReaders"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Svc.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), UpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		AllowedReaders: req.AllowedReaders,
	})
	if err != nil {
		h.respondError(c, err, "failed to update document")
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		h.respondError(c, err, "failed to delete document")
		return
	}
	respond.OK(c, gin.H{"message": "deleted"})
}

func (h *Handler) download(c *gin.Context) {
	doc, body, contentType, err := h.Svc.Download(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to download document")
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.DataFromReader(http.StatusOK, doc.SizeBytes, contentType, body, nil)
}

func (h *Handler) presign(c *gin.Context) {
	url, err := h.Svc.PresignDownload(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrPresignUnavailable) {
			respond.Error(c, http.StatusNotImplemented, "presign_unavailable", err.Error(), nil)
			return
		}
		h.respondError(c, err, "failed to presign download")
		return
	}
	respond.OK(c, gin.H{"downloadUrl": url})
}

func (h *Handler) list(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), actorFromContext(c), limit, offset)
	if err != nil {
		h.respondError(c, err, "failed to list documents")
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	respond.OK(c, out)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}
