package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plinvoice/internal/service"
)

// ExtractionHandler handles invoice extraction endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// Extract handles POST /api/v1/extract
// @Summary Extract structured invoice data from a document
// @Description Upload an invoice (PDF, JPG, PNG) together with your Gemini API key; returns the extracted record
// @Tags extractions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice document (PDF, JPG, or PNG)"
// @Param api_key formData string true "Gemini API key used for the upstream calls"
// @Success 201 {object} APIResponse{data=domain.Extraction}
// @Failure 400 {object} APIResponse "Missing file, missing api key, or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 502 {object} APIResponse "Upstream extraction failed"
// @Router /extract [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	apiKey := c.PostForm("api_key")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
	}

	extraction, err := h.extractionService.Extract(c.Request.Context(), service.ExtractionRequest{
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     content,
		APIKey:      apiKey,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, extraction)
}

// List handles GET /api/v1/extractions
func (h *ExtractionHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	extractions, total, err := h.extractionService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, extractions, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/extractions/:id
func (h *ExtractionHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	extraction, err := h.extractionService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, extraction)
}

// Export handles GET /api/v1/extractions/:id/export
// @Summary Export an extracted invoice as an Excel workbook
func (h *ExtractionHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// Buffered so that export errors still produce a JSON error response
	// instead of a half-written workbook.
	var buf bytes.Buffer
	fileName, err := h.extractionService.ExportXLSX(c.Request.Context(), id, &buf)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// SourceFile handles GET /api/v1/extractions/:id/file
func (h *ExtractionHandler) SourceFile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.extractionService.SourceFileURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Delete handles DELETE /api/v1/extractions/:id
func (h *ExtractionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.extractionService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": id})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
