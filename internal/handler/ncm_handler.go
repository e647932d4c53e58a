package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plinvoice/internal/ncm"
)

// NCMHandler serves the NCM classification-code reference endpoints.
type NCMHandler struct {
	lookup *ncm.Lookup
}

// NewNCMHandler creates a new NCMHandler.
func NewNCMHandler(lookup *ncm.Lookup) *NCMHandler {
	return &NCMHandler{lookup: lookup}
}

// Search handles GET /api/v1/ncm/search?term=
func (h *NCMHandler) Search(c *gin.Context) {
	term := c.Query("term")
	RespondOK(c, h.lookup.Search(term))
}

// GetByCode handles GET /api/v1/ncm/:code
func (h *NCMHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	description, ok := h.lookup.Description(code)
	if !ok {
		RespondError(c, http.StatusNotFound, "NCM_NOT_FOUND", "NCM code not found")
		return
	}
	RespondOK(c, gin.H{"code": code, "description": description})
}

// Hierarchy handles GET /api/v1/ncm/:code/hierarchy
func (h *NCMHandler) Hierarchy(c *gin.Context) {
	RespondOK(c, h.lookup.Hierarchy(c.Param("code")))
}
